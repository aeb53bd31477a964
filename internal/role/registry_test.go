package role_test

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/core/events"
	"github.com/frahmantamala/hospital-management/internal/role"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var (
		repo        *mockRepository
		invalidator *recordingInvalidator
		bus         *events.EventBus
		registry    *role.Registry
		ctx         context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		invalidator = &recordingInvalidator{}
		bus = events.NewEventBus(discardLogger())
		registry = role.NewRegistry(repo, 50*time.Millisecond, bus, discardLogger())
		registry.SetInvalidator(invalidator)
	})

	Describe("Upsert", func() {
		It("defaults a new role without scope to BRANCH", func() {
			// When
			created, err := registry.Upsert(ctx, "LAB_TECH", nil, []string{"lab.read"})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Scope).To(Equal(role.ScopeBranch))
			Expect(created.Permissions).To(Equal([]string{"lab.read"}))
		})

		It("keeps the stored scope when scope is omitted", func() {
			// Given
			global := role.ScopeGlobal
			_, err := registry.Upsert(ctx, "AUDITOR", &global, []string{"user.read"})
			Expect(err).NotTo(HaveOccurred())

			// When
			updated, err := registry.Upsert(ctx, "AUDITOR", nil, []string{"role.read"})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Scope).To(Equal(role.ScopeGlobal))
		})

		It("replaces the whole permission set", func() {
			// Given
			_, err := registry.Upsert(ctx, "NURSE", nil, []string{"patient.read", "appointment.read"})
			Expect(err).NotTo(HaveOccurred())

			// When
			updated, err := registry.Upsert(ctx, "NURSE", nil, []string{"patient.write", "patient.write"})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(Equal([]string{"patient.write"}))
		})

		It("invalidates the role after a successful write", func() {
			_, err := registry.Upsert(ctx, "DOCTOR", nil, []string{"patient.read"})

			Expect(err).NotTo(HaveOccurred())
			Expect(invalidator.invalidated()).To(Equal([]string{"DOCTOR"}))
		})

		It("still invalidates when the write fails", func() {
			// Given
			repo.failWith = errors.New("connection reset")

			// When
			_, err := registry.Upsert(ctx, "DOCTOR", nil, []string{"patient.read"})

			// Then
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(invalidator.invalidated()).To(Equal([]string{"DOCTOR"}))
		})

		It("reports a storage timeout when the deadline passes and still invalidates", func() {
			// Given
			repo.blockUntilDone = true

			// When
			_, err := registry.Upsert(ctx, "DOCTOR", nil, []string{"patient.read"})

			// Then
			Expect(internal.IsStorageTimeout(err)).To(BeTrue())
			Expect(invalidator.invalidated()).To(ContainElement("DOCTOR"))
		})

		It("publishes a role.upserted event", func() {
			// Given
			received := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeRoleUpserted, func(_ context.Context, e events.Event) error {
				received <- e
				return nil
			})

			// When
			_, err := registry.Upsert(ctx, "DOCTOR", nil, []string{"patient.read"})

			// Then
			Expect(err).NotTo(HaveOccurred())
			var event events.Event
			Eventually(received).Should(Receive(&event))
			upserted, ok := event.(*events.RoleUpsertedEvent)
			Expect(ok).To(BeTrue())
			Expect(upserted.RoleName).To(Equal("DOCTOR"))
			Expect(upserted.Scope).To(Equal("BRANCH"))
		})

		It("works without an invalidator", func() {
			bare := role.NewRegistry(newMockRepository(), time.Second, nil, discardLogger())

			_, err := bare.Upsert(ctx, "DOCTOR", nil, []string{"patient.read"})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("returns nil for an unknown role", func() {
			r, err := registry.Get(ctx, "GHOST")

			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(BeNil())
		})

		It("maps storage failures to internal errors", func() {
			repo.failWith = errors.New("boom")

			_, err := registry.Get(ctx, "DOCTOR")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.IsServerError()).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("returns every role", func() {
			for _, name := range []string{"NURSE", "DOCTOR", "ADMIN"} {
				_, err := registry.Upsert(ctx, name, nil, []string{"patient.read"})
				Expect(err).NotTo(HaveOccurred())
			}

			roles, err := registry.List(ctx)

			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(roles))
			for _, r := range roles {
				names = append(names, r.Name)
			}
			Expect(names).To(Equal([]string{"ADMIN", "DOCTOR", "NURSE"}))
		})
	})
	Describe("Seed", func() {
		It("writes the default catalog with explicit scopes", func() {
			// Given a DOCTOR row that was wrongly made GLOBAL
			global := role.ScopeGlobal
			_, err := registry.Upsert(ctx, role.Doctor, &global, []string{"patient.read"})
			Expect(err).NotTo(HaveOccurred())

			// When
			Expect(registry.Seed(ctx, role.DefaultRoles())).To(Succeed())

			// Then
			doctor, err := registry.Get(ctx, role.Doctor)
			Expect(err).NotTo(HaveOccurred())
			Expect(doctor.Scope).To(Equal(role.ScopeBranch))
			superAdmin, err := registry.Get(ctx, role.SuperAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(superAdmin.Scope).To(Equal(role.ScopeGlobal))
			Expect(superAdmin.Permissions).To(ConsistOf(role.AllPermissions()))
		})

		It("stops at the first failing write", func() {
			repo.failWith = errors.New("connection reset")

			err := registry.Seed(ctx, role.DefaultRoles())

			Expect(err).To(HaveOccurred())
			Expect(repo.upsertCount()).To(Equal(1))
		})
	})
})
