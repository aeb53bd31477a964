package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/core/metrics"
	"github.com/frahmantamala/hospital-management/internal/permission"
	"github.com/frahmantamala/hospital-management/internal/role"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// stubResolver serves fixed role entries.
type stubResolver struct {
	entries  map[string]permission.Entry
	failWith error
	calls    int
}

func (s *stubResolver) Resolve(_ context.Context, roleName string) (permission.Entry, error) {
	s.calls++
	if s.failWith != nil {
		return permission.Entry{}, s.failWith
	}
	entry, ok := s.entries[roleName]
	if !ok {
		return permission.Entry{Name: roleName, Permissions: map[string]struct{}{}}, nil
	}
	return entry, nil
}

func entryOf(name string, scope role.Scope, keys ...string) permission.Entry {
	perms := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		perms[k] = struct{}{}
	}
	return permission.Entry{Name: name, Scope: scope, Permissions: perms, Known: true}
}

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		resolver *stubResolver
		m        *metrics.Metrics
		authz    *RBACAuthorization
	)

	withCaller := func(roles, branches []string, branchID string) context.Context {
		ctx := internal.ContextWithPrincipal(context.Background(), &internal.Principal{
			UserID:   7,
			Email:    "caller@example.com",
			Roles:    roles,
			Branches: branches,
		})
		return internal.ContextWithBranchID(ctx, branchID)
	}

	ginkgo.BeforeEach(func() {
		resolver = &stubResolver{entries: map[string]permission.Entry{
			role.Doctor:       entryOf(role.Doctor, role.ScopeBranch, role.PermPatientRead, role.PermMedicalRecordRead),
			role.Admin:        entryOf(role.Admin, role.ScopeGlobal, role.PermUserRead),
			role.Receptionist: entryOf(role.Receptionist, role.ScopeBranch, role.PermAppointmentWrite),
		}}
		m = metrics.New(prometheus.NewRegistry())
		authz = NewRBACAuthorization(resolver, m, discardLogger())
	})

	ginkgo.Describe("Decide", func() {
		ginkgo.It("should scope a branch role to the caller's branches", func() {
			// Given a DOCTOR assigned to B1
			roles, branches := []string{role.Doctor}, []string{"B1"}

			// When
			inBranch, err := authz.Decide(withCaller(roles, branches, "B1"), role.PermPatientRead)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			otherBranch, err := authz.Decide(withCaller(roles, branches, "B2"), role.PermPatientRead)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// Then
			gomega.Expect(inBranch).To(gomega.Equal(DecisionAllow))
			gomega.Expect(otherBranch).To(gomega.Equal(DecisionDeny))
		})

		ginkgo.It("should deny a branch grant when the request names no branch", func() {
			decision, err := authz.Decide(withCaller([]string{role.Doctor}, []string{"B1"}, ""), role.PermPatientRead)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(DecisionDeny))
		})

		ginkgo.It("should ignore the branch for a global grant", func() {
			for _, branchID := range []string{"", "B1", "B9"} {
				decision, err := authz.Decide(withCaller([]string{role.Admin}, nil, branchID), role.PermUserRead)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(decision).To(gomega.Equal(DecisionAllow), "branch %q", branchID)
			}
		})

		ginkgo.It("should allow SUPER_ADMIN without consulting the cache", func() {
			decision, err := authz.Decide(withCaller([]string{role.SuperAdmin}, nil, ""), "anything.at_all")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(DecisionAllow))
			gomega.Expect(resolver.calls).To(gomega.BeZero())
		})

		ginkgo.It("should deny a permission no role grants", func() {
			decision, err := authz.Decide(withCaller([]string{role.Doctor, role.Receptionist}, []string{"B1"}, "B1"), role.PermRoleWrite)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(DecisionDeny))
		})

		ginkgo.It("should deny roles the registry does not know", func() {
			decision, err := authz.Decide(withCaller([]string{"JANITOR"}, []string{"B1"}, "B1"), role.PermPatientRead)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(DecisionDeny))
		})

		ginkgo.It("should report a missing principal as unauthenticated", func() {
			decision, err := authz.Decide(context.Background(), role.PermPatientRead)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(decision).To(gomega.Equal(DecisionUnauthenticated))
		})

		ginkgo.It("should surface resolver failures", func() {
			resolver.failWith = internal.NewStorageTimeoutError("load role", context.DeadlineExceeded)

			_, err := authz.Decide(withCaller([]string{role.Doctor}, []string{"B1"}, "B1"), role.PermPatientRead)

			gomega.Expect(internal.IsStorageTimeout(err)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Middleware", func() {
		var reached bool

		serve := func(ctx context.Context) *httptest.ResponseRecorder {
			reached = false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reached = true
				w.WriteHeader(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/patients", nil).WithContext(ctx)
			rec := httptest.NewRecorder()
			authz.Middleware(role.PermPatientRead)(next).ServeHTTP(rec, req)
			return rec
		}

		ginkgo.It("should let an allowed request through", func() {
			rec := serve(withCaller([]string{role.Doctor}, []string{"B1"}, "B1"))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(reached).To(gomega.BeTrue())
			gomega.Expect(testutil.ToFloat64(m.AuthorizationDecisions.WithLabelValues(metrics.OutcomeAllow, role.PermPatientRead))).To(gomega.Equal(1.0))
		})

		ginkgo.It("should answer 403 on deny", func() {
			rec := serve(withCaller([]string{role.Doctor}, []string{"B1"}, "B2"))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(reached).To(gomega.BeFalse())
			gomega.Expect(testutil.ToFloat64(m.AuthorizationDecisions.WithLabelValues(metrics.OutcomeDeny, role.PermPatientRead))).To(gomega.Equal(1.0))
		})

		ginkgo.It("should answer 401 without a principal", func() {
			rec := serve(context.Background())

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should answer 500 with a generic body when the registry times out", func() {
			resolver.failWith = internal.NewStorageTimeoutError("load role", context.DeadlineExceeded)

			rec := serve(withCaller([]string{role.Doctor}, []string{"B1"}, "B1"))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("load role"))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should answer 500 for unexpected resolver errors", func() {
			resolver.failWith = errors.New("connection reset")

			rec := serve(withCaller([]string{role.Doctor}, []string{"B1"}, "B1"))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("connection reset"))
		})
	})
})
