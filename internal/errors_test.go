package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errors", func() {
	Describe("WrapStorageError", func() {
		It("classifies a deadline overrun as a storage timeout", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
			defer cancel()
			<-ctx.Done()

			err := internal.WrapStorageError(ctx, "role upsert", errors.New("driver: bad connection"))

			Expect(internal.IsStorageTimeout(err)).To(BeTrue())
		})

		It("classifies other failures as internal errors", func() {
			err := internal.WrapStorageError(context.Background(), "role upsert", errors.New("syntax error"))

			Expect(err.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(err.Message).To(Equal("failed to role upsert"))
		})

		It("passes application errors through", func() {
			wrapped := fmt.Errorf("lookup: %w", internal.ErrUserNotFound)

			Expect(internal.WrapStorageError(context.Background(), "user lookup", wrapped)).To(BeIdenticalTo(internal.ErrUserNotFound))
		})
	})

	Describe("ToHTTPResponse", func() {
		It("replaces server error messages with a generic one", func() {
			status, body := internal.NewInternalError("failed to query users: password=hunter2", nil).ToHTTPResponse()

			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusInternalServerError))
			Expect(string(raw)).NotTo(ContainSubstring("hunter2"))
			Expect(string(raw)).To(ContainSubstring(internal.GenericInternalMessage))
		})

		It("keeps client error details", func() {
			status, body := internal.NewValidationFieldError("email", "email is invalid", internal.ErrCodeInvalidEmail).ToHTTPResponse()

			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(string(raw)).To(ContainSubstring("email is invalid"))
		})
	})
})

var _ = Describe("Context", func() {
	It("round-trips the principal", func() {
		p := &internal.Principal{UserID: 3, Roles: []string{"NURSE"}, Branches: []string{"B1"}}
		ctx := internal.ContextWithPrincipal(context.Background(), p)

		got, ok := internal.PrincipalFromContext(ctx)

		Expect(ok).To(BeTrue())
		Expect(got.HasRole("NURSE")).To(BeTrue())
		Expect(got.HasBranch("B1")).To(BeTrue())
		Expect(got.HasBranch("")).To(BeFalse())
	})

	It("leaves the context unscoped for an empty branch", func() {
		ctx := internal.ContextWithBranchID(context.Background(), "")

		Expect(internal.BranchIDFromContext(ctx)).To(BeEmpty())
	})

	It("reports no principal on a bare context", func() {
		_, ok := internal.PrincipalFromContext(context.Background())

		Expect(ok).To(BeFalse())
	})
})
