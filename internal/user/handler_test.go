package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		repo    *mockRepository
		service *user.Service
		router  chi.Router
		userID  int64
	)

	BeforeEach(func() {
		repo = newMockRepository()
		service = user.NewService(repo, catalog(), nil, time.Second, discardLogger())
		handler := user.NewHandler(discardLogger(), service)

		u := &user.User{Email: "doctor@example.com", Name: "Dr. Who", PasswordHash: "hash", IsActive: true}
		Expect(service.Create(context.Background(), u)).To(Succeed())
		userID = u.ID

		router = chi.NewRouter()
		router.Get("/users/me", handler.GetCurrentUser)
		router.Put("/users/{id}/roles", handler.AssignRoles)
		router.Put("/users/{id}/branches", handler.AssignBranches)
	})

	withPrincipal := func(req *http.Request) *http.Request {
		ctx := internal.ContextWithPrincipal(req.Context(), &internal.Principal{UserID: userID, Email: "doctor@example.com"})
		return req.WithContext(ctx)
	}

	It("returns the current user without the password hash", func() {
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/users/me", nil)))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("hash"))
		var resp user.UserResponse
		Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Email).To(Equal("doctor@example.com"))
	})

	It("answers 401 without a principal", func() {
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("assigns roles", func() {
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"roles":["DOCTOR"]}`)

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/1/roles", body))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp user.UserResponse
		Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Roles).To(Equal([]string{"DOCTOR"}))
		Expect(resp.Permissions).To(Equal([]string{"patient.read", "patient.write"}))
	})

	It("forbids a non super admin from granting SUPER_ADMIN", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/users/1/roles", strings.NewReader(`{"roles":["SUPER_ADMIN"]}`))
		ctx := internal.ContextWithPrincipal(req.Context(), &internal.Principal{UserID: userID, Roles: []string{"ADMIN"}})

		router.ServeHTTP(rec, req.WithContext(ctx))

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		stored, err := service.GetByID(context.Background(), userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Roles).To(BeEmpty())
	})

	It("lets a super admin grant SUPER_ADMIN", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/users/1/roles", strings.NewReader(`{"roles":["SUPER_ADMIN"]}`))
		ctx := internal.ContextWithPrincipal(req.Context(), &internal.Principal{UserID: 99, Roles: []string{"SUPER_ADMIN"}})

		router.ServeHTTP(rec, req.WithContext(ctx))

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("rejects a non numeric id", func() {
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/abc/roles", strings.NewReader(`{"roles":[]}`)))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an unknown user", func() {
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/99/branches", strings.NewReader(`{"branches":["B1"]}`)))

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects malformed bodies", func() {
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/1/branches", strings.NewReader(`{"branches":`)))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
