package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		router  chi.Router
		service *Service
		seen    *internal.Principal
	)

	ginkgo.BeforeEach(func() {
		tokens := NewJWTTokenGenerator(testSecret, "hms-test", time.Hour)
		var err error
		service, err = NewService(newMockUserStore(), &Hasher{Cost: bcrypt.MinCost}, tokens, []string{"PATIENT"}, discardLogger())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		handler := NewHandler(discardLogger(), service)

		seen = nil
		router = chi.NewRouter()
		router.Post("/auth/register", handler.Register)
		router.Post("/auth/login", handler.Login)
		router.With(handler.AuthMiddleware).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			seen, _ = internal.PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)
		return rec
	}

	whoami := func(authorization string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("should register, log in and reach a protected route", func() {
		rec := post("/auth/register", `{"email":"  USER@Example.com ","password":"s3cret-pass","name":"Jane"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
		gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("s3cret-pass"))

		rec = post("/auth/login", `{"email":"user@example.com","password":"s3cret-pass"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var result AuthResult
		gomega.Expect(json.NewDecoder(rec.Body).Decode(&result)).To(gomega.Succeed())

		rec = whoami("bearer " + result.Token)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(seen).ToNot(gomega.BeNil())
		gomega.Expect(seen.Email).To(gomega.Equal("user@example.com"))
		gomega.Expect(seen.Roles).To(gomega.Equal([]string{"PATIENT"}))
	})

	ginkgo.It("should give the same 401 body for every login failure", func() {
		post("/auth/register", `{"email":"user@example.com","password":"s3cret-pass","name":"Jane"}`)

		unknown := post("/auth/login", `{"email":"ghost@example.com","password":"s3cret-pass"}`)
		wrong := post("/auth/login", `{"email":"user@example.com","password":"nope-nope"}`)

		gomega.Expect(unknown.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(wrong.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(unknown.Body.String()).To(gomega.Equal(wrong.Body.String()))
	})

	ginkgo.It("should answer 409 for a taken email", func() {
		post("/auth/register", `{"email":"user@example.com","password":"s3cret-pass","name":"Jane"}`)

		rec := post("/auth/register", `{"email":"USER@example.com","password":"s3cret-pass","name":"Jane"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusConflict))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(string(internal.ErrCodeDuplicateEmail)))
	})

	ginkgo.It("should answer 400 for malformed bodies", func() {
		rec := post("/auth/login", `{"email":`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.DescribeTable("should reject bad tokens with one uniform 401",
		func(authorization string) {
			rec := whoami(authorization)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(string(internal.ErrCodeUnauthenticated)))
			gomega.Expect(seen).To(gomega.BeNil())
		},
		ginkgo.Entry("missing header", ""),
		ginkgo.Entry("wrong scheme", "Basic dXNlcjpwYXNz"),
		ginkgo.Entry("garbage token", "Bearer not.a.token"),
	)
})
