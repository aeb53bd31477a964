package auth

import (
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("JWTTokenGenerator", func() {
	var (
		gen   *JWTTokenGenerator
		now   time.Time
		owner *user.User
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		gen = NewJWTTokenGenerator(testSecret, "hms-test", 15*time.Minute).
			WithClock(func() time.Time { return now })
		owner = &user.User{
			ID:       42,
			Email:    "Doctor@Example.com",
			Roles:    []string{"DOCTOR"},
			Branches: []string{"B1"},
		}
	})

	ginkgo.It("should round-trip the identity claims", func() {
		issued, err := gen.Issue(owner)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(issued.ExpiresAt).To(gomega.Equal(now.Add(15 * time.Minute)))

		claims, err := gen.Verify(issued.Token)

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal(int64(42)))
		gomega.Expect(claims.Subject).To(gomega.Equal("42"))
		gomega.Expect(claims.Email).To(gomega.Equal("doctor@example.com"))
		gomega.Expect(claims.Roles).To(gomega.Equal([]string{"DOCTOR"}))
		gomega.Expect(claims.Branches).To(gomega.Equal([]string{"B1"}))
		gomega.Expect(claims.ID).ToNot(gomega.BeEmpty())
	})

	ginkgo.It("should give every token its own id", func() {
		first, _ := gen.Issue(owner)
		second, _ := gen.Issue(owner)

		gomega.Expect(first.Token).ToNot(gomega.Equal(second.Token))
	})

	ginkgo.It("should reject a token once the clock passes its expiry", func() {
		issued, err := gen.Issue(owner)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		now = now.Add(16 * time.Minute)
		_, err = gen.Verify(issued.Token)

		gomega.Expect(err).To(gomega.MatchError(ErrTokenExpired))
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("should reject a token signed with another secret", func() {
		other := NewJWTTokenGenerator("another-secret-that-is-32-characters-long", "hms-test", time.Hour).
			WithClock(func() time.Time { return now })
		issued, _ := other.Issue(owner)

		_, err := gen.Verify(issued.Token)

		gomega.Expect(err).To(gomega.MatchError(ErrTokenSignature))
	})

	ginkgo.It("should reject a tampered payload", func() {
		issued, _ := gen.Issue(owner)
		forged, _ := NewJWTTokenGenerator(testSecret, "hms-test", time.Hour).
			WithClock(func() time.Time { return now }).
			Issue(&user.User{ID: 1, Email: "root@example.com", Roles: []string{"SUPER_ADMIN"}})

		parts := strings.Split(issued.Token, ".")
		forgedParts := strings.Split(forged.Token, ".")
		tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

		_, err := gen.Verify(tampered)

		gomega.Expect(err).To(gomega.MatchError(ErrTokenSignature))
	})

	ginkgo.It("should reject a token from another issuer", func() {
		other := NewJWTTokenGenerator(testSecret, "someone-else", time.Hour).
			WithClock(func() time.Time { return now })
		issued, _ := other.Issue(owner)

		_, err := gen.Verify(issued.Token)

		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("should refuse the none algorithm", func() {
		claims := &Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "hms-test",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = gen.Verify(unsigned)

		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.DescribeTable("should report garbage as malformed",
		func(token string) {
			_, err := gen.Verify(token)

			gomega.Expect(err).To(gomega.MatchError(ErrTokenMalformed))
		},
		ginkgo.Entry("empty", ""),
		ginkgo.Entry("not a jwt", "definitely-not-a-token"),
		ginkgo.Entry("bad segments", "a.b.c"),
	)
})
