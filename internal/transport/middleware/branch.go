package middleware

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

// DefaultBranchHeader is used when no header name is configured.
const DefaultBranchHeader = "X-Branch-Id"

// ResolveBranch returns the trimmed branch id carried in header, or "" when absent.
// Only the first value of a repeated header is considered.
func ResolveBranch(h http.Header, header string) string {
	if header == "" {
		header = DefaultBranchHeader
	}
	return strings.TrimSpace(h.Get(header))
}

// BranchContext puts the request branch into the context. It never rejects a request;
// whether a missing branch matters is decided per permission.
func BranchContext(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			branchID := ResolveBranch(r.Header, header)
			if branchID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := internal.ContextWithBranchID(r.Context(), branchID)
			ctx = logger.With(ctx, "branch_id", branchID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
