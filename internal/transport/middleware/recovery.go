package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/hospital-management/internal"
)

// RecoveryMiddleware provides panic recovery with detailed logging. The panic value is only
// echoed to the client when exposeDetail is set, which is never the case in production.
func RecoveryMiddleware(logger *slog.Logger, exposeDetail bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.ErrorContext(r.Context(), "panic recovered",
						"error", rec,
						"method", r.Method,
						"url", r.URL.Path,
						"stack", string(debug.Stack()))

					body := internal.Response{Error: &internal.AppError{
						Type:    internal.ErrorTypeInternal,
						Code:    internal.ErrCodeInternal,
						Message: internal.GenericInternalMessage,
					}}
					if exposeDetail {
						body.Error.Details = map[string]string{"panic": fmt.Sprint(rec)}
					}

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(body)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
