package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/transport"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(lg *slog.Logger, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("registration failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// AuthMiddleware verifies the bearer token and puts the caller into the request context.
// Every failure gets the same 401 body.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Warn("auth middleware: missing authorization token")
			h.HandleServiceError(w, internal.ErrUnauthenticated)
			return
		}

		tokenPrefix := token
		if len(token) > 12 {
			tokenPrefix = token[:12]
		}

		claims, err := h.Service.VerifyToken(token)
		if err != nil {
			h.Logger.Warn("token validation failed", "error", err, "token_prefix", tokenPrefix)
			h.HandleServiceError(w, internal.ErrUnauthenticated)
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), claims.Principal())
		ctx = logger.WithPrincipal(ctx, claims.UserID, claims.Roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
