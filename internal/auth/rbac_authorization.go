package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/core/metrics"
	"github.com/frahmantamala/hospital-management/internal/permission"
	"github.com/frahmantamala/hospital-management/internal/role"
	"github.com/frahmantamala/hospital-management/internal/transport"
)

type Decision string

const (
	DecisionAllow           Decision = "allow"
	DecisionDeny            Decision = "deny"
	DecisionUnauthenticated Decision = "unauthenticated"
)

// PermissionResolver returns the resolved permission set of a role.
type PermissionResolver interface {
	Resolve(ctx context.Context, roleName string) (permission.Entry, error)
}

// RBACAuthorization decides whether the caller in the request context may use a permission.
type RBACAuthorization struct {
	*transport.BaseHandler
	resolver PermissionResolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewRBACAuthorization(resolver PermissionResolver, m *metrics.Metrics, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		resolver:    resolver,
		metrics:     m,
		logger:      logger,
	}
}

// Decide evaluates required against the principal and branch in ctx:
//   - no principal is UNAUTHENTICATED
//   - a SUPER_ADMIN holder is allowed everything, with or without a branch
//   - a GLOBAL role granting the key allows regardless of branch
//   - a BRANCH role granting the key allows only when the request branch is one of the caller's
//   - anything else is denied, including a BRANCH grant with no branch in the request
//
// An error means a role could not be resolved and no decision was reached.
func (ra *RBACAuthorization) Decide(ctx context.Context, required string) (Decision, error) {
	principal, ok := internal.PrincipalFromContext(ctx)
	if !ok {
		return DecisionUnauthenticated, nil
	}

	if principal.HasRole(role.SuperAdmin) {
		return DecisionAllow, nil
	}

	branchID := internal.BranchIDFromContext(ctx)
	for _, roleName := range principal.Roles {
		entry, err := ra.resolver.Resolve(ctx, roleName)
		if err != nil {
			return DecisionDeny, err
		}
		if !entry.Has(required) {
			continue
		}
		if entry.Scope == role.ScopeGlobal {
			return DecisionAllow, nil
		}
		if principal.HasBranch(branchID) {
			return DecisionAllow, nil
		}
	}

	return DecisionDeny, nil
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, required string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision, err := ra.Decide(r.Context(), required)
		if err != nil {
			ra.logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "required_permission", required)
			ra.HandleServiceError(w, err)
			return
		}

		ra.metrics.ObserveDecision(string(decision), required)

		switch decision {
		case DecisionUnauthenticated:
			ra.logger.WarnContext(r.Context(), "authorization check failed: no principal in context", "required_permission", required)
			ra.HandleServiceError(w, internal.ErrUnauthenticated)
			return
		case DecisionDeny:
			principal, _ := internal.PrincipalFromContext(r.Context())
			ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", principal.UserID,
				"roles", principal.Roles,
				"branch_id", internal.BranchIDFromContext(r.Context()),
				"required_permission", required)
			ra.HandleServiceError(w, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Middleware guards every route below it with required.
func (ra *RBACAuthorization) Middleware(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, required)
	}
}
