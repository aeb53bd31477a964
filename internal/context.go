package internal

import (
	"context"
	"slices"
	"time"
)

type ctxKey string

const (
	ContextPrincipalKey ctxKey = "principal"
	ContextBranchKey    ctxKey = "branchID"
)

// Principal is the authenticated caller, built from verified token claims.
type Principal struct {
	UserID   int64
	Email    string
	Roles    []string
	Branches []string
}

func (p *Principal) HasRole(name string) bool {
	return p != nil && slices.Contains(p.Roles, name)
}

func (p *Principal) HasBranch(branchID string) bool {
	return p != nil && branchID != "" && slices.Contains(p.Branches, branchID)
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok && p != nil
}

// ContextWithBranchID attaches the request's branch. An empty id leaves the context unscoped.
func ContextWithBranchID(ctx context.Context, branchID string) context.Context {
	if branchID == "" {
		return ctx
	}
	return context.WithValue(ctx, ContextBranchKey, branchID)
}

// BranchIDFromContext returns the request branch, or "" when the request is unscoped.
func BranchIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if branchID, ok := ctx.Value(ContextBranchKey).(string); ok {
		return branchID
	}
	return ""
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
