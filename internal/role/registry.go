package role

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	roleDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/role"
	"github.com/frahmantamala/hospital-management/internal/core/events"
)

type RepositoryAPI interface {
	// Upsert inserts or updates by name. A nil scope leaves an existing row's scope alone
	// and falls back to the column default for new rows.
	Upsert(ctx context.Context, name string, scope *string, permissions []string) (*roleDatamodel.Role, error)
	// GetByName returns nil, nil when the role does not exist.
	GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	List(ctx context.Context) ([]*roleDatamodel.Role, error)
}

// Invalidator drops whatever a reader has memoized for a role.
type Invalidator interface {
	Invalidate(roleName string)
}

// Registry is the source of truth for role scope and permission sets.
// Every write is followed by an invalidation of the role, whether or not the write succeeded.
type Registry struct {
	repo    RepositoryAPI
	timeout time.Duration
	bus     *events.EventBus
	logger  *slog.Logger

	mu          sync.RWMutex
	invalidator Invalidator
}

func NewRegistry(repo RepositoryAPI, timeout time.Duration, bus *events.EventBus, logger *slog.Logger) *Registry {
	return &Registry{
		repo:    repo,
		timeout: timeout,
		bus:     bus,
		logger:  logger,
	}
}

// SetInvalidator wires the permission cache after both sides are constructed.
func (r *Registry) SetInvalidator(inv Invalidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidator = inv
}

func (r *Registry) invalidate(name string) {
	r.mu.RLock()
	inv := r.invalidator
	r.mu.RUnlock()
	if inv != nil {
		inv.Invalidate(name)
	}
}

func (r *Registry) Upsert(ctx context.Context, name string, scope *Scope, permissions []string) (*Role, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	var scopeValue *string
	if scope != nil {
		s := scope.String()
		scopeValue = &s
	}
	keys := NormalizePermissions(permissions)

	row, err := r.repo.Upsert(ctx, name, scopeValue, keys)
	// last writer wins on the store; readers must never see the pre-write entry again
	r.invalidate(name)
	if err != nil {
		appErr := internal.WrapStorageError(ctx, "role upsert", err)
		r.logger.Error("role upsert failed", "role", name, "error_type", appErr.Type, "error", err)
		return nil, appErr
	}

	updated := FromDataModel(row)
	r.logger.Info("role upserted", "role", updated.Name, "scope", updated.Scope, "permissions", len(updated.Permissions))

	if r.bus != nil {
		if err := r.bus.Publish(ctx, events.NewRoleUpsertedEvent(updated.Name, updated.Scope.String(), updated.Permissions)); err != nil {
			r.logger.Warn("failed to publish role event", "role", updated.Name, "error", err)
		}
	}

	return updated, nil
}

// Get returns nil, nil for an unknown role.
func (r *Registry) Get(ctx context.Context, name string) (*Role, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	row, err := r.repo.GetByName(ctx, name)
	if err != nil {
		appErr := internal.WrapStorageError(ctx, "role lookup", err)
		r.logger.Error("role lookup failed", "role", name, "error_type", appErr.Type, "error", err)
		return nil, appErr
	}
	if row == nil {
		return nil, nil
	}
	return FromDataModel(row), nil
}

func (r *Registry) List(ctx context.Context) ([]*Role, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.repo.List(ctx)
	if err != nil {
		appErr := internal.WrapStorageError(ctx, "role list", err)
		r.logger.Error("role list failed", "error_type", appErr.Type, "error", err)
		return nil, appErr
	}

	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromDataModel(row))
	}
	return roles, nil
}

// Seed writes each role with its scope and permissions, overwriting whatever is stored.
func (r *Registry) Seed(ctx context.Context, roles []Role) error {
	for _, def := range roles {
		scope := def.Scope
		if _, err := r.Upsert(ctx, def.Name, &scope, def.Permissions); err != nil {
			return err
		}
	}
	r.logger.Info("roles seeded", "count", len(roles))
	return nil
}
