package role

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/hospital-management/internal"
)

type RegistryAPI interface {
	Upsert(ctx context.Context, name string, scope *Scope, permissions []string) (*Role, error)
	Get(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
}

type Service struct {
	registry RegistryAPI
	logger   *slog.Logger
}

func NewService(registry RegistryAPI, logger *slog.Logger) *Service {
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.registry.List(ctx)
}

// UpsertRole applies caller privileges before touching the registry.
// Only a super admin may write SUPER_ADMIN or change a role's scope.
func (s *Service) UpsertRole(ctx context.Context, dto UpsertRoleDTO, callerIsSuperAdmin bool) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if !callerIsSuperAdmin && dto.Name == SuperAdmin {
		s.logger.Warn("non super admin attempted to modify super admin role", "role", dto.Name)
		return nil, internal.ErrForbidden
	}

	var scope *Scope
	if dto.Scope != nil {
		if !callerIsSuperAdmin {
			s.logger.Info("ignoring scope from non super admin caller", "role", dto.Name, "scope", *dto.Scope)
		} else {
			parsed, err := ParseScope(*dto.Scope)
			if err != nil {
				return nil, err
			}
			scope = &parsed
		}
	}

	return s.registry.Upsert(ctx, dto.Name, scope, dto.Permissions)
}

// ResolveRoles loads each named role and fails on the first unknown name.
func (s *Service) ResolveRoles(ctx context.Context, names []string) ([]*Role, error) {
	roles := make([]*Role, 0, len(names))
	for _, name := range names {
		r, err := s.registry.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, internal.NewValidationFieldError("roles", "unknown role "+name, internal.ErrCodeUnknownRole)
		}
		roles = append(roles, r)
	}
	return roles, nil
}
