package user

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	userDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hospital-management/internal/core/events"
	"github.com/frahmantamala/hospital-management/internal/role"
)

// RepositoryAPI is the credential store. Emails reaching it are already normalized.
type RepositoryAPI interface {
	// FindByNormalizedEmail returns nil, nil when no user has the address.
	FindByNormalizedEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	// Create fails with ErrDuplicateEmail or ErrDuplicatePhone on collisions.
	Create(ctx context.Context, u *userDatamodel.User) error
	AssignRoles(ctx context.Context, id int64, roleNames []string) error
	ReplacePermissions(ctx context.Context, id int64, keys []string) error
	AssignBranches(ctx context.Context, id int64, branches []string) error
}

// RoleResolver looks up role definitions by name, failing on unknown names.
type RoleResolver interface {
	ResolveRoles(ctx context.Context, names []string) ([]*role.Role, error)
}

type Service struct {
	repo    RepositoryAPI
	roles   RoleResolver
	bus     *events.EventBus
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleResolver, bus *events.EventBus, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		roles:   roles,
		bus:     bus,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.WrapStorageError(ctx, "user lookup", err)
	}
	return FromDataModel(row), nil
}

// FindByEmail normalizes email and returns nil, nil when nobody owns it.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := s.repo.FindByNormalizedEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, internal.WrapStorageError(ctx, "user lookup", err)
	}
	if row == nil {
		return nil, nil
	}
	return FromDataModel(row), nil
}

// Create stores u with a normalized email and phone and sets its id.
func (s *Service) Create(ctx context.Context, u *User) error {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	u.Email = NormalizeEmail(u.Email)
	if u.Phone != nil {
		u.Phone = NormalizePhone(*u.Phone)
	}

	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		appErr := internal.WrapStorageError(ctx, "user create", err)
		if appErr.IsServerError() {
			s.logger.Error("user create failed", "error", err)
		}
		return appErr
	}

	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	s.publish(ctx, events.NewUserRegisteredEvent(u.ID, u.Email))
	return nil
}

// CreateWithRoles stores u holding roleNames and their permission union in a single
// insert. Unknown roles fail before anything is written.
func (s *Service) CreateWithRoles(ctx context.Context, u *User, roleNames []string) error {
	names := UniqueOrdered(roleNames)

	roles, err := s.roles.ResolveRoles(ctx, names)
	if err != nil {
		return err
	}
	u.Roles = names
	u.Permissions = role.UnionPermissions(roles)

	return s.Create(ctx, u)
}

// AssignRoles replaces the user's roles and then rematerializes the permission set
// as the sorted union of those roles' permissions. Only a SUPER_ADMIN caller may grant
// SUPER_ADMIN or take it away.
func (s *Service) AssignRoles(ctx context.Context, userID int64, roleNames []string, callerIsSuperAdmin bool) (*User, error) {
	names := UniqueOrdered(roleNames)

	if !callerIsSuperAdmin {
		if slices.Contains(names, role.SuperAdmin) {
			return nil, internal.ErrForbidden
		}
		current, err := s.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.HasRole(role.SuperAdmin) {
			return nil, internal.ErrForbidden
		}
	}

	roles, err := s.roles.ResolveRoles(ctx, names)
	if err != nil {
		return nil, err
	}
	permissions := role.UnionPermissions(roles)

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.AssignRoles(ctx, userID, names); err != nil {
		return nil, internal.WrapStorageError(ctx, "role assignment", err)
	}
	if err := s.repo.ReplacePermissions(ctx, userID, permissions); err != nil {
		s.logger.Error("roles assigned but permission materialization failed", "user_id", userID, "error", err)
		return nil, internal.WrapStorageError(ctx, "permission materialization", err)
	}

	s.logger.Info("roles assigned", "user_id", userID, "roles", names, "permissions", len(permissions))
	s.publish(ctx, events.NewUserRolesAssignedEvent(userID, names, permissions))

	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.WrapStorageError(ctx, "user lookup", err)
	}
	return FromDataModel(row), nil
}

// RecomputePermissions rebuilds the materialized permission set from the user's current roles.
func (s *Service) RecomputePermissions(ctx context.Context, userID int64) ([]string, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := s.roles.ResolveRoles(ctx, u.Roles)
	if err != nil {
		return nil, err
	}
	permissions := role.UnionPermissions(roles)

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.ReplacePermissions(ctx, userID, permissions); err != nil {
		return nil, internal.WrapStorageError(ctx, "permission materialization", err)
	}
	return permissions, nil
}

func (s *Service) AssignBranches(ctx context.Context, userID int64, branches []string) (*User, error) {
	ids := UniqueOrdered(branches)

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.AssignBranches(ctx, userID, ids); err != nil {
		return nil, internal.WrapStorageError(ctx, "branch assignment", err)
	}

	s.logger.Info("branches assigned", "user_id", userID, "branches", ids)
	s.publish(ctx, events.NewUserBranchesAssignedEvent(userID, ids))

	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.WrapStorageError(ctx, "user lookup", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
