package auth

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/role"
	"github.com/frahmantamala/hospital-management/internal/user"
)

// UserStore is the part of the user service that authentication needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	// CreateWithRoles stores u together with roleNames, or nothing at all.
	CreateWithRoles(ctx context.Context, u *user.User, roleNames []string) error
}

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*AuthResult, error)
	Login(ctx context.Context, dto LoginDTO) (*AuthResult, error)
	VerifyToken(tokenString string) (*Claims, error)
}

// Service is the main auth service with dependencies
type Service struct {
	users        UserStore
	hasher       PasswordHasher
	tokens       TokenGenerator
	defaultRoles []string
	logger       *slog.Logger

	// compared against when the email is unknown so the response time does not
	// reveal whether an account exists
	dummyHash string
}

// NewService creates a new auth service. defaultRoles are granted to every new registration
// and may not include SUPER_ADMIN.
func NewService(users UserStore, hasher PasswordHasher, tokens TokenGenerator, defaultRoles []string, logger *slog.Logger) (*Service, error) {
	if slices.Contains(defaultRoles, role.SuperAdmin) {
		return nil, fmt.Errorf("default roles must not include %s", role.SuperAdmin)
	}

	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare fallback hash: %w", err)
	}

	return &Service{
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		defaultRoles: defaultRoles,
		logger:       logger,
		dummyHash:    dummy,
	}, nil
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &user.User{
		Email:        dto.Email,
		Name:         dto.Name,
		Phone:        user.NormalizePhone(dto.Phone),
		PasswordHash: hash,
		Branches:     []string{},
		IsActive:     true,
	}
	if err := s.users.CreateWithRoles(ctx, u, s.defaultRoles); err != nil {
		if appErr, ok := internal.IsAppError(err); !ok || appErr.IsServerError() {
			s.logger.Error("registration failed", "roles", s.defaultRoles, "error", err)
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return s.issue(u)
}

// Login reports unknown emails, wrong passwords and inactive accounts with the same error,
// and runs a bcrypt comparison on every path.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*AuthResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}

	if u == nil {
		_, _ = s.hasher.Verify(dto.Password, s.dummyHash)
		s.logger.Info("login failed", "reason", "unknown_email")
		return nil, internal.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(dto.Password, u.PasswordHash)
	if err != nil {
		return nil, internal.NewInternalError("failed to verify password", err)
	}
	if !ok {
		s.logger.Info("login failed", "reason", "wrong_password", "user_id", u.ID)
		return nil, internal.ErrInvalidCredentials
	}
	if !u.IsActiveUser() {
		s.logger.Info("login failed", "reason", "inactive", "user_id", u.ID)
		return nil, internal.ErrInvalidCredentials
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return s.issue(u)
}

func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	return s.tokens.Verify(tokenString)
}

func (s *Service) issue(u *user.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	return &AuthResult{
		User:      u.ToResponse(),
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}, nil
}
