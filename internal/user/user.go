package user

import (
	"slices"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/user"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	Permissions  []string  `json:"permissions"`
	Branches     []string  `json:"branches"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) HasRole(name string) bool {
	return slices.Contains(u.Roles, name)
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Roles:       nonNil(u.Roles),
		Permissions: nonNil(u.Permissions),
		Branches:    nonNil(u.Branches),
		IsActive:    u.IsActive,
	}
}

// NormalizeEmail is applied before every credential store read and write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone trims the number; blank input means no phone at all, which never
// collides with another user.
func NormalizePhone(phone string) *string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// UniqueOrdered drops blanks and repeats, keeping first occurrence order.
func UniqueOrdered(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Roles:        nonNil(u.Roles),
		Permissions:  nonNil(u.Permissions),
		Branches:     nonNil(u.Branches),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Roles:        nonNil(u.Roles),
		Permissions:  nonNil(u.Permissions),
		Branches:     nonNil(u.Branches),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
