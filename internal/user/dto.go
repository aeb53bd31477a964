package user

import (
	"fmt"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/core/common/validation"
)

type UserResponse struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Phone       *string  `json:"phone,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Branches    []string `json:"branches"`
	IsActive    bool     `json:"is_active"`
}

type AssignRolesDTO struct {
	Roles []string `json:"roles"`
}

func (d AssignRolesDTO) Validate() error {
	if d.Roles == nil {
		return internal.NewValidationFieldError("roles", "roles is required", internal.ErrCodeValidationFailed)
	}
	validator := validation.NewValidator()
	for i, name := range d.Roles {
		validator.Field(fmt.Sprintf("roles[%d]", i), name).
			Required().
			MaxLength(validation.RoleNameMaxLength, internal.ErrCodeInvalidRoleName)
	}
	if err := validator.Validate(); err != nil {
		return err
	}
	return nil
}

type AssignBranchesDTO struct {
	Branches []string `json:"branches"`
}

func (d AssignBranchesDTO) Validate() error {
	if d.Branches == nil {
		return internal.NewValidationFieldError("branches", "branches is required", internal.ErrCodeValidationFailed)
	}
	validator := validation.NewValidator()
	for i, branch := range d.Branches {
		validator.Field(fmt.Sprintf("branches[%d]", i), branch).
			Required().
			MaxLength(64, internal.ErrCodeValidationFailed)
	}
	if err := validator.Validate(); err != nil {
		return err
	}
	return nil
}
