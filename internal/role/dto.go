package role

import (
	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/core/common/validation"
)

// UpsertRoleDTO is the body of PUT /roles. A nil Scope keeps the stored scope.
type UpsertRoleDTO struct {
	Name        string   `json:"name"`
	Scope       *string  `json:"scope,omitempty"`
	Permissions []string `json:"permissions"`
}

func (d UpsertRoleDTO) Validate() error {
	if err := validation.ValidateRoleName(d.Name); err != nil {
		return err
	}
	if d.Scope != nil {
		if _, err := ParseScope(*d.Scope); err != nil {
			return err
		}
	}
	if d.Permissions == nil {
		return internal.NewValidationFieldError("permissions", "permissions is required", internal.ErrCodeValidationFailed)
	}
	if err := validation.ValidatePermissionKeys(d.Permissions); err != nil {
		return err
	}
	return nil
}

type RoleResponse struct {
	Name        string   `json:"name"`
	Scope       string   `json:"scope"`
	Permissions []string `json:"permissions"`
}

type RolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}
