package auth

import (
	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/core/common/validation"
	"github.com/frahmantamala/hospital-management/internal/user"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate only checks presence. Anything else is reported as invalid credentials.
func (d LoginDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("email", user.NormalizeEmail(d.Email)).Required()
	validator.Field("password", d.Password).Required()
	if err := validator.Validate(); err != nil {
		return err
	}
	return nil
}

type RegisterDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

func (d RegisterDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", d.Name).
		Required().
		MaxLength(120, internal.ErrCodeValidationFailed)
	validator.Field("phone", d.Phone).
		MaxLength(32, internal.ErrCodeValidationFailed)
	if err := validator.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateEmail(user.NormalizeEmail(d.Email)); err != nil {
		return err
	}
	if err := validation.ValidatePassword(d.Password); err != nil {
		return err
	}
	return nil
}
