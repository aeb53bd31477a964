package role

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	roleDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/role"
)

type Scope string

const (
	// ScopeGlobal permissions apply regardless of the request branch.
	ScopeGlobal Scope = "GLOBAL"
	// ScopeBranch permissions require a branch context the caller belongs to.
	ScopeBranch Scope = "BRANCH"
)

func (s Scope) String() string {
	return string(s)
}

func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeBranch
}

// ParseScope accepts GLOBAL or BRANCH in any case.
func ParseScope(value string) (Scope, error) {
	scope := Scope(strings.ToUpper(strings.TrimSpace(value)))
	if !scope.Valid() {
		return "", internal.NewValidationFieldError("scope",
			fmt.Sprintf("scope must be one of %s, %s", ScopeGlobal, ScopeBranch),
			internal.ErrCodeInvalidScope)
	}
	return scope, nil
}

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Scope       Scope     `json:"scope"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Role) ToResponse() RoleResponse {
	permissions := r.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return RoleResponse{
		Name:        r.Name,
		Scope:       string(r.Scope),
		Permissions: permissions,
	}
}

// NormalizePermissions returns the sorted, de-duplicated key set.
func NormalizePermissions(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key != "" {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// UnionPermissions merges the permission sets of roles into one sorted set.
func UnionPermissions(roles []*Role) []string {
	var all []string
	for _, r := range roles {
		all = append(all, r.Permissions...)
	}
	return NormalizePermissions(all)
}

func ToDataModel(r *Role) *roleDatamodel.Role {
	return &roleDatamodel.Role{
		ID:          r.ID,
		Name:        r.Name,
		Scope:       string(r.Scope),
		Permissions: r.Permissions,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModel(r *roleDatamodel.Role) *Role {
	scope := Scope(r.Scope)
	if !scope.Valid() {
		scope = ScopeBranch
	}
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Scope:       scope,
		Permissions: NormalizePermissions(r.Permissions),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
