package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/role"
	"github.com/frahmantamala/hospital-management/internal/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Upsert(ctx context.Context, name string, scope *string, permissions []string) (*roleDatamodel.Role, error) {
	if permissions == nil {
		permissions = []string{}
	}

	row := &roleDatamodel.Role{
		Name:        name,
		Scope:       string(role.ScopeBranch),
		Permissions: permissions,
	}
	updateColumns := []string{"permissions", "updated_at"}
	if scope != nil {
		row.Scope = *scope
		updateColumns = append(updateColumns, "scope")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	// re-read so an untouched scope reflects the stored value
	return r.GetByName(ctx, name)
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*roleDatamodel.Role, error) {
	var rows []*roleDatamodel.Role
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}
