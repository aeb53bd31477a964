package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	userDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hospital-management/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByNormalizedEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) Create(ctx context.Context, row *userDatamodel.User) error {
	db := r.db.WithContext(ctx)

	if err := r.checkUnique(db, row); err != nil {
		return err
	}

	if err := db.Create(row).Error; err != nil {
		// lost a race with a concurrent insert
		if dup := classifyUniqueViolation(err); dup != nil {
			return dup
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if dup := r.checkUnique(db, row); dup != nil {
				return dup
			}
		}
		return err
	}
	return nil
}

func (r *UserRepository) checkUnique(db *gorm.DB, row *userDatamodel.User) error {
	var count int64
	if err := db.Model(&userDatamodel.User{}).Where("email = ?", row.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrDuplicateEmail
	}

	if row.Phone == nil {
		return nil
	}
	if err := db.Model(&userDatamodel.User{}).Where("phone = ?", *row.Phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrDuplicatePhone
	}
	return nil
}

// classifyUniqueViolation recognizes postgres and sqlite unique violations by column.
func classifyUniqueViolation(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return nil
	}
	switch {
	case strings.Contains(msg, "email"):
		return internal.ErrDuplicateEmail
	case strings.Contains(msg, "phone"):
		return internal.ErrDuplicatePhone
	}
	return nil
}

func (r *UserRepository) AssignRoles(ctx context.Context, id int64, roleNames []string) error {
	return r.updateColumn(ctx, id, "roles", &userDatamodel.User{Roles: nonNil(roleNames)})
}

func (r *UserRepository) ReplacePermissions(ctx context.Context, id int64, keys []string) error {
	return r.updateColumn(ctx, id, "permissions", &userDatamodel.User{Permissions: nonNil(keys)})
}

func (r *UserRepository) AssignBranches(ctx context.Context, id int64, branches []string) error {
	return r.updateColumn(ctx, id, "branches", &userDatamodel.User{Branches: nonNil(branches)})
}

// updateColumn writes one json column through the struct so the serializer applies.
func (r *UserRepository) updateColumn(ctx context.Context, id int64, column string, values *userDatamodel.User) error {
	values.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{ID: id}).
		Select(column, "updated_at").
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
