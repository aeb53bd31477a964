package user

import "time"

// User is the persisted credential row. Roles, Permissions and Branches are json columns.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	Phone        *string   `gorm:"column:phone;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Roles        []string  `gorm:"column:roles;serializer:json;type:jsonb;not null"`
	Permissions  []string  `gorm:"column:permissions;serializer:json;type:jsonb;not null"`
	Branches     []string  `gorm:"column:branches;serializer:json;type:jsonb;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}
