package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRoleUpserted       = "role.upserted"
	EventTypeUserRegistered     = "user.registered"
	EventTypeUserRolesAssigned  = "user.roles_assigned"
	EventTypeUserBranchAssigned = "user.branches_assigned"
)

type RoleUpsertedEvent struct {
	BaseEvent
	RoleName    string   `json:"role_name"`
	Scope       string   `json:"scope"`
	Permissions []string `json:"permissions"`
}

func NewRoleUpsertedEvent(roleName, scope string, permissions []string) *RoleUpsertedEvent {
	return &RoleUpsertedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRoleUpserted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"role_name":   roleName,
				"scope":       scope,
				"permissions": permissions,
			},
		},
		RoleName:    roleName,
		Scope:       scope,
		Permissions: permissions,
	}
}

type UserRegisteredEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserRegisteredEvent(userID int64, email string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
			},
		},
		UserID: userID,
		Email:  email,
	}
}

type UserRolesAssignedEvent struct {
	BaseEvent
	UserID      int64    `json:"user_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func NewUserRolesAssignedEvent(userID int64, roles, permissions []string) *UserRolesAssignedEvent {
	return &UserRolesAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRolesAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":     userID,
				"roles":       roles,
				"permissions": permissions,
			},
		},
		UserID:      userID,
		Roles:       roles,
		Permissions: permissions,
	}
}

type UserBranchesAssignedEvent struct {
	BaseEvent
	UserID   int64    `json:"user_id"`
	Branches []string `json:"branches"`
}

func NewUserBranchesAssignedEvent(userID int64, branches []string) *UserBranchesAssignedEvent {
	return &UserBranchesAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserBranchAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"branches": branches,
			},
		},
		UserID:   userID,
		Branches: branches,
	}
}
