package domain

import "time"

const (
	RoleAdmin     = "admin"
	RoleCaregiver = "caregiver"
	RoleFamily    = "family"
	RoleUser      = "user"
)

// User users 表
type User struct {
	UserID      string    `json:"user_id" db:"user_id"`
	UserName    string    `json:"user_name" db:"user_name"`
	Email       *string   `json:"email" db:"email"`
	PhoneNumber *string   `json:"phone_number" db:"phone_number"`
	UserRole    string    `json:"user_role" db:"user_role"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserCreateInput body of POST /users
type UserCreateInput struct {
	UserName    string  `json:"user_name" validate:"required,nonblank,max=100"`
	Email       *string `json:"email" validate:"omitempty,careemail,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,krphone"`
	UserRole    string  `json:"user_role" validate:"omitempty,oneof=admin caregiver user family"`
}

// UserUpdateInput body of PUT /users/{id}; role changes go through the role endpoint
type UserUpdateInput struct {
	UserName    *string `json:"user_name" db:"user_name" validate:"omitempty,nonblank,max=100"`
	Email       *string `json:"email" db:"email" validate:"omitempty,careemail,max=255"`
	PhoneNumber *string `json:"phone_number" db:"phone_number" validate:"omitempty,krphone"`
}

// RoleChangeInput body of PUT /users/{id}/role
type RoleChangeInput struct {
	UserRole string `json:"user_role" validate:"required,oneof=admin caregiver user family"`
}

var roleLevels = map[string]int{
	RoleAdmin:     4,
	RoleCaregiver: 3,
	RoleFamily:    2,
	RoleUser:      1,
}

// RoleLevel 0 for unknown roles
func RoleLevel(role string) int { return roleLevels[role] }

// IsValidRole reports whether role is one of the four known roles
func IsValidRole(role string) bool { return roleLevels[role] > 0 }

// CanManage admin manages every role, caregiver manages family and user,
// family manages user, user manages nobody.
func CanManage(actorRole, targetRole string) bool {
	actor, target := RoleLevel(actorRole), RoleLevel(targetRole)
	if actor == 0 || target == 0 {
		return false
	}
	if actorRole == RoleAdmin {
		return true
	}
	return actor > target
}
