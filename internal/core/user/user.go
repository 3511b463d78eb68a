package user

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Roles lists every assignable role.
var Roles = []string{RoleUser, RoleAdmin, RoleSuperAdmin}

type User struct {
	ID           uuid.UUID `gorm:"primaryKey;type:char(36)"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user may reach the admin surface.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}
