package user

import (
	"time"

	"github.com/gofrs/uuid"
)

// PasswordResetCode stores the bcrypt hash of a short code mailed to the user.
type PasswordResetCode struct {
	ID         uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	UserID     uuid.UUID  `gorm:"type:char(36);not null;index"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	CodeHash   string     `gorm:"type:varchar(255);not null"`
	ExpiresAt  time.Time  `gorm:"not null"`
	Attempts   int        `gorm:"not null;default:0"`
	LastSentAt *time.Time
	IsUsed     bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (c *PasswordResetCode) Active(now time.Time) bool {
	return !c.IsUsed && now.Before(c.ExpiresAt)
}
