package post

import (
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

const (
	VisibilityPublic      = "public"
	VisibilityConnections = "connections"
	VisibilityPrivate     = "private"

	MaxTextLength = 3000
)

type Post struct {
	ID         uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	AuthorID   uuid.UUID  `gorm:"type:char(36);not null;index"`
	Author     *user.User `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
	Text       string     `gorm:"type:text"`
	Visibility string     `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityConnections, VisibilityPrivate:
		return true
	}
	return false
}
