package profile

import (
	"strings"
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

// Profile shares its primary key with the owning user.
type Profile struct {
	UserID          uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	User            *user.User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	FirstName       string     `gorm:"type:varchar(50);not null"`
	LastName        string     `gorm:"type:varchar(50);not null"`
	Headline        string     `gorm:"type:varchar(120)"`
	About           string     `gorm:"type:text"`
	Location        string     `gorm:"type:varchar(100)"`
	ProfilePhotoURL string     `gorm:"type:varchar(300)"`
	CoverPhotoURL   string     `gorm:"type:varchar(300)"`
	IsPublic        bool       `gorm:"not null"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
