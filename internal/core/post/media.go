package post

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	MediaImage = "image"
	MediaVideo = "video"

	MaxMediaPerPost   = 10
	MaxMediaURLLength = 500
)

// Media is an ordered attachment of a post. Table: post_media.
type Media struct {
	ID        uuid.UUID `gorm:"primaryKey;type:char(36)"`
	PostID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:RESTRICT"`
	Type      string    `gorm:"type:varchar(10);not null"`
	URL       string    `gorm:"type:varchar(500);not null"`
	PublicID  string    `gorm:"type:varchar(255)"`
	Order     int       `gorm:"column:sort_order;not null"`
	Width     *int
	Height    *int
	Duration  *int
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Media) TableName() string { return "post_media" }
