package fanoutqueue

import (
	"time"

	"linkup/internal/core/post"
	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// FanoutQueue is one post waiting to be pushed into its author's followers' timelines.
type FanoutQueue struct {
	ID          uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	PostID      uuid.UUID  `gorm:"type:char(36);not null;index"`
	Post        *post.Post `gorm:"foreignKey:PostID;constraint:OnDelete:RESTRICT"`
	UserID      uuid.UUID  `gorm:"type:char(36);not null"`
	User        *user.User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Status      string     `gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	ProcessedAt *time.Time
}
