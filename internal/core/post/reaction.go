package post

import (
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

const (
	ReactionLike       = "like"
	ReactionCelebrate  = "celebrate"
	ReactionSupport    = "support"
	ReactionLove       = "love"
	ReactionInsightful = "insightful"
	ReactionCurious    = "curious"
)

// Reaction is unique per (post, user).
type Reaction struct {
	ID        uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	PostID    uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_reaction_post_user"`
	Post      *Post      `gorm:"foreignKey:PostID;constraint:OnDelete:RESTRICT"`
	UserID    uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_reaction_post_user;index"`
	User      *user.User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Type      string     `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func ValidReaction(t string) bool {
	switch t {
	case ReactionLike, ReactionCelebrate, ReactionSupport, ReactionLove, ReactionInsightful, ReactionCurious:
		return true
	}
	return false
}
