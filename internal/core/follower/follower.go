package follower

import (
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

// Follower is the directed edge FollowerID -> FollowedID.
type Follower struct {
	ID         uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	FollowerID uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_follower_followed"`
	Follower   *user.User `gorm:"foreignKey:FollowerID;constraint:OnDelete:RESTRICT"`
	FollowedID uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_follower_followed;index"`
	Followed   *user.User `gorm:"foreignKey:FollowedID;constraint:OnDelete:RESTRICT"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
}
