package connection

import (
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

// Connection is one direction of a mutual link; accepted requests store both directions.
type Connection struct {
	ID              uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	UserID          uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_connection_pair"`
	User            *user.User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	ConnectedUserID uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_connection_pair;index"`
	ConnectedUser   *user.User `gorm:"foreignKey:ConnectedUserID;constraint:OnDelete:RESTRICT"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
}
