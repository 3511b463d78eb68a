package connection

import (
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

type RequestStatus int

const (
	StatusPending RequestStatus = iota
	StatusAccepted
	StatusRejected
	StatusCancelled
)

func (s RequestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool { return s != StatusPending }

type Request struct {
	ID          uuid.UUID     `gorm:"primaryKey;type:char(36)"`
	SenderID    uuid.UUID     `gorm:"type:char(36);not null;index:idx_request_pair_status"`
	Sender      *user.User    `gorm:"foreignKey:SenderID;constraint:OnDelete:RESTRICT"`
	ReceiverID  uuid.UUID     `gorm:"type:char(36);not null;index:idx_request_pair_status;index"`
	Receiver    *user.User    `gorm:"foreignKey:ReceiverID;constraint:OnDelete:RESTRICT"`
	Status      RequestStatus `gorm:"not null;index:idx_request_pair_status"`
	RespondedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Request) TableName() string { return "connection_requests" }
