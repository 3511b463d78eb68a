package connection

import (
	"context"
	"time"

	"linkup/internal/core/connection"
	"linkup/internal/core/pagination"
	profilePort "linkup/internal/ports/profile"

	"github.com/gofrs/uuid"
)

type ConnectionRepository interface {
	Add(ctx context.Context, c *connection.Connection) error
	// Exists checks the single direction userID -> connectedID.
	Exists(ctx context.Context, userID, connectedID uuid.UUID) (bool, error)
	// AreConnected checks either direction.
	AreConnected(ctx context.Context, a, b uuid.UUID) (bool, error)
	DeletePair(ctx context.Context, a, b uuid.UUID) (int64, error)
	List(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Connection, int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// RequestRepository stores connection requests. Find* return (nil, nil) when absent.
type RequestRepository interface {
	Create(ctx context.Context, r *connection.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*connection.Request, error)
	// FindPendingBetween looks in both directions.
	FindPendingBetween(ctx context.Context, a, b uuid.UUID) (*connection.Request, error)
	// Transition moves a Pending request to `to`. It reports false when the request was
	// no longer Pending at write time.
	Transition(ctx context.Context, id uuid.UUID, to connection.RequestStatus, respondedAt *time.Time, at time.Time) (bool, error)
	Incoming(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Request, int64, error)
	Outgoing(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Request, int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// DTOs for the use cases
type RequestDTO struct {
	ID          string                     `json:"id"`
	User        profilePort.UserSummaryDTO `json:"user"`
	Status      string                     `json:"status"`
	CreatedAt   time.Time                  `json:"created_at"`
	RespondedAt *time.Time                 `json:"responded_at,omitempty"`
}

type ConnectionDTO struct {
	User        profilePort.UserSummaryDTO `json:"user"`
	ConnectedAt time.Time                  `json:"connected_at"`
}
