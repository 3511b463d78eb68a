package database

import (
	"context"
	"time"

	"linkup/internal/core/connection"
	"linkup/internal/core/pagination"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const eitherDirection = "(user_id = ? AND connected_user_id = ?) OR (user_id = ? AND connected_user_id = ?)"

type ConnectionRepositoryDatabase struct {
	baseRepository[connection.Connection]
}

func NewConnectionRepositoryDatabase(db *gorm.DB) *ConnectionRepositoryDatabase {
	return &ConnectionRepositoryDatabase{baseRepository[connection.Connection]{db: db}}
}

func (repo *ConnectionRepositoryDatabase) Add(ctx context.Context, c *connection.Connection) error {
	return repo.add(ctx, c)
}

func (repo *ConnectionRepositoryDatabase) Exists(ctx context.Context, userID, connectedID uuid.UUID) (bool, error) {
	return repo.exists(ctx, "user_id = ? AND connected_user_id = ?", userID, connectedID)
}

func (repo *ConnectionRepositoryDatabase) AreConnected(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return repo.exists(ctx, eitherDirection, a, b, b, a)
}

func (repo *ConnectionRepositoryDatabase) DeletePair(ctx context.Context, a, b uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, eitherDirection, a, b, b, a)
}

// List returns the rows owned by userID. Accept writes both directions so this covers every peer.
func (repo *ConnectionRepositoryDatabase) List(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Connection, int64, error) {
	return repo.page(ctx, newestFirst, p, "user_id = ?", userID)
}

func (repo *ConnectionRepositoryDatabase) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "user_id = ? OR connected_user_id = ?", userID, userID)
}

type RequestRepositoryDatabase struct {
	baseRepository[connection.Request]
}

func NewRequestRepositoryDatabase(db *gorm.DB) *RequestRepositoryDatabase {
	return &RequestRepositoryDatabase{baseRepository[connection.Request]{db: db}}
}

func (repo *RequestRepositoryDatabase) Create(ctx context.Context, r *connection.Request) error {
	return repo.add(ctx, r)
}

func (repo *RequestRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*connection.Request, error) {
	return repo.getByID(ctx, id)
}

func (repo *RequestRepositoryDatabase) FindPendingBetween(ctx context.Context, a, b uuid.UUID) (*connection.Request, error) {
	return repo.first(ctx, newestFirst,
		"status = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
		connection.StatusPending, a, b, b, a)
}

// Transition only touches the row while it is still Pending, so two racing responders
// cannot both win.
func (repo *RequestRepositoryDatabase) Transition(ctx context.Context, id uuid.UUID, to connection.RequestStatus, respondedAt *time.Time, at time.Time) (bool, error) {
	res := repo.db.WithContext(ctx).Model(&connection.Request{}).
		Where("id = ? AND status = ?", id, connection.StatusPending).
		Updates(map[string]interface{}{
			"status":       to,
			"responded_at": respondedAt,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (repo *RequestRepositoryDatabase) Incoming(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Request, int64, error) {
	return repo.page(ctx, newestFirst, p, "receiver_id = ? AND status = ?", userID, connection.StatusPending)
}

func (repo *RequestRepositoryDatabase) Outgoing(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Request, int64, error) {
	return repo.page(ctx, newestFirst, p, "sender_id = ? AND status = ?", userID, connection.StatusPending)
}

func (repo *RequestRepositoryDatabase) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "sender_id = ? OR receiver_id = ?", userID, userID)
}
