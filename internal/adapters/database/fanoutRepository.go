package database

import (
	"context"
	"time"

	"linkup/internal/core/fanoutqueue"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type FanoutRepositoryDatabase struct {
	baseRepository[fanoutqueue.FanoutQueue]
}

func NewFanoutRepositoryDatabase(db *gorm.DB) *FanoutRepositoryDatabase {
	return &FanoutRepositoryDatabase{baseRepository[fanoutqueue.FanoutQueue]{db: db}}
}

func (repo *FanoutRepositoryDatabase) Create(ctx context.Context, fanout *fanoutqueue.FanoutQueue) error {
	return repo.add(ctx, fanout)
}

func (repo *FanoutRepositoryDatabase) GetPendingPosts(ctx context.Context, limit int64) ([]*fanoutqueue.FanoutQueue, error) {
	var fanouts []*fanoutqueue.FanoutQueue
	if err := repo.db.WithContext(ctx).
		Where("status = ?", fanoutqueue.StatusPending).
		Order("created_at ASC").
		Limit(int(limit)).
		Find(&fanouts).Error; err != nil {
		return nil, err
	}
	return fanouts, nil
}

func (repo *FanoutRepositoryDatabase) MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error {
	return repo.db.WithContext(ctx).Model(&fanoutqueue.FanoutQueue{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       fanoutqueue.StatusDone,
			"processed_at": at,
		}).Error
}

func (repo *FanoutRepositoryDatabase) DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return repo.deleteWhere(ctx, "post_id IN ?", postIDs)
}
