package fanout

import (
	"context"
	"time"

	"linkup/internal/core/fanoutqueue"

	"github.com/gofrs/uuid"
)

type FanoutRepository interface {
	Create(ctx context.Context, fanout *fanoutqueue.FanoutQueue) error
	GetPendingPosts(ctx context.Context, limit int64) ([]*fanoutqueue.FanoutQueue, error)
	MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error)
}

// FanoutRedis writes post ids into the per-user timeline ZSETs.
type FanoutRedis interface {
	PushPostToFollowers(ctx context.Context, postID string, postedAt time.Time, followerIDs []string) error
}
