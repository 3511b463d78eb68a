package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MaxTimelineLength bounds every timeline ZSET; older entries are trimmed on push.
const MaxTimelineLength = 800

func timelineKey(userID string) string { return "timeline:" + userID }

type FanoutRepositoryRedis struct {
	Client *redis.Client
	logger *zap.Logger
}

func NewFanoutRepositoryRedis(client *redis.Client, logger *zap.Logger) *FanoutRepositoryRedis {
	return &FanoutRepositoryRedis{
		Client: client,
		logger: logger,
	}
}

// PushPostToFollowers adds postID to the timeline ZSET of each follower, scored by post time.
func (r *FanoutRepositoryRedis) PushPostToFollowers(ctx context.Context, postID string, postedAt time.Time, followerIDs []string) error {
	if len(followerIDs) == 0 {
		return nil
	}

	z := &redis.Z{
		Score:  float64(postedAt.UnixMilli()),
		Member: postID,
	}

	pipe := r.Client.TxPipeline()
	for _, followerID := range followerIDs {
		key := timelineKey(followerID)
		pipe.ZAdd(ctx, key, z)
		pipe.ZRemRangeByRank(ctx, key, 0, -MaxTimelineLength-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push post %s to timelines: %w", postID, err)
	}

	r.logger.Debug("Pushed post to timelines", zap.String("postID", postID), zap.Int("followers", len(followerIDs)))
	return nil
}
