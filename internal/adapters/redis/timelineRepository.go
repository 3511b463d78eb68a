package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
)

type TimelineRepositoryRedis struct {
	Client *redis.Client
}

func NewTimelineRepositoryRedis(client *redis.Client) *TimelineRepositoryRedis {
	return &TimelineRepositoryRedis{Client: client}
}

func (r *TimelineRepositoryRedis) GetPostIDs(ctx context.Context, userID string, start, limit int64) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	return r.Client.ZRevRange(ctx, timelineKey(userID), start, start+limit-1).Result()
}

func (r *TimelineRepositoryRedis) RemoveTimeline(ctx context.Context, userID string) error {
	return r.Client.Del(ctx, timelineKey(userID)).Err()
}
