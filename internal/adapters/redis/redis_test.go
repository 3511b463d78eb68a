package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestPushPostToFollowers(t *testing.T) {
	mr, rdb := newTestClient(t)
	repo := NewFanoutRepositoryRedis(rdb, zap.NewNop())
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.PushPostToFollowers(ctx, "p1", base, []string{"u1", "u2"}); err != nil {
		t.Fatalf("PushPostToFollowers: %v", err)
	}
	if err := repo.PushPostToFollowers(ctx, "p2", base.Add(time.Minute), []string{"u1"}); err != nil {
		t.Fatalf("PushPostToFollowers: %v", err)
	}
	if err := repo.PushPostToFollowers(ctx, "p3", base, nil); err != nil {
		t.Fatalf("empty follower list: %v", err)
	}

	score, err := mr.ZScore("timeline:u1", "p2")
	if err != nil {
		t.Fatalf("ZScore: %v", err)
	}
	if int64(score) != base.Add(time.Minute).UnixMilli() {
		t.Fatalf("unexpected score %v", score)
	}
	u2, _ := mr.ZMembers("timeline:u2")
	if len(u2) != 1 || u2[0] != "p1" {
		t.Fatalf("unexpected u2 timeline: %v", u2)
	}

	timeline := NewTimelineRepositoryRedis(rdb)
	ids, err := timeline.GetPostIDs(ctx, "u1", 0, 10)
	if err != nil {
		t.Fatalf("GetPostIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "p2" || ids[1] != "p1" {
		t.Fatalf("expected newest first, got %v", ids)
	}
}

func TestPushPostToFollowers_TrimsTimeline(t *testing.T) {
	mr, rdb := newTestClient(t)
	repo := NewFanoutRepositoryRedis(rdb, zap.NewNop())
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < MaxTimelineLength+5; i++ {
		if err := repo.PushPostToFollowers(ctx, fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Second), []string{"u1"}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	members, err := mr.ZMembers("timeline:u1")
	if err != nil {
		t.Fatalf("ZMembers: %v", err)
	}
	if len(members) != MaxTimelineLength {
		t.Fatalf("expected %d entries, got %d", MaxTimelineLength, len(members))
	}
	kept := make(map[string]bool, len(members))
	for _, m := range members {
		kept[m] = true
	}
	for _, trimmed := range []string{"p0", "p4"} {
		if kept[trimmed] {
			t.Fatalf("%s should have been trimmed", trimmed)
		}
	}
	for _, survivor := range []string{"p5", fmt.Sprintf("p%d", MaxTimelineLength+4)} {
		if !kept[survivor] {
			t.Fatalf("%s should have been kept", survivor)
		}
	}
}

func TestTimelineRepository_PagingAndRemove(t *testing.T) {
	mr, rdb := newTestClient(t)
	repo := NewTimelineRepositoryRedis(rdb)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := mr.ZAdd("timeline:u1", float64(i), fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("ZAdd: %v", err)
		}
	}

	ids, err := repo.GetPostIDs(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("GetPostIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "p4" || ids[1] != "p3" {
		t.Fatalf("unexpected page: %v", ids)
	}
	if ids, err := repo.GetPostIDs(ctx, "u1", 0, 0); err != nil || len(ids) != 0 {
		t.Fatalf("zero limit: %v %v", ids, err)
	}
	if ids, err := repo.GetPostIDs(ctx, "nobody", 0, 10); err != nil || len(ids) != 0 {
		t.Fatalf("missing key: %v %v", ids, err)
	}

	if err := repo.RemoveTimeline(ctx, "u1"); err != nil {
		t.Fatalf("RemoveTimeline: %v", err)
	}
	if mr.Exists("timeline:u1") {
		t.Fatalf("timeline should be gone")
	}
	if err := repo.RemoveTimeline(ctx, "u1"); err != nil {
		t.Fatalf("removing a missing timeline: %v", err)
	}
}
