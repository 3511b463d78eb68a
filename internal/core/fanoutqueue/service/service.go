package fanoutqueueapp

import (
	"context"
	"fmt"
	"time"

	"linkup/internal/core/fanoutqueue"
	fanoutPort "linkup/internal/ports/fanoutqueue"
	"linkup/internal/ports/uow"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// FanoutService copies new posts into the timelines of their author's followers.
type FanoutService struct {
	uow         uow.UnitOfWork
	FanoutRedis fanoutPort.FanoutRedis
	BatchSize   int
	logger      *zap.Logger
	now         func() time.Time
}

func NewFanoutService(u uow.UnitOfWork, fanoutRedis fanoutPort.FanoutRedis, batchSize int, logger *zap.Logger) *FanoutService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &FanoutService{
		uow:         u,
		FanoutRedis: fanoutRedis,
		BatchSize:   batchSize,
		logger:      logger,
		now:         time.Now,
	}
}

// ProcessPending handles up to BatchSize pending rows and returns how many were marked done.
// A row whose push fails stays pending and is retried on the next call.
func (s *FanoutService) ProcessPending(ctx context.Context) (int, error) {
	pending, err := s.uow.Repos().Fanout.GetPendingPosts(ctx, int64(s.BatchSize))
	if err != nil {
		return 0, fmt.Errorf("fetch pending fanout: %w", err)
	}

	done := 0
	for _, fq := range pending {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if err := s.processFanout(ctx, fq); err != nil {
			s.logger.Error("❌ Fanout failed", zap.String("fanoutID", fq.ID.String()), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}

func (s *FanoutService) processFanout(ctx context.Context, fq *fanoutqueue.FanoutQueue) error {
	if fq == nil || fq.PostID == uuid.Nil || fq.UserID == uuid.Nil {
		return fmt.Errorf("invalid fanout record %+v", fq)
	}
	repos := s.uow.Repos()

	s.logger.Debug("➡ Processing FanoutQueue", zap.String("postID", fq.PostID.String()), zap.String("authorID", fq.UserID.String()))

	p, err := repos.Posts.FindByID(ctx, fq.PostID)
	if err != nil {
		return fmt.Errorf("find post: %w", err)
	}
	if p == nil {
		s.logger.Warn("⚠️ Post of fanout record is gone", zap.String("postID", fq.PostID.String()))
		return repos.Fanout.MarkDone(ctx, fq.ID, s.now())
	}

	followers, err := repos.Followers.FollowerIDs(ctx, fq.UserID)
	if err != nil {
		return fmt.Errorf("fetch followers: %w", err)
	}

	followerIDs := make([]string, 0, len(followers))
	for _, f := range followers {
		followerIDs = append(followerIDs, f.String())
	}

	for i := 0; i < len(followerIDs); i += s.BatchSize {
		end := min(i+s.BatchSize, len(followerIDs))
		batch := followerIDs[i:end]
		if err := s.FanoutRedis.PushPostToFollowers(ctx, p.ID.String(), p.CreatedAt, batch); err != nil {
			return fmt.Errorf("push batch %d-%d: %w", i, end, err)
		}
	}

	if err := repos.Fanout.MarkDone(ctx, fq.ID, s.now()); err != nil {
		return fmt.Errorf("mark fanout done: %w", err)
	}
	s.logger.Info("✅ Fanout done", zap.String("postID", fq.PostID.String()), zap.Int("followers", len(followerIDs)))
	return nil
}
