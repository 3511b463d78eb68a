package timelineapp

import (
	"context"
	"fmt"

	postPort "linkup/internal/ports/post"
	timelinePort "linkup/internal/ports/timeline"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// PostLoader resolves timeline ids into posts the viewer may see, keeping their order.
type PostLoader interface {
	PostsByIDs(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) ([]*postPort.PostDTO, error)
}

type TimelineService struct {
	TimelineRepository timelinePort.TimelineRepository
	posts              PostLoader
	logger             *zap.Logger
}

func NewTimelineService(timelineRepo timelinePort.TimelineRepository, posts PostLoader, logger *zap.Logger) *TimelineService {
	return &TimelineService{
		TimelineRepository: timelineRepo,
		posts:              posts,
		logger:             logger,
	}
}

// GetTimelineByUserID reads the user's feed newest first. Ids whose post is gone are skipped.
func (s *TimelineService) GetTimelineByUserID(ctx context.Context, userID uuid.UUID, start, limit int64) ([]*postPort.PostDTO, error) {
	if start < 0 {
		start = 0
	}
	raw, err := s.TimelineRepository.GetPostIDs(ctx, userID.String(), start, limit)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.FromString(r)
		if err != nil {
			s.logger.Warn("⚠️ Skipping malformed timeline entry", zap.String("entry", r))
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []*postPort.PostDTO{}, nil
	}
	return s.posts.PostsByIDs(ctx, userID, ids)
}
