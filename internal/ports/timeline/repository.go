package timeline

import (
	"context"
)

type TimelineRepository interface {
	// GetPostIDs returns post ids newest first.
	GetPostIDs(ctx context.Context, userID string, start, limit int64) ([]string, error)
	RemoveTimeline(ctx context.Context, userID string) error
}
