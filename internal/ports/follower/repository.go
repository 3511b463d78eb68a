package follower

import (
	"context"
	"time"

	"linkup/internal/core/follower"
	"linkup/internal/core/pagination"
	profilePort "linkup/internal/ports/profile"

	"github.com/gofrs/uuid"
)

// FollowerRepository stores follow edges. GetFollow returns (nil, nil) when absent.
type FollowerRepository interface {
	FollowUser(ctx context.Context, f *follower.Follower) error
	UnfollowUser(ctx context.Context, followerID, followedID uuid.UUID) (int64, error)
	GetFollow(ctx context.Context, followerID, followedID uuid.UUID) (*follower.Follower, error)
	GetFollowers(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*follower.Follower, int64, error)
	GetFollowing(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*follower.Follower, int64, error)
	FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	DeleteMutual(ctx context.Context, a, b uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// DTOs for the use cases
type FollowDTO struct {
	UserID    string     `json:"user_id"`
	Following bool       `json:"following"`
	Since     *time.Time `json:"since,omitempty"`
}

type FollowerDTO struct {
	User  profilePort.UserSummaryDTO `json:"user"`
	Since time.Time                  `json:"since"`
}
