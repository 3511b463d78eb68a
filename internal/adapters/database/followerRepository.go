package database

import (
	"context"

	"linkup/internal/core/follower"
	"linkup/internal/core/pagination"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// FollowerRepositoryDatabase implements the follower port on gorm.
type FollowerRepositoryDatabase struct {
	baseRepository[follower.Follower]
}

func NewFollowerRepositoryDatabase(db *gorm.DB) *FollowerRepositoryDatabase {
	return &FollowerRepositoryDatabase{baseRepository[follower.Follower]{db: db}}
}

func (repo *FollowerRepositoryDatabase) FollowUser(ctx context.Context, f *follower.Follower) error {
	return repo.add(ctx, f)
}

func (repo *FollowerRepositoryDatabase) UnfollowUser(ctx context.Context, followerID, followedID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "follower_id = ? AND followed_id = ?", followerID, followedID)
}

func (repo *FollowerRepositoryDatabase) GetFollow(ctx context.Context, followerID, followedID uuid.UUID) (*follower.Follower, error) {
	return repo.first(ctx, "", "follower_id = ? AND followed_id = ?", followerID, followedID)
}

func (repo *FollowerRepositoryDatabase) GetFollowers(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*follower.Follower, int64, error) {
	return repo.page(ctx, newestFirst, p, "followed_id = ?", userID)
}

func (repo *FollowerRepositoryDatabase) GetFollowing(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*follower.Follower, int64, error) {
	return repo.page(ctx, newestFirst, p, "follower_id = ?", userID)
}

func (repo *FollowerRepositoryDatabase) FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := repo.db.WithContext(ctx).Model(&follower.Follower{}).
		Where("followed_id = ?", userID).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (repo *FollowerRepositoryDatabase) DeleteMutual(ctx context.Context, a, b uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "(follower_id = ? AND followed_id = ?) OR (follower_id = ? AND followed_id = ?)", a, b, b, a)
}

func (repo *FollowerRepositoryDatabase) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "follower_id = ? OR followed_id = ?", userID, userID)
}
