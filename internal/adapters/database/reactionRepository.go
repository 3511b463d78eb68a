package database

import (
	"context"

	"linkup/internal/core/post"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type ReactionRepositoryDatabase struct {
	baseRepository[post.Reaction]
}

func NewReactionRepositoryDatabase(db *gorm.DB) *ReactionRepositoryDatabase {
	return &ReactionRepositoryDatabase{baseRepository[post.Reaction]{db: db}}
}

func (repo *ReactionRepositoryDatabase) Find(ctx context.Context, postID, userID uuid.UUID) (*post.Reaction, error) {
	return repo.first(ctx, "", "post_id = ? AND user_id = ?", postID, userID)
}

func (repo *ReactionRepositoryDatabase) Create(ctx context.Context, r *post.Reaction) error {
	return repo.add(ctx, r)
}

func (repo *ReactionRepositoryDatabase) Update(ctx context.Context, r *post.Reaction) error {
	return repo.update(ctx, r)
}

func (repo *ReactionRepositoryDatabase) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return repo.remove(ctx, &post.Reaction{ID: id})
}

func (repo *ReactionRepositoryDatabase) CountsByPost(ctx context.Context, postID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	if err := repo.db.WithContext(ctx).Model(&post.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

func (repo *ReactionRepositoryDatabase) DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return repo.deleteWhere(ctx, "post_id IN ?", postIDs)
}

func (repo *ReactionRepositoryDatabase) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "user_id = ?", userID)
}
