package database

import (
	"context"

	"linkup/internal/core/pagination"
	"linkup/internal/core/post"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CommentRepositoryDatabase struct {
	baseRepository[post.Comment]
}

func NewCommentRepositoryDatabase(db *gorm.DB) *CommentRepositoryDatabase {
	return &CommentRepositoryDatabase{baseRepository[post.Comment]{db: db}}
}

func (repo *CommentRepositoryDatabase) Create(ctx context.Context, c *post.Comment) error {
	return repo.add(ctx, c)
}

func (repo *CommentRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*post.Comment, error) {
	return repo.getByID(ctx, id)
}

func (repo *CommentRepositoryDatabase) Update(ctx context.Context, c *post.Comment) error {
	return repo.update(ctx, c)
}

func (repo *CommentRepositoryDatabase) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return repo.remove(ctx, &post.Comment{ID: id})
}

func (repo *CommentRepositoryDatabase) ListTopLevel(ctx context.Context, postID uuid.UUID, p pagination.Params) ([]*post.Comment, int64, error) {
	return repo.page(ctx, oldestFirst, p, "post_id = ? AND parent_comment_id IS NULL", postID)
}

// ListReplies returns replies oldest first so threads read top to bottom.
func (repo *CommentRepositoryDatabase) ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]*post.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	return repo.find(ctx, oldestFirst, "parent_comment_id IN ?", parentIDs)
}

func (repo *CommentRepositoryDatabase) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&post.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func (repo *CommentRepositoryDatabase) DeleteRepliesOnPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return repo.deleteWhere(ctx, "post_id IN ? AND parent_comment_id IS NOT NULL", postIDs)
}

func (repo *CommentRepositoryDatabase) DeleteTopLevelOnPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return repo.deleteWhere(ctx, "post_id IN ? AND parent_comment_id IS NULL", postIDs)
}

func (repo *CommentRepositoryDatabase) DeleteRepliesByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "author_id = ? AND parent_comment_id IS NOT NULL", authorID)
}

func (repo *CommentRepositoryDatabase) TopLevelIDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	return repo.ids(ctx, "author_id = ? AND parent_comment_id IS NULL", authorID)
}

func (repo *CommentRepositoryDatabase) DeleteRepliesTo(ctx context.Context, parentIDs []uuid.UUID) (int64, error) {
	if len(parentIDs) == 0 {
		return 0, nil
	}
	return repo.deleteWhere(ctx, "parent_comment_id IN ?", parentIDs)
}

func (repo *CommentRepositoryDatabase) DeleteTopLevelByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "author_id = ? AND parent_comment_id IS NULL", authorID)
}
