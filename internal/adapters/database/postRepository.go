package database

import (
	"context"

	"linkup/internal/core/pagination"
	"linkup/internal/core/post"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// PostRepositoryDatabase implements the post port on gorm.
type PostRepositoryDatabase struct {
	baseRepository[post.Post]
}

// NewPostRepositoryDatabase builds the repository on db, which may be a transaction.
func NewPostRepositoryDatabase(db *gorm.DB) *PostRepositoryDatabase {
	return &PostRepositoryDatabase{baseRepository[post.Post]{db: db}}
}

func (repo *PostRepositoryDatabase) Create(ctx context.Context, p *post.Post) error {
	return repo.add(ctx, p)
}

func (repo *PostRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	return repo.getByID(ctx, id)
}

func (repo *PostRepositoryDatabase) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*post.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return repo.find(ctx, "", "id IN ?", ids)
}

func (repo *PostRepositoryDatabase) ListByAuthor(ctx context.Context, authorID uuid.UUID, visibilities []string, p pagination.Params) ([]*post.Post, int64, error) {
	return repo.page(ctx, newestFirst, p, "author_id = ? AND visibility IN ?", authorID, visibilities)
}

func (repo *PostRepositoryDatabase) Update(ctx context.Context, p *post.Post) error {
	return repo.update(ctx, p)
}

func (repo *PostRepositoryDatabase) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "id = ?", id)
}

func (repo *PostRepositoryDatabase) IDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	return repo.ids(ctx, "author_id = ?", authorID)
}

func (repo *PostRepositoryDatabase) DeleteByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "author_id = ?", authorID)
}

type MediaRepositoryDatabase struct {
	baseRepository[post.Media]
}

func NewMediaRepositoryDatabase(db *gorm.DB) *MediaRepositoryDatabase {
	return &MediaRepositoryDatabase{baseRepository[post.Media]{db: db}}
}

func (repo *MediaRepositoryDatabase) AddBatch(ctx context.Context, items []*post.Media) error {
	if len(items) == 0 {
		return nil
	}
	return repo.db.WithContext(ctx).CreateInBatches(&items, len(items)).Error
}

func (repo *MediaRepositoryDatabase) ListByPost(ctx context.Context, postID uuid.UUID) ([]*post.Media, error) {
	return repo.find(ctx, "sort_order ASC, created_at ASC", "post_id = ?", postID)
}

func (repo *MediaRepositoryDatabase) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&post.Media{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func (repo *MediaRepositoryDatabase) DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	return repo.deleteWhere(ctx, "post_id IN ?", postIDs)
}
