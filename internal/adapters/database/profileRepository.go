package database

import (
	"context"

	"linkup/internal/core/profile"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type ProfileRepositoryDatabase struct {
	baseRepository[profile.Profile]
}

func NewProfileRepositoryDatabase(db *gorm.DB) *ProfileRepositoryDatabase {
	return &ProfileRepositoryDatabase{baseRepository[profile.Profile]{db: db}}
}

func (repo *ProfileRepositoryDatabase) Create(ctx context.Context, p *profile.Profile) error {
	return repo.add(ctx, p)
}

func (repo *ProfileRepositoryDatabase) FindByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	return repo.first(ctx, "", "user_id = ?", userID)
}

func (repo *ProfileRepositoryDatabase) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*profile.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return repo.find(ctx, "", "user_id IN ?", userIDs)
}

func (repo *ProfileRepositoryDatabase) Update(ctx context.Context, p *profile.Profile) error {
	return repo.update(ctx, p)
}

func (repo *ProfileRepositoryDatabase) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "user_id = ?", userID)
}
