package database

import (
	"context"

	"linkup/internal/ports/uow"

	"gorm.io/gorm"
)

// UnitOfWork hands out repositories bound either to the pool or to one gorm transaction.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Repos() uow.Repositories {
	return repositories(u.db)
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, repositories(tx))
	})
}

func repositories(db *gorm.DB) uow.Repositories {
	return uow.Repositories{
		Users:       NewUserRepositoryDatabase(db),
		ResetCodes:  NewResetCodeRepositoryDatabase(db),
		Profiles:    NewProfileRepositoryDatabase(db),
		Posts:       NewPostRepositoryDatabase(db),
		Media:       NewMediaRepositoryDatabase(db),
		Comments:    NewCommentRepositoryDatabase(db),
		Reactions:   NewReactionRepositoryDatabase(db),
		Followers:   NewFollowerRepositoryDatabase(db),
		Connections: NewConnectionRepositoryDatabase(db),
		Requests:    NewRequestRepositoryDatabase(db),
		Fanout:      NewFanoutRepositoryDatabase(db),
	}
}
