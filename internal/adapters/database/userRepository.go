package database

import (
	"context"
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// UserRepositoryDatabase implements the user port on gorm.
type UserRepositoryDatabase struct {
	baseRepository[user.User]
}

func NewUserRepositoryDatabase(db *gorm.DB) *UserRepositoryDatabase {
	return &UserRepositoryDatabase{baseRepository[user.User]{db: db}}
}

func (repo *UserRepositoryDatabase) Create(ctx context.Context, u *user.User) error {
	return repo.add(ctx, u)
}

func (repo *UserRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return repo.getByID(ctx, id)
}

func (repo *UserRepositoryDatabase) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return repo.first(ctx, "", "email = ?", email)
}

func (repo *UserRepositoryDatabase) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return repo.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

func (repo *UserRepositoryDatabase) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	return repo.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", id).
		Update("email", email).Error
}

func (repo *UserRepositoryDatabase) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return repo.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", id).
		Update("role", role).Error
}

func (repo *UserRepositoryDatabase) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "id = ?", id)
}

type ResetCodeRepositoryDatabase struct {
	baseRepository[user.PasswordResetCode]
}

func NewResetCodeRepositoryDatabase(db *gorm.DB) *ResetCodeRepositoryDatabase {
	return &ResetCodeRepositoryDatabase{baseRepository[user.PasswordResetCode]{db: db}}
}

func (repo *ResetCodeRepositoryDatabase) Create(ctx context.Context, c *user.PasswordResetCode) error {
	return repo.add(ctx, c)
}

func (repo *ResetCodeRepositoryDatabase) FindActive(ctx context.Context, userID uuid.UUID, now time.Time) (*user.PasswordResetCode, error) {
	return repo.first(ctx, newestFirst, "user_id = ? AND is_used = ? AND expires_at > ?", userID, false, now)
}

func (repo *ResetCodeRepositoryDatabase) FindLatest(ctx context.Context, userID uuid.UUID) (*user.PasswordResetCode, error) {
	return repo.first(ctx, newestFirst, "user_id = ?", userID)
}

func (repo *ResetCodeRepositoryDatabase) Update(ctx context.Context, c *user.PasswordResetCode) error {
	return repo.update(ctx, c)
}

func (repo *ResetCodeRepositoryDatabase) InvalidateAll(ctx context.Context, userID uuid.UUID) error {
	return repo.db.WithContext(ctx).Model(&user.PasswordResetCode{}).
		Where("user_id = ? AND is_used = ?", userID, false).
		Update("is_used", true).Error
}

func (repo *ResetCodeRepositoryDatabase) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return repo.deleteWhere(ctx, "user_id = ?", userID)
}
