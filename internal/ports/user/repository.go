package user

import (
	"context"
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

// UserRepository stores accounts. Find* return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// ResetCodeRepository stores password reset codes.
type ResetCodeRepository interface {
	Create(ctx context.Context, c *user.PasswordResetCode) error
	FindActive(ctx context.Context, userID uuid.UUID, now time.Time) (*user.PasswordResetCode, error)
	FindLatest(ctx context.Context, userID uuid.UUID) (*user.PasswordResetCode, error)
	Update(ctx context.Context, c *user.PasswordResetCode) error
	InvalidateAll(ctx context.Context, userID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Mailer delivers password reset codes.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, code string) error
}

// DTOs for the use cases
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
