package profile

import (
	"context"
	"time"

	"linkup/internal/core/profile"

	"github.com/gofrs/uuid"
)

// ProfileRepository stores profiles keyed by user id. Find* return (nil, nil) when absent.
type ProfileRepository interface {
	Create(ctx context.Context, p *profile.Profile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*profile.Profile, error)
	Update(ctx context.Context, p *profile.Profile) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type ProfileDTO struct {
	UserID          string    `json:"user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Headline        string    `json:"headline,omitempty"`
	About           string    `json:"about,omitempty"`
	Location        string    `json:"location,omitempty"`
	ProfilePhotoURL string    `json:"profile_photo_url,omitempty"`
	CoverPhotoURL   string    `json:"cover_photo_url,omitempty"`
	IsPublic        bool      `json:"is_public"`
	CreatedAt       time.Time `json:"created_at"`
}

// UpdateProfileInput carries the editable fields. nil means unchanged.
type UpdateProfileInput struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Headline        *string `json:"headline"`
	About           *string `json:"about"`
	Location        *string `json:"location"`
	ProfilePhotoURL *string `json:"profile_photo_url"`
	CoverPhotoURL   *string `json:"cover_photo_url"`
	IsPublic        *bool   `json:"is_public"`
}

// UserSummaryDTO is the short user card embedded in lists.
type UserSummaryDTO struct {
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	Headline        string `json:"headline,omitempty"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
}

func ToDTO(p *profile.Profile) *ProfileDTO {
	return &ProfileDTO{
		UserID:          p.UserID.String(),
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Headline:        p.Headline,
		About:           p.About,
		Location:        p.Location,
		ProfilePhotoURL: p.ProfilePhotoURL,
		CoverPhotoURL:   p.CoverPhotoURL,
		IsPublic:        p.IsPublic,
		CreatedAt:       p.CreatedAt,
	}
}

// Summaries loads the profiles of ids and returns a card per id, using unknown as the name
// of users without a profile.
func Summaries(ctx context.Context, repo ProfileRepository, ids []uuid.UUID, unknown string) (map[uuid.UUID]UserSummaryDTO, error) {
	out := make(map[uuid.UUID]UserSummaryDTO, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	profiles, err := repo.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = UserSummaryDTO{
			UserID:          p.UserID.String(),
			Name:            p.FullName(),
			Headline:        p.Headline,
			ProfilePhotoURL: p.ProfilePhotoURL,
		}
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = UserSummaryDTO{UserID: id.String(), Name: unknown}
		}
	}
	return out, nil
}
