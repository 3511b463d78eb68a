package profileapp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"linkup/internal/core/apperror"
	profileEntity "linkup/internal/core/profile"
	profilePort "linkup/internal/ports/profile"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type ProfileService struct {
	ProfileRepository profilePort.ProfileRepository
	logger            *zap.Logger
}

func NewProfileService(repo profilePort.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{ProfileRepository: repo, logger: logger}
}

func (s *ProfileService) GetMine(ctx context.Context, userID uuid.UUID) (*profilePort.ProfileDTO, error) {
	p, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profilePort.ToDTO(p), nil
}

// GetPublic returns userID's profile. Private profiles are only visible to their owner.
func (s *ProfileService) GetPublic(ctx context.Context, viewerID, userID uuid.UUID) (*profilePort.ProfileDTO, error) {
	p, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic && viewerID != userID {
		return nil, apperror.NotFound("profile", userID)
	}
	return profilePort.ToDTO(p), nil
}

func (s *ProfileService) UpdateMine(ctx context.Context, userID uuid.UUID, in profilePort.UpdateProfileInput) (*profilePort.ProfileDTO, error) {
	p, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		name     string
		in       *string
		dst      *string
		limit    int
		required bool
	}{
		{"first_name", in.FirstName, &p.FirstName, 50, true},
		{"last_name", in.LastName, &p.LastName, 50, true},
		{"headline", in.Headline, &p.Headline, 120, false},
		{"about", in.About, &p.About, 2000, false},
		{"location", in.Location, &p.Location, 100, false},
		{"profile_photo_url", in.ProfilePhotoURL, &p.ProfilePhotoURL, 300, false},
		{"cover_photo_url", in.CoverPhotoURL, &p.CoverPhotoURL, 300, false},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if f.required && v == "" {
			return nil, apperror.Invalid(f.name + " is required")
		}
		if utf8.RuneCountInString(v) > f.limit {
			return nil, apperror.Invalid(fmt.Sprintf("%s must be at most %d characters", f.name, f.limit))
		}
		*f.dst = v
	}
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}

	if err := s.ProfileRepository.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profilePort.ToDTO(p), nil
}

func (s *ProfileService) find(ctx context.Context, userID uuid.UUID) (*profileEntity.Profile, error) {
	p, err := s.ProfileRepository.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if p == nil {
		return nil, apperror.NotFound("profile", userID)
	}
	return p, nil
}
