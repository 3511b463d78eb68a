package followerapp

import (
	"context"
	"fmt"

	"linkup/internal/core/apperror"
	followerEntity "linkup/internal/core/follower"
	"linkup/internal/core/pagination"
	"linkup/internal/logging"
	followerPort "linkup/internal/ports/follower"
	profilePort "linkup/internal/ports/profile"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const unknownUser = "Unknown User"

type FollowerService struct {
	FollowerRepository followerPort.FollowerRepository
	ProfileRepository  profilePort.ProfileRepository
	logger             *zap.Logger
}

func NewFollowerService(repo followerPort.FollowerRepository, profiles profilePort.ProfileRepository, logger *zap.Logger) *FollowerService {
	return &FollowerService{
		FollowerRepository: repo,
		ProfileRepository:  profiles,
		logger:             logger,
	}
}

// FollowUser is idempotent: following someone twice keeps the first edge.
func (s *FollowerService) FollowUser(ctx context.Context, followerID, followedID uuid.UUID) (*followerPort.FollowDTO, error) {
	log := logging.From(ctx, s.logger)
	if followerID == followedID {
		log.Warn("⚠️ Cannot follow yourself", zap.String("userID", followerID.String()))
		return nil, apperror.Forbidden("you cannot follow yourself")
	}

	target, err := s.ProfileRepository.FindByUserID(ctx, followedID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if target == nil {
		return nil, apperror.NotFound("user", followedID)
	}

	existing, err := s.FollowerRepository.GetFollow(ctx, followerID, followedID)
	if err != nil {
		return nil, fmt.Errorf("find follow: %w", err)
	}
	if existing != nil {
		return &followerPort.FollowDTO{UserID: followedID.String(), Following: true, Since: &existing.CreatedAt}, nil
	}

	f := &followerEntity.Follower{
		ID:         uuid.Must(uuid.NewV4()),
		FollowerID: followerID,
		FollowedID: followedID,
	}
	if err := s.FollowerRepository.FollowUser(ctx, f); err != nil {
		return nil, fmt.Errorf("follow user: %w", err)
	}
	log.Info("✅ User followed", zap.String("followerID", followerID.String()), zap.String("followedID", followedID.String()))
	return &followerPort.FollowDTO{UserID: followedID.String(), Following: true, Since: &f.CreatedAt}, nil
}

// UnfollowUser is idempotent.
func (s *FollowerService) UnfollowUser(ctx context.Context, followerID, followedID uuid.UUID) error {
	if _, err := s.FollowerRepository.UnfollowUser(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("unfollow user: %w", err)
	}
	return nil
}

func (s *FollowerService) GetFollowers(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*followerPort.FollowerDTO], error) {
	rows, total, err := s.FollowerRepository.GetFollowers(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return s.page(ctx, rows, total, p, func(f *followerEntity.Follower) uuid.UUID { return f.FollowerID })
}

func (s *FollowerService) GetFollowing(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*followerPort.FollowerDTO], error) {
	rows, total, err := s.FollowerRepository.GetFollowing(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return s.page(ctx, rows, total, p, func(f *followerEntity.Follower) uuid.UUID { return f.FollowedID })
}

func (s *FollowerService) IsFollowing(ctx context.Context, followerID, followedID uuid.UUID) (bool, error) {
	f, err := s.FollowerRepository.GetFollow(ctx, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("find follow: %w", err)
	}
	return f != nil, nil
}

func (s *FollowerService) page(ctx context.Context, rows []*followerEntity.Follower, total int64, p pagination.Params, other func(*followerEntity.Follower) uuid.UUID) (*pagination.Result[*followerPort.FollowerDTO], error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, other(f))
	}
	cards, err := profilePort.Summaries(ctx, s.ProfileRepository, ids, unknownUser)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	out := make([]*followerPort.FollowerDTO, 0, len(rows))
	for _, f := range rows {
		out = append(out, &followerPort.FollowerDTO{User: cards[other(f)], Since: f.CreatedAt})
	}
	return pagination.NewResult(out, p, total), nil
}
