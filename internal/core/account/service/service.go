package accountapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkup/internal/core/account"
	"linkup/internal/core/apperror"
	"linkup/internal/core/user"
	"linkup/internal/logging"
	timelinePort "linkup/internal/ports/timeline"
	"linkup/internal/ports/uow"
	"linkup/internal/retry"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// DeletionService removes a user and everything that references them.
type DeletionService struct {
	uow       uow.UnitOfWork
	timelines timelinePort.TimelineRepository
	policy    retry.Policy
	logger    *zap.Logger
}

func NewDeletionService(u uow.UnitOfWork, timelines timelinePort.TimelineRepository, policy retry.Policy, logger *zap.Logger) *DeletionService {
	return &DeletionService{
		uow:       u,
		timelines: timelines,
		policy:    policy,
		logger:    logger,
	}
}

// DeleteMyAccount is the self-service entry point.
func (s *DeletionService) DeleteMyAccount(ctx context.Context, userID uuid.UUID) (account.Report, error) {
	u, err := s.uow.Repos().Users.FindByID(ctx, userID)
	if err != nil {
		return account.Report{}, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return account.Report{}, apperror.NotFound("user", userID)
	}
	return s.DeleteAccount(ctx, userID)
}

// AdminDeleteUser lets an admin remove another account. Superadmins cannot be removed this way.
func (s *DeletionService) AdminDeleteUser(ctx context.Context, adminID, targetID uuid.UUID) (account.Report, error) {
	if adminID == targetID {
		return account.Report{}, apperror.Forbidden("use the self-service endpoint to delete your own account")
	}
	target, err := s.uow.Repos().Users.FindByID(ctx, targetID)
	if err != nil {
		return account.Report{}, fmt.Errorf("find user: %w", err)
	}
	if target == nil {
		return account.Report{}, apperror.NotFound("user", targetID)
	}
	if target.Role == user.RoleSuperAdmin {
		return account.Report{}, apperror.Forbidden("superadmin accounts cannot be deleted")
	}

	logging.From(ctx, s.logger).Info("Admin deleting user",
		zap.String("adminID", adminID.String()),
		zap.String("targetID", targetID.String()))
	return s.DeleteAccount(ctx, targetID)
}

// DeleteAccount purges userID in one transaction, retried as a whole on transient faults.
// The caller is responsible for authorisation. Deleting an absent user succeeds with zero rows.
func (s *DeletionService) DeleteAccount(ctx context.Context, userID uuid.UUID) (account.Report, error) {
	log := logging.From(ctx, s.logger).With(zap.String("userID", userID.String()))
	log.Info("🗑️ Account deletion started")

	policy := s.policy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Warn("⚠️ Transient failure, retrying account deletion",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	var steps []account.StepResult
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
			p := &purge{repos: repos, userID: userID, log: log.With(zap.Int("attempt", attempt))}
			err := p.run(ctx)
			steps = p.steps
			return err
		})
	})

	report := account.Report{UserID: userID, Attempts: attempts}
	if err != nil {
		log.Error("❌ Account deletion rolled back", zap.Int("attempts", attempts), zap.Error(err))
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return report, err
		case policy.Retryable != nil && policy.Retryable(err):
			return report, apperror.Wrap(apperror.KindTransient, "account deletion failed, try again later", err)
		}
		return report, fmt.Errorf("delete account %s: %w", userID, err)
	}
	report.Steps = steps

	log.Info("✅ Account deletion committed",
		zap.Int("attempts", attempts), zap.Int64("rows", report.Total()))

	if s.timelines != nil {
		if err := s.timelines.RemoveTimeline(ctx, userID.String()); err != nil {
			log.Warn("⚠️ Could not drop timeline", zap.Error(err))
		}
	}
	return report, nil
}

// purge is one attempt of the ordered delete. Children always go before their parents.
type purge struct {
	repos  uow.Repositories
	userID uuid.UUID
	log    *zap.Logger
	steps  []account.StepResult
}

func (p *purge) record(name string, rows int64, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p.steps = append(p.steps, account.StepResult{Name: name, Rows: rows})
	p.log.Info("Deleted rows", zap.String("step", name), zap.Int64("rows", rows))
	return nil
}

func (p *purge) run(ctx context.Context) error {
	r := p.repos
	id := p.userID

	postIDs, err := r.Posts.IDsByAuthor(ctx, id)
	if err != nil {
		return fmt.Errorf("collect posts: %w", err)
	}
	p.log.Info("Collected posts", zap.Int("posts", len(postIDs)))

	if len(postIDs) > 0 {
		postSteps := []struct {
			name string
			del  func(context.Context, []uuid.UUID) (int64, error)
		}{
			{account.StepPostReactions, r.Reactions.DeleteByPosts},
			{account.StepPostReplies, r.Comments.DeleteRepliesOnPosts},
			{account.StepPostTopLevelComments, r.Comments.DeleteTopLevelOnPosts},
			{account.StepPostMedia, r.Media.DeleteByPosts},
			{account.StepPostFanout, r.Fanout.DeleteByPosts},
		}
		for _, step := range postSteps {
			rows, err := step.del(ctx, postIDs)
			if err := p.record(step.name, rows, err); err != nil {
				return err
			}
		}
		rows, err := r.Posts.DeleteByAuthor(ctx, id)
		if err := p.record(account.StepPosts, rows, err); err != nil {
			return err
		}
	}

	rows, err := r.Reactions.DeleteByUser(ctx, id)
	if err := p.record(account.StepUserReactions, rows, err); err != nil {
		return err
	}

	rows, err = r.Comments.DeleteRepliesByAuthor(ctx, id)
	if err := p.record(account.StepUserReplies, rows, err); err != nil {
		return err
	}

	topLevel, err := r.Comments.TopLevelIDsByAuthor(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", account.StepRepliesToUserComments, err)
	}
	if len(topLevel) > 0 {
		rows, err = r.Comments.DeleteRepliesTo(ctx, topLevel)
		if err := p.record(account.StepRepliesToUserComments, rows, err); err != nil {
			return err
		}
	}

	rows, err = r.Comments.DeleteTopLevelByAuthor(ctx, id)
	if err := p.record(account.StepUserTopLevelComments, rows, err); err != nil {
		return err
	}

	graphSteps := []struct {
		name string
		del  func(context.Context, uuid.UUID) (int64, error)
	}{
		{account.StepFollows, r.Followers.DeleteByUser},
		{account.StepConnections, r.Connections.DeleteByUser},
		{account.StepConnectionRequests, r.Requests.DeleteByUser},
		{account.StepPasswordResetCodes, r.ResetCodes.DeleteByUser},
		{account.StepProfile, r.Profiles.DeleteByUserID},
	}
	for _, step := range graphSteps {
		rows, err := step.del(ctx, id)
		if err := p.record(step.name, rows, err); err != nil {
			return err
		}
	}

	rows, err = r.Users.Delete(ctx, id)
	if err := p.record(account.StepUser, rows, err); err != nil {
		return err
	}
	if rows == 0 {
		p.log.Warn("⚠️ User row not deleted, it may have been already deleted")
	}
	return nil
}
