package uow

import (
	"context"

	connectionPort "linkup/internal/ports/connection"
	fanoutPort "linkup/internal/ports/fanoutqueue"
	followerPort "linkup/internal/ports/follower"
	postPort "linkup/internal/ports/post"
	profilePort "linkup/internal/ports/profile"
	userPort "linkup/internal/ports/user"
)

// Repositories is every repository bound to the same connection or transaction.
type Repositories struct {
	Users       userPort.UserRepository
	ResetCodes  userPort.ResetCodeRepository
	Profiles    profilePort.ProfileRepository
	Posts       postPort.PostRepository
	Media       postPort.MediaRepository
	Comments    postPort.CommentRepository
	Reactions   postPort.ReactionRepository
	Followers   followerPort.FollowerRepository
	Connections connectionPort.ConnectionRepository
	Requests    connectionPort.RequestRepository
	Fanout      fanoutPort.FanoutRepository
}

// UnitOfWork is the transactional execution boundary.
type UnitOfWork interface {
	// Repos returns repositories outside any transaction.
	Repos() Repositories
	// WithinTx runs fn in one transaction: commit when fn returns nil, rollback otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
