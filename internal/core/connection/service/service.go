package connectionapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkup/internal/core/apperror"
	"linkup/internal/core/connection"
	"linkup/internal/core/follower"
	"linkup/internal/core/pagination"
	"linkup/internal/logging"
	connectionPort "linkup/internal/ports/connection"
	profilePort "linkup/internal/ports/profile"
	"linkup/internal/ports/uow"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const unknownUser = "Unknown User"

var errNoLongerPending = apperror.Forbidden("connection request is no longer pending")

// ConnectionService drives connection requests through Pending -> Accepted | Rejected | Cancelled.
type ConnectionService struct {
	uow         uow.UnitOfWork
	isDuplicate func(error) bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewConnectionService builds the service. isDuplicate classifies unique-key violations raised
// by a concurrent accept; nil treats none as such.
func NewConnectionService(u uow.UnitOfWork, isDuplicate func(error) bool, logger *zap.Logger) *ConnectionService {
	if isDuplicate == nil {
		isDuplicate = func(error) bool { return false }
	}
	return &ConnectionService{
		uow:         u,
		isDuplicate: isDuplicate,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ConnectionService) Send(ctx context.Context, senderID, receiverID uuid.UUID) (*connectionPort.RequestDTO, error) {
	if senderID == receiverID {
		return nil, apperror.Forbidden("you cannot send a connection request to yourself")
	}
	repos := s.uow.Repos()

	receiver, err := repos.Profiles.FindByUserID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("find receiver profile: %w", err)
	}
	if receiver == nil {
		return nil, apperror.NotFound("user", receiverID)
	}

	connected, err := repos.Connections.AreConnected(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check connection: %w", err)
	}
	if connected {
		return nil, apperror.Conflict("you are already connected with this user")
	}

	pending, err := repos.Requests.FindPendingBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("find pending request: %w", err)
	}
	if pending != nil {
		return nil, apperror.Conflict("a pending connection request already exists between you and this user")
	}

	req := &connection.Request{
		ID:         uuid.Must(uuid.NewV4()),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     connection.StatusPending,
	}
	if err := repos.Requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create connection request: %w", err)
	}

	logging.From(ctx, s.logger).Info("✅ Connection request sent",
		zap.String("requestID", req.ID.String()),
		zap.String("senderID", senderID.String()),
		zap.String("receiverID", receiverID.String()))

	return &connectionPort.RequestDTO{
		ID: req.ID.String(),
		User: profilePort.UserSummaryDTO{
			UserID:          receiverID.String(),
			Name:            receiver.FullName(),
			Headline:        receiver.Headline,
			ProfilePhotoURL: receiver.ProfilePhotoURL,
		},
		Status:    req.Status.String(),
		CreatedAt: req.CreatedAt,
	}, nil
}

// Accept connects both users and makes them follow each other, all in one transaction.
func (s *ConnectionService) Accept(ctx context.Context, requestID, actorID uuid.UUID) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		req, err := s.pendingFor(ctx, repos, requestID, actorID, asReceiver)
		if err != nil {
			return err
		}

		now := s.now()
		ok, err := repos.Requests.Transition(ctx, req.ID, connection.StatusAccepted, &now, now)
		if err != nil {
			return fmt.Errorf("accept request: %w", err)
		}
		if !ok {
			return errNoLongerPending
		}

		for _, pair := range [][2]uuid.UUID{{req.SenderID, req.ReceiverID}, {req.ReceiverID, req.SenderID}} {
			if err := s.connect(ctx, repos, pair[0], pair[1]); err != nil {
				return err
			}
			if err := s.follow(ctx, repos, pair[0], pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if s.isDuplicate(err) {
			return apperror.Wrap(apperror.KindConflict, "users are already connected", err)
		}
		return err
	}

	logging.From(ctx, s.logger).Info("✅ Connection request accepted", zap.String("requestID", requestID.String()))
	return nil
}

func (s *ConnectionService) connect(ctx context.Context, repos uow.Repositories, from, to uuid.UUID) error {
	exists, err := repos.Connections.Exists(ctx, from, to)
	if err != nil {
		return fmt.Errorf("check connection: %w", err)
	}
	if exists {
		return nil
	}
	c := &connection.Connection{ID: uuid.Must(uuid.NewV4()), UserID: from, ConnectedUserID: to}
	if err := repos.Connections.Add(ctx, c); err != nil {
		return fmt.Errorf("add connection: %w", err)
	}
	return nil
}

func (s *ConnectionService) follow(ctx context.Context, repos uow.Repositories, from, to uuid.UUID) error {
	f, err := repos.Followers.GetFollow(ctx, from, to)
	if err != nil {
		return fmt.Errorf("check follow: %w", err)
	}
	if f != nil {
		return nil
	}
	edge := &follower.Follower{ID: uuid.Must(uuid.NewV4()), FollowerID: from, FollowedID: to}
	if err := repos.Followers.FollowUser(ctx, edge); err != nil {
		return fmt.Errorf("add follow: %w", err)
	}
	return nil
}

func (s *ConnectionService) Reject(ctx context.Context, requestID, actorID uuid.UUID) error {
	now := s.now()
	return s.respond(ctx, requestID, actorID, asReceiver, connection.StatusRejected, &now)
}

// Cancel withdraws a request. RespondedAt stays nil since the receiver never responded.
func (s *ConnectionService) Cancel(ctx context.Context, requestID, actorID uuid.UUID) error {
	return s.respond(ctx, requestID, actorID, asSender, connection.StatusCancelled, nil)
}

func (s *ConnectionService) respond(ctx context.Context, requestID, actorID uuid.UUID, role party, to connection.RequestStatus, respondedAt *time.Time) error {
	repos := s.uow.Repos()
	req, err := s.pendingFor(ctx, repos, requestID, actorID, role)
	if err != nil {
		return err
	}
	ok, err := repos.Requests.Transition(ctx, req.ID, to, respondedAt, s.now())
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if !ok {
		return errNoLongerPending
	}
	logging.From(ctx, s.logger).Info("Connection request updated",
		zap.String("requestID", requestID.String()), zap.String("status", to.String()))
	return nil
}

type party int

const (
	asSender party = iota
	asReceiver
)

// pendingFor loads the request and checks that actor plays role and the request is Pending.
func (s *ConnectionService) pendingFor(ctx context.Context, repos uow.Repositories, requestID, actorID uuid.UUID, role party) (*connection.Request, error) {
	req, err := repos.Requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("find request: %w", err)
	}
	if req == nil {
		return nil, apperror.NotFound("connection request", requestID)
	}
	switch role {
	case asReceiver:
		if req.ReceiverID != actorID {
			return nil, apperror.Forbidden("only the receiver can respond to this request")
		}
	case asSender:
		if req.SenderID != actorID {
			return nil, apperror.Forbidden("only the sender can cancel this request")
		}
	}
	if req.Status.Terminal() {
		return nil, errNoLongerPending
	}
	return req, nil
}

// RemoveConnection disconnects both users and drops their mutual follows.
func (s *ConnectionService) RemoveConnection(ctx context.Context, actorID, targetID uuid.UUID) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		connected, err := repos.Connections.AreConnected(ctx, actorID, targetID)
		if err != nil {
			return fmt.Errorf("check connection: %w", err)
		}
		if !connected {
			return apperror.NotFound("connection", targetID)
		}
		if _, err := repos.Connections.DeletePair(ctx, actorID, targetID); err != nil {
			return fmt.Errorf("delete connection: %w", err)
		}
		if _, err := repos.Followers.DeleteMutual(ctx, actorID, targetID); err != nil {
			return fmt.Errorf("delete follows: %w", err)
		}
		return nil
	})
}

func (s *ConnectionService) ListConnections(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*connectionPort.ConnectionDTO], error) {
	repos := s.uow.Repos()
	rows, total, err := repos.Connections.List(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ConnectedUserID)
	}
	cards, err := profilePort.Summaries(ctx, repos.Profiles, ids, unknownUser)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	out := make([]*connectionPort.ConnectionDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, &connectionPort.ConnectionDTO{User: cards[c.ConnectedUserID], ConnectedAt: c.CreatedAt})
	}
	return pagination.NewResult(out, p, total), nil
}

func (s *ConnectionService) IncomingRequests(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*connectionPort.RequestDTO], error) {
	repos := s.uow.Repos()
	rows, total, err := repos.Requests.Incoming(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return s.requestPage(ctx, repos, rows, total, p, func(r *connection.Request) uuid.UUID { return r.SenderID })
}

func (s *ConnectionService) OutgoingRequests(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*connectionPort.RequestDTO], error) {
	repos := s.uow.Repos()
	rows, total, err := repos.Requests.Outgoing(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	return s.requestPage(ctx, repos, rows, total, p, func(r *connection.Request) uuid.UUID { return r.ReceiverID })
}

// requestPage attaches the other party's profile card to each request.
func (s *ConnectionService) requestPage(ctx context.Context, repos uow.Repositories, rows []*connection.Request, total int64, p pagination.Params, other func(*connection.Request) uuid.UUID) (*pagination.Result[*connectionPort.RequestDTO], error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, other(r))
	}
	cards, err := profilePort.Summaries(ctx, repos.Profiles, ids, unknownUser)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	out := make([]*connectionPort.RequestDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, &connectionPort.RequestDTO{
			ID:          r.ID.String(),
			User:        cards[other(r)],
			Status:      r.Status.String(),
			CreatedAt:   r.CreatedAt,
			RespondedAt: r.RespondedAt,
		})
	}
	return pagination.NewResult(out, p, total), nil
}

// IsNoLongerPending reports the error returned when a request already left Pending.
func IsNoLongerPending(err error) bool {
	return errors.Is(err, errNoLongerPending)
}
