package connectionapp

import (
	"context"
	"testing"
	"time"

	"linkup/internal/core/apperror"
	"linkup/internal/core/connection"
	"linkup/internal/core/pagination"
	"linkup/internal/core/user"
	"linkup/internal/testutil/memstore"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*ConnectionService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := NewConnectionService(store.UnitOfWork(), memstore.IsDuplicate, zap.NewNop())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc, store
}

func sendRequest(t *testing.T, svc *ConnectionService, from, to uuid.UUID) uuid.UUID {
	t.Helper()
	dto, err := svc.Send(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	id, err := uuid.FromString(dto.ID)
	if err != nil {
		t.Fatalf("request id %q: %v", dto.ID, err)
	}
	return id
}

func TestSendAcceptConnectsAndFollowsBothWays(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)

	reqID := sendRequest(t, svc, alice, bob)

	incoming, err := svc.IncomingRequests(ctx, bob, pagination.New(1, 10))
	if err != nil {
		t.Fatalf("IncomingRequests: %v", err)
	}
	if incoming.Total != 1 || incoming.Items[0].User.Name != "Alice A" || incoming.Items[0].Status != "pending" {
		t.Fatalf("unexpected incoming page: %+v", incoming)
	}

	if err := svc.Accept(ctx, reqID, bob); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	repos := store.Repos()
	for _, pair := range [][2]uuid.UUID{{alice, bob}, {bob, alice}} {
		ok, _ := repos.Connections.Exists(ctx, pair[0], pair[1])
		if !ok {
			t.Fatalf("missing connection %s -> %s", pair[0], pair[1])
		}
		f, _ := repos.Followers.GetFollow(ctx, pair[0], pair[1])
		if f == nil {
			t.Fatalf("missing follow %s -> %s", pair[0], pair[1])
		}
	}

	req, _ := repos.Requests.FindByID(ctx, reqID)
	if req.Status != connection.StatusAccepted || req.RespondedAt == nil {
		t.Fatalf("expected accepted with a response time, got %+v", req)
	}

	list, err := svc.ListConnections(ctx, alice, pagination.New(1, 10))
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if list.Total != 1 || list.Items[0].User.UserID != bob.String() {
		t.Fatalf("unexpected connections page: %+v", list)
	}

	incoming, _ = svc.IncomingRequests(ctx, bob, pagination.New(1, 10))
	if incoming.Total != 0 {
		t.Fatalf("accepted requests must leave the incoming list")
	}
}

func TestAcceptTwiceIsForbidden(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)
	reqID := sendRequest(t, svc, alice, bob)

	if err := svc.Accept(ctx, reqID, bob); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	err := svc.Accept(ctx, reqID, bob)
	if !apperror.Is(err, apperror.KindForbidden) || !IsNoLongerPending(err) {
		t.Fatalf("expected no-longer-pending, got %v", err)
	}
	if got := len(store.Dump().Connections); got != 2 {
		t.Fatalf("expected exactly 2 connection rows, got %d", got)
	}
}

func TestOnlyTheRightPartyMayRespond(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)
	carol := store.SeedUser("c@example.com", "Carol", "C", user.RoleUser, true)
	reqID := sendRequest(t, svc, alice, bob)

	if err := svc.Accept(ctx, reqID, alice); !apperror.Is(err, apperror.KindForbidden) {
		t.Fatalf("sender accepting: expected forbidden, got %v", err)
	}
	if err := svc.Reject(ctx, reqID, carol); !apperror.Is(err, apperror.KindForbidden) {
		t.Fatalf("stranger rejecting: expected forbidden, got %v", err)
	}
	if err := svc.Cancel(ctx, reqID, bob); !apperror.Is(err, apperror.KindForbidden) {
		t.Fatalf("receiver cancelling: expected forbidden, got %v", err)
	}
	if err := svc.Accept(ctx, uuid.Must(uuid.NewV4()), bob); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("unknown request: expected not found, got %v", err)
	}
}

func TestRejectAndCancelAreTerminal(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)

	rejected := sendRequest(t, svc, alice, bob)
	if err := svc.Reject(ctx, rejected, bob); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	req, _ := store.Repos().Requests.FindByID(ctx, rejected)
	if req.Status != connection.StatusRejected || req.RespondedAt == nil {
		t.Fatalf("expected rejected with a response time, got %+v", req)
	}
	if err := svc.Accept(ctx, rejected, bob); !IsNoLongerPending(err) {
		t.Fatalf("accepting a rejected request: expected no-longer-pending, got %v", err)
	}

	// a new request may follow a rejected one
	cancelled := sendRequest(t, svc, alice, bob)
	if err := svc.Cancel(ctx, cancelled, alice); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	req, _ = store.Repos().Requests.FindByID(ctx, cancelled)
	if req.Status != connection.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", req.Status)
	}
	if req.RespondedAt != nil {
		t.Fatalf("cancel must leave RespondedAt nil, got %v", req.RespondedAt)
	}
	if err := svc.Reject(ctx, cancelled, bob); !IsNoLongerPending(err) {
		t.Fatalf("rejecting a cancelled request: expected no-longer-pending, got %v", err)
	}
	if len(store.Dump().Connections) != 0 {
		t.Fatalf("no connection may exist after reject and cancel")
	}
}

func TestSendGuards(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)

	if _, err := svc.Send(ctx, alice, alice); !apperror.Is(err, apperror.KindForbidden) {
		t.Fatalf("self request: expected forbidden, got %v", err)
	}
	if _, err := svc.Send(ctx, alice, uuid.Must(uuid.NewV4())); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("unknown receiver: expected not found, got %v", err)
	}

	reqID := sendRequest(t, svc, alice, bob)
	if _, err := svc.Send(ctx, alice, bob); !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("duplicate request: expected conflict, got %v", err)
	}
	if _, err := svc.Send(ctx, bob, alice); !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("reverse request while pending: expected conflict, got %v", err)
	}

	if err := svc.Accept(ctx, reqID, bob); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := svc.Send(ctx, bob, alice); !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("already connected: expected conflict, got %v", err)
	}
}

func TestAcceptKeepsExistingFollow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)

	reqID := sendRequest(t, svc, alice, bob)
	// alice already follows bob
	if err := svc.follow(ctx, store.Repos(), alice, bob); err != nil {
		t.Fatalf("follow: %v", err)
	}

	if err := svc.Accept(ctx, reqID, bob); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got := len(store.Dump().Followers); got != 2 {
		t.Fatalf("expected 2 follow rows, got %d", got)
	}
}

func TestAcceptFailureRollsBack(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)
	reqID := sendRequest(t, svc, alice, bob)

	store.FailOn("Followers.FollowUser", memstore.ErrDuplicate, 1)
	err := svc.Accept(ctx, reqID, bob)
	if !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("expected a conflict from the duplicate key, got %v", err)
	}

	req, _ := store.Repos().Requests.FindByID(ctx, reqID)
	if req.Status != connection.StatusPending {
		t.Fatalf("request must still be pending after rollback, got %s", req.Status)
	}
	if n := len(store.Dump().Connections); n != 0 {
		t.Fatalf("expected no connections after rollback, got %d", n)
	}
}

func TestRemoveConnection(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)
	reqID := sendRequest(t, svc, alice, bob)
	if err := svc.Accept(ctx, reqID, bob); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if err := svc.RemoveConnection(ctx, bob, alice); err != nil {
		t.Fatalf("RemoveConnection: %v", err)
	}
	snap := store.Dump()
	if len(snap.Connections) != 0 || len(snap.Followers) != 0 {
		t.Fatalf("expected connections and follows gone, got %d / %d", len(snap.Connections), len(snap.Followers))
	}
	if err := svc.RemoveConnection(ctx, bob, alice); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("second remove: expected not found, got %v", err)
	}
}

func TestOutgoingRequestsShowsUnknownUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := store.SeedUser("a@example.com", "Alice", "A", user.RoleUser, true)
	bob := store.SeedUser("b@example.com", "Bob", "B", user.RoleUser, true)
	sendRequest(t, svc, alice, bob)

	if _, err := store.Repos().Profiles.DeleteByUserID(ctx, bob); err != nil {
		t.Fatal(err)
	}
	out, err := svc.OutgoingRequests(ctx, alice, pagination.New(1, 10))
	if err != nil {
		t.Fatalf("OutgoingRequests: %v", err)
	}
	if out.Total != 1 || out.Items[0].User.Name != unknownUser {
		t.Fatalf("expected a placeholder card, got %+v", out.Items)
	}
}
