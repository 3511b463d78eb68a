package accountapp

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	redisadapter "linkup/internal/adapters/redis"
	"linkup/internal/core/account"
	"linkup/internal/core/apperror"
	"linkup/internal/core/connection"
	"linkup/internal/core/fanoutqueue"
	"linkup/internal/core/follower"
	"linkup/internal/core/post"
	"linkup/internal/core/user"
	"linkup/internal/retry"
	"linkup/internal/testutil/memstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

var errDeadlock = errors.New("deadlock found when trying to get lock")

func newID() uuid.UUID { return uuid.Must(uuid.NewV4()) }

type fixture struct {
	store  *memstore.Store
	mr     *miniredis.Miniredis
	svc    *DeletionService
	victim uuid.UUID
	other  uuid.UUID
	admin  uuid.UUID
	// otherPost belongs to other and must survive the purge.
	otherPost uuid.UUID
	// otherComment is other's own top-level comment on otherPost.
	otherComment uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	policy := retry.Policy{
		MaxAttempts: 3,
		Retryable:   func(err error) bool { return errors.Is(err, errDeadlock) },
	}
	f := &fixture{
		store: store,
		mr:    mr,
		svc:   NewDeletionService(store.UnitOfWork(), redisadapter.NewTimelineRepositoryRedis(rdb), policy, zap.NewNop()),
	}
	f.victim = store.SeedUser("victim@example.com", "Vic", "Tim", user.RoleUser, true)
	f.other = store.SeedUser("other@example.com", "Oth", "Er", user.RoleUser, true)
	f.admin = store.SeedUser("admin@example.com", "Ad", "Min", user.RoleAdmin, true)

	r := store.Repos()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	victimPost := &post.Post{ID: newID(), AuthorID: f.victim, Text: "hello", Visibility: post.VisibilityPublic}
	must(r.Posts.Create(ctx, victimPost))
	f.otherPost = newID()
	must(r.Posts.Create(ctx, &post.Post{ID: f.otherPost, AuthorID: f.other, Text: "mine", Visibility: post.VisibilityPublic}))

	must(r.Media.AddBatch(ctx, []*post.Media{{ID: newID(), PostID: victimPost.ID, Type: post.MediaImage, URL: "https://cdn/x.png", Order: 1}}))
	must(r.Reactions.Create(ctx, &post.Reaction{ID: newID(), PostID: victimPost.ID, UserID: f.other, Type: post.ReactionLike}))
	must(r.Reactions.Create(ctx, &post.Reaction{ID: newID(), PostID: f.otherPost, UserID: f.victim, Type: post.ReactionLove}))

	// other comments on the victim's post, the victim replies to it
	onVictimPost := &post.Comment{ID: newID(), PostID: victimPost.ID, AuthorID: f.other, Text: "nice"}
	must(r.Comments.Create(ctx, onVictimPost))
	must(r.Comments.Create(ctx, &post.Comment{ID: newID(), PostID: victimPost.ID, AuthorID: f.victim, ParentCommentID: &onVictimPost.ID, Text: "thanks"}))

	// the victim comments on other's post and other replies to it
	victimTop := &post.Comment{ID: newID(), PostID: f.otherPost, AuthorID: f.victim, Text: "first"}
	must(r.Comments.Create(ctx, victimTop))
	must(r.Comments.Create(ctx, &post.Comment{ID: newID(), PostID: f.otherPost, AuthorID: f.other, ParentCommentID: &victimTop.ID, Text: "reply"}))
	f.otherComment = newID()
	must(r.Comments.Create(ctx, &post.Comment{ID: f.otherComment, PostID: f.otherPost, AuthorID: f.other, Text: "own"}))
	otherTop := &post.Comment{ID: newID(), PostID: f.otherPost, AuthorID: f.other, Text: "thread"}
	must(r.Comments.Create(ctx, otherTop))
	must(r.Comments.Create(ctx, &post.Comment{ID: newID(), PostID: f.otherPost, AuthorID: f.victim, ParentCommentID: &otherTop.ID, Text: "victim reply"}))

	must(r.Followers.FollowUser(ctx, &follower.Follower{ID: newID(), FollowerID: f.victim, FollowedID: f.other}))
	must(r.Followers.FollowUser(ctx, &follower.Follower{ID: newID(), FollowerID: f.other, FollowedID: f.victim}))
	must(r.Connections.Add(ctx, &connection.Connection{ID: newID(), UserID: f.victim, ConnectedUserID: f.other}))
	must(r.Connections.Add(ctx, &connection.Connection{ID: newID(), UserID: f.other, ConnectedUserID: f.victim}))
	must(r.Requests.Create(ctx, &connection.Request{ID: newID(), SenderID: f.admin, ReceiverID: f.victim, Status: connection.StatusPending}))
	must(r.ResetCodes.Create(ctx, &user.PasswordResetCode{ID: newID(), UserID: f.victim, CodeHash: "h", ExpiresAt: time.Now().Add(time.Hour)}))
	must(r.Fanout.Create(ctx, &fanoutqueue.FanoutQueue{ID: newID(), PostID: victimPost.ID, UserID: f.victim, Status: fanoutqueue.StatusPending}))

	mr.ZAdd("timeline:"+f.victim.String(), 1, victimPost.ID.String())
	return f
}

func TestDeleteAccount_RemovesEveryReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.svc.DeleteMyAccount(ctx, f.victim)
	if err != nil {
		t.Fatalf("DeleteMyAccount: %v", err)
	}
	if report.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", report.Attempts)
	}
	if got := f.store.Mentions(f.victim); len(got) != 0 {
		t.Fatalf("rows still reference the user: %v", got)
	}
	if got := f.store.Dangling(); len(got) != 0 {
		t.Fatalf("dangling rows: %v", got)
	}

	snap := f.store.Dump()
	if _, ok := snap.Posts[f.otherPost]; !ok {
		t.Fatalf("other user's post was deleted")
	}
	if _, ok := snap.Comments[f.otherComment]; !ok {
		t.Fatalf("other user's own comment was deleted")
	}
	if f.mr.Exists("timeline:" + f.victim.String()) {
		t.Fatalf("timeline key survived")
	}

	want := map[string]int64{
		account.StepPostReactions:         1,
		account.StepPostReplies:           1,
		account.StepPostTopLevelComments:  1,
		account.StepPostMedia:             1,
		account.StepPostFanout:            1,
		account.StepPosts:                 1,
		account.StepUserReactions:         1,
		account.StepUserReplies:           1,
		account.StepRepliesToUserComments: 1,
		account.StepUserTopLevelComments:  1,
		account.StepFollows:               2,
		account.StepConnections:           2,
		account.StepConnectionRequests:    1,
		account.StepPasswordResetCodes:    1,
		account.StepProfile:               1,
		account.StepUser:                  1,
	}
	for step, rows := range want {
		if got := report.Rows(step); got != rows {
			t.Errorf("step %s: expected %d rows, got %d", step, rows, got)
		}
	}
	if len(report.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d: %+v", len(want), len(report.Steps), report.Steps)
	}
}

func TestDeleteAccount_StepOrder(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.DeleteAccount(context.Background(), f.victim)
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	order := []string{
		account.StepPostReactions, account.StepPostReplies, account.StepPostTopLevelComments,
		account.StepPostMedia, account.StepPostFanout, account.StepPosts,
		account.StepUserReactions, account.StepUserReplies, account.StepRepliesToUserComments,
		account.StepUserTopLevelComments, account.StepFollows, account.StepConnections,
		account.StepConnectionRequests, account.StepPasswordResetCodes, account.StepProfile, account.StepUser,
	}
	if len(report.Steps) != len(order) {
		t.Fatalf("expected %d steps, got %d", len(order), len(report.Steps))
	}
	for i, step := range report.Steps {
		if step.Name != order[i] {
			t.Fatalf("step %d: expected %s, got %s", i, order[i], step.Name)
		}
	}
}

func TestDeleteAccount_FailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	before := f.store.Dump()

	boom := errors.New("constraint failed")
	f.store.FailOn("Profiles.DeleteByUserID", boom, 0)

	_, err := f.svc.DeleteAccount(context.Background(), f.victim)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the injected error, got %v", err)
	}
	if !reflect.DeepEqual(before, f.store.Dump()) {
		t.Fatalf("store changed after a failed deletion")
	}
	if !f.mr.Exists("timeline:" + f.victim.String()) {
		t.Fatalf("timeline dropped although the deletion rolled back")
	}
	// permanent errors are not retried
	if got := f.store.Calls("Profiles.DeleteByUserID"); got != 1 {
		t.Fatalf("expected one call, got %d", got)
	}
}

func TestDeleteAccount_CommitFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	before := f.store.Dump()
	f.store.FailOn(memstore.OpCommit, errors.New("commit lost"), 0)

	if _, err := f.svc.DeleteAccount(context.Background(), f.victim); err == nil {
		t.Fatalf("expected an error")
	}
	if !reflect.DeepEqual(before, f.store.Dump()) {
		t.Fatalf("store changed after a failed commit")
	}
}

func TestDeleteAccount_TransientErrorRestartsFromFirstStep(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("Users.Delete", errDeadlock, 1)

	report, err := f.svc.DeleteAccount(context.Background(), f.victim)
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if report.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", report.Attempts)
	}
	if got := f.store.Calls("Posts.IDsByAuthor"); got != 2 {
		t.Fatalf("expected the purge to restart from the top, IDsByAuthor ran %d times", got)
	}
	// the first attempt was rolled back so the second deletes the same rows
	if got := report.Rows(account.StepPostReactions); got != 1 {
		t.Fatalf("expected post reactions deleted in the committed attempt, got %d", got)
	}
	if got := f.store.Mentions(f.victim); len(got) != 0 {
		t.Fatalf("rows still reference the user: %v", got)
	}
}

func TestDeleteAccount_TransientExhaustedIsReported(t *testing.T) {
	f := newFixture(t)
	before := f.store.Dump()
	f.store.FailOn("Followers.DeleteByUser", errDeadlock, 0)

	report, err := f.svc.DeleteAccount(context.Background(), f.victim)
	if !apperror.Is(err, apperror.KindTransient) {
		t.Fatalf("expected a transient error, got %v", err)
	}
	if report.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", report.Attempts)
	}
	if !reflect.DeepEqual(before, f.store.Dump()) {
		t.Fatalf("store changed after exhausted retries")
	}
}

func TestDeleteAccount_SecondCallDeletesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.DeleteAccount(ctx, f.victim); err != nil {
		t.Fatalf("first DeleteAccount: %v", err)
	}
	report, err := f.svc.DeleteAccount(ctx, f.victim)
	if err != nil {
		t.Fatalf("second DeleteAccount: %v", err)
	}
	if report.Total() != 0 {
		t.Fatalf("expected zero rows on the second call, got %d", report.Total())
	}

	if _, err := f.svc.DeleteMyAccount(ctx, f.victim); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("expected not found for a deleted caller, got %v", err)
	}
}

func TestDeleteAccount_UserWithoutContent(t *testing.T) {
	store := memstore.New()
	svc := NewDeletionService(store.UnitOfWork(), nil, retry.Policy{MaxAttempts: 1}, zap.NewNop())
	id := store.SeedUser("lonely@example.com", "Lo", "Nely", user.RoleUser, false)

	report, err := svc.DeleteAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if report.Rows(account.StepPosts) != 0 || report.Rows(account.StepUser) != 1 || report.Rows(account.StepProfile) != 1 {
		t.Fatalf("unexpected report: %+v", report.Steps)
	}
	if store.Dump().Rows() != 0 {
		t.Fatalf("expected an empty store")
	}
}

func TestAdminDeleteUser_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	super := f.store.SeedUser("root@example.com", "Su", "Per", user.RoleSuperAdmin, true)

	if _, err := f.svc.AdminDeleteUser(ctx, f.admin, f.admin); !apperror.Is(err, apperror.KindForbidden) {
		t.Fatalf("self delete: expected forbidden, got %v", err)
	}
	if _, err := f.svc.AdminDeleteUser(ctx, f.admin, super); !apperror.Is(err, apperror.KindForbidden) {
		t.Fatalf("superadmin target: expected forbidden, got %v", err)
	}
	if _, err := f.svc.AdminDeleteUser(ctx, f.admin, newID()); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("missing target: expected not found, got %v", err)
	}

	report, err := f.svc.AdminDeleteUser(ctx, f.admin, f.victim)
	if err != nil {
		t.Fatalf("AdminDeleteUser: %v", err)
	}
	if report.Rows(account.StepUser) != 1 {
		t.Fatalf("expected the user row deleted")
	}
	if got := f.store.Mentions(f.victim); len(got) != 0 {
		t.Fatalf("rows still reference the user: %v", got)
	}
}

func TestDeleteAccount_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.DeleteAccount(ctx, f.victim); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.store.Mentions(f.victim)) == 0 {
		t.Fatalf("nothing should be deleted with a cancelled context")
	}
}
