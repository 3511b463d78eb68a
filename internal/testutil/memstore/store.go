// Package memstore keeps every repository port in memory so services can be tested without a database.
//
// WithinTx snapshots the whole store and restores it when fn fails, which gives the same
// all-or-nothing outcome as a real transaction. Foreign keys are not enforced; use Mentions
// and Dump to check what a service left behind.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"linkup/internal/core/connection"
	"linkup/internal/core/fanoutqueue"
	"linkup/internal/core/follower"
	"linkup/internal/core/pagination"
	"linkup/internal/core/post"
	"linkup/internal/core/profile"
	"linkup/internal/core/user"
	"linkup/internal/ports/uow"

	"github.com/gofrs/uuid"
)

// ErrDuplicate is returned when a unique key would be violated.
var ErrDuplicate = errors.New("memstore: duplicate key")

func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }

// OpCommit names the commit of WithinTx for FailOn.
const OpCommit = "Tx.Commit"

// Snapshot is a value copy of every table. Two snapshots compare with reflect.DeepEqual.
type Snapshot struct {
	Users       map[uuid.UUID]user.User
	ResetCodes  map[uuid.UUID]user.PasswordResetCode
	Profiles    map[uuid.UUID]profile.Profile
	Posts       map[uuid.UUID]post.Post
	Media       map[uuid.UUID]post.Media
	Comments    map[uuid.UUID]post.Comment
	Reactions   map[uuid.UUID]post.Reaction
	Followers   map[uuid.UUID]follower.Follower
	Connections map[uuid.UUID]connection.Connection
	Requests    map[uuid.UUID]connection.Request
	Fanout      map[uuid.UUID]fanoutqueue.FanoutQueue
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Users:       map[uuid.UUID]user.User{},
		ResetCodes:  map[uuid.UUID]user.PasswordResetCode{},
		Profiles:    map[uuid.UUID]profile.Profile{},
		Posts:       map[uuid.UUID]post.Post{},
		Media:       map[uuid.UUID]post.Media{},
		Comments:    map[uuid.UUID]post.Comment{},
		Reactions:   map[uuid.UUID]post.Reaction{},
		Followers:   map[uuid.UUID]follower.Follower{},
		Connections: map[uuid.UUID]connection.Connection{},
		Requests:    map[uuid.UUID]connection.Request{},
		Fanout:      map[uuid.UUID]fanoutqueue.FanoutQueue{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		Users:       copyMap(s.Users),
		ResetCodes:  copyMap(s.ResetCodes),
		Profiles:    copyMap(s.Profiles),
		Posts:       copyMap(s.Posts),
		Media:       copyMap(s.Media),
		Comments:    copyMap(s.Comments),
		Reactions:   copyMap(s.Reactions),
		Followers:   copyMap(s.Followers),
		Connections: copyMap(s.Connections),
		Requests:    copyMap(s.Requests),
		Fanout:      copyMap(s.Fanout),
	}
}

// Rows is the number of rows across all tables.
func (s *Snapshot) Rows() int {
	return len(s.Users) + len(s.ResetCodes) + len(s.Profiles) + len(s.Posts) + len(s.Media) +
		len(s.Comments) + len(s.Reactions) + len(s.Followers) + len(s.Connections) +
		len(s.Requests) + len(s.Fanout)
}

type failure struct {
	err       error
	remaining int
}

type Store struct {
	txMu sync.Mutex

	mu       sync.Mutex
	data     *Snapshot
	failures map[string]*failure
	calls    map[string]int
	clock    time.Time
}

func New() *Store {
	return &Store{
		data:     emptySnapshot(),
		failures: map[string]*failure{},
		calls:    map[string]int{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailOn makes the next `times` calls of op return err. times <= 0 fails every call.
// Ops are named after the Repositories field and method, e.g. "Users.Delete".
func (s *Store) FailOn(op string, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if times <= 0 {
		times = -1
	}
	s.failures[op] = &failure{err: err, remaining: times}
}

// Calls reports how many times op was invoked, failed calls included.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) Dump() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

// enter records op and returns the injected failure, if any. s.mu must be held.
func (s *Store) enter(ctx context.Context, op string) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	f, ok := s.failures[op]
	if !ok || f.remaining == 0 {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.err
}

// tick advances the store clock so rows created in sequence sort deterministically.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *Store) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.tick()
	}
}

// SeedUser inserts a user with its profile and returns the id.
func (s *Store) SeedUser(email, firstName, lastName, role string, public bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.Must(uuid.NewV4())
	now := s.tick()
	s.data.Users[id] = user.User{ID: id, Email: email, PasswordHash: "seeded", Role: role, CreatedAt: now, UpdatedAt: now}
	s.data.Profiles[id] = profile.Profile{UserID: id, FirstName: firstName, LastName: lastName, IsPublic: public, CreatedAt: now, UpdatedAt: now}
	return id
}

// Mentions lists the tables holding at least one row that references userID.
func (s *Store) Mentions(userID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	var out []string
	add := func(table string, hit bool) {
		if hit {
			out = append(out, table)
		}
	}
	_, hasUser := d.Users[userID]
	add("users", hasUser)
	_, hasProfile := d.Profiles[userID]
	add("profiles", hasProfile)
	add("password_reset_codes", anyOf(d.ResetCodes, func(c user.PasswordResetCode) bool { return c.UserID == userID }))
	add("posts", anyOf(d.Posts, func(p post.Post) bool { return p.AuthorID == userID }))
	add("comments", anyOf(d.Comments, func(c post.Comment) bool { return c.AuthorID == userID }))
	add("reactions", anyOf(d.Reactions, func(r post.Reaction) bool { return r.UserID == userID }))
	add("followers", anyOf(d.Followers, func(f follower.Follower) bool {
		return f.FollowerID == userID || f.FollowedID == userID
	}))
	add("connections", anyOf(d.Connections, func(c connection.Connection) bool {
		return c.UserID == userID || c.ConnectedUserID == userID
	}))
	add("connection_requests", anyOf(d.Requests, func(r connection.Request) bool {
		return r.SenderID == userID || r.ReceiverID == userID
	}))
	add("fanout_queues", anyOf(d.Fanout, func(f fanoutqueue.FanoutQueue) bool { return f.UserID == userID }))
	return out
}

// Dangling lists rows whose post or parent comment no longer exists.
func (s *Store) Dangling() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data
	var out []string
	postGone := func(id uuid.UUID) bool { _, ok := d.Posts[id]; return !ok }
	for id, m := range d.Media {
		if postGone(m.PostID) {
			out = append(out, "post_media "+id.String())
		}
	}
	for id, c := range d.Comments {
		if postGone(c.PostID) {
			out = append(out, "comments "+id.String())
		}
		if c.ParentCommentID != nil {
			if _, ok := d.Comments[*c.ParentCommentID]; !ok {
				out = append(out, "comments parent "+id.String())
			}
		}
	}
	for id, r := range d.Reactions {
		if postGone(r.PostID) {
			out = append(out, "reactions "+id.String())
		}
	}
	for id, f := range d.Fanout {
		if postGone(f.PostID) {
			out = append(out, "fanout_queues "+id.String())
		}
	}
	return out
}

func anyOf[V any](m map[uuid.UUID]V, pred func(V) bool) bool {
	for _, v := range m {
		if pred(v) {
			return true
		}
	}
	return false
}

// rowsWhere returns pointers to copies of the matching rows.
func rowsWhere[V any](m map[uuid.UUID]V, pred func(V) bool) []*V {
	out := make([]*V, 0)
	for _, v := range m {
		if pred(v) {
			v := v
			out = append(out, &v)
		}
	}
	return out
}

func deleteWhere[V any](m map[uuid.UUID]V, pred func(V) bool) int64 {
	var n int64
	for id, v := range m {
		if pred(v) {
			delete(m, id)
			n++
		}
	}
	return n
}

func idsWhere[V any](m map[uuid.UUID]V, pred func(V) bool) []uuid.UUID {
	out := make([]uuid.UUID, 0)
	for id, v := range m {
		if pred(v) {
			out = append(out, id)
		}
	}
	return out
}

func inSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// byCreated orders rows on (created_at, id), newest first when desc is set.
func byCreated[V any](rows []*V, key func(*V) (time.Time, uuid.UUID), desc bool) []*V {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, ii := key(rows[i])
		tj, ij := key(rows[j])
		if !ti.Equal(tj) {
			if desc {
				return ti.After(tj)
			}
			return ti.Before(tj)
		}
		if desc {
			return ii.String() > ij.String()
		}
		return ii.String() < ij.String()
	})
	return rows
}

func pageOf[V any](rows []*V, p pagination.Params) ([]*V, int64) {
	total := int64(len(rows))
	start := p.Offset()
	if start > len(rows) {
		start = len(rows)
	}
	end := start + p.Limit()
	if end > len(rows) {
		end = len(rows)
	}
	return append(make([]*V, 0, end-start), rows[start:end]...), total
}

// UnitOfWork runs transactions against the snapshot store.
type UnitOfWork struct{ s *Store }

func (s *Store) UnitOfWork() *UnitOfWork { return &UnitOfWork{s: s} }

func (s *Store) Repos() uow.Repositories {
	return uow.Repositories{
		Users:       usersRepo{s},
		ResetCodes:  resetCodesRepo{s},
		Profiles:    profilesRepo{s},
		Posts:       postsRepo{s},
		Media:       mediaRepo{s},
		Comments:    commentsRepo{s},
		Reactions:   reactionsRepo{s},
		Followers:   followersRepo{s},
		Connections: connectionsRepo{s},
		Requests:    requestsRepo{s},
		Fanout:      fanoutRepo{s},
	}
}

func (u *UnitOfWork) Repos() uow.Repositories { return u.s.Repos() }

// WithinTx serializes transactions. A failing fn or commit restores the state seen at start.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	s := u.s
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	before := s.data.clone()
	s.mu.Unlock()

	err := fn(ctx, s.Repos())
	if err == nil {
		s.mu.Lock()
		err = s.enter(ctx, OpCommit)
		s.mu.Unlock()
	}
	if err != nil {
		s.mu.Lock()
		s.data = before
		s.mu.Unlock()
		return err
	}
	return nil
}
