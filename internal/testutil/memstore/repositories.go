package memstore

import (
	"context"
	"time"

	"linkup/internal/core/connection"
	"linkup/internal/core/fanoutqueue"
	"linkup/internal/core/follower"
	"linkup/internal/core/pagination"
	"linkup/internal/core/post"
	"linkup/internal/core/profile"
	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

type usersRepo struct{ s *Store }

func (r usersRepo) Create(ctx context.Context, u *user.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Users.Create"); err != nil {
		return err
	}
	if _, ok := s.data.Users[u.ID]; ok {
		return ErrDuplicate
	}
	if anyOf(s.data.Users, func(v user.User) bool { return v.Email == u.Email }) {
		return ErrDuplicate
	}
	s.stamp(&u.CreatedAt)
	u.UpdatedAt = u.CreatedAt
	s.data.Users[u.ID] = *u
	return nil
}

func (r usersRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Users.FindByID"); err != nil {
		return nil, err
	}
	v, ok := s.data.Users[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r usersRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Users.FindByEmail"); err != nil {
		return nil, err
	}
	rows := rowsWhere(s.data.Users, func(v user.User) bool { return v.Email == email })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r usersRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Users.UpdatePassword"); err != nil {
		return err
	}
	if v, ok := s.data.Users[id]; ok {
		v.PasswordHash = hash
		v.UpdatedAt = s.tick()
		s.data.Users[id] = v
	}
	return nil
}

func (r usersRepo) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Users.UpdateEmail"); err != nil {
		return err
	}
	if anyOf(s.data.Users, func(v user.User) bool { return v.Email == email && v.ID != id }) {
		return ErrDuplicate
	}
	if v, ok := s.data.Users[id]; ok {
		v.Email = email
		v.UpdatedAt = s.tick()
		s.data.Users[id] = v
	}
	return nil
}

func (r usersRepo) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Users.UpdateRole"); err != nil {
		return err
	}
	if v, ok := s.data.Users[id]; ok {
		v.Role = role
		v.UpdatedAt = s.tick()
		s.data.Users[id] = v
	}
	return nil
}

func (r usersRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Users.Delete"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Users, func(v user.User) bool { return v.ID == id }), nil
}

type resetCodesRepo struct{ s *Store }

func resetCodeKey(c *user.PasswordResetCode) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID }

func (r resetCodesRepo) Create(ctx context.Context, c *user.PasswordResetCode) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "ResetCodes.Create"); err != nil {
		return err
	}
	s.stamp(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	s.data.ResetCodes[c.ID] = *c
	return nil
}

func (r resetCodesRepo) FindActive(ctx context.Context, userID uuid.UUID, now time.Time) (*user.PasswordResetCode, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "ResetCodes.FindActive"); err != nil {
		return nil, err
	}
	rows := byCreated(rowsWhere(s.data.ResetCodes, func(c user.PasswordResetCode) bool {
		return c.UserID == userID && !c.IsUsed && c.ExpiresAt.After(now)
	}), resetCodeKey, true)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r resetCodesRepo) FindLatest(ctx context.Context, userID uuid.UUID) (*user.PasswordResetCode, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "ResetCodes.FindLatest"); err != nil {
		return nil, err
	}
	rows := byCreated(rowsWhere(s.data.ResetCodes, func(c user.PasswordResetCode) bool {
		return c.UserID == userID
	}), resetCodeKey, true)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r resetCodesRepo) Update(ctx context.Context, c *user.PasswordResetCode) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "ResetCodes.Update"); err != nil {
		return err
	}
	c.UpdatedAt = s.tick()
	s.data.ResetCodes[c.ID] = *c
	return nil
}

func (r resetCodesRepo) InvalidateAll(ctx context.Context, userID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "ResetCodes.InvalidateAll"); err != nil {
		return err
	}
	for id, c := range s.data.ResetCodes {
		if c.UserID == userID && !c.IsUsed {
			c.IsUsed = true
			s.data.ResetCodes[id] = c
		}
	}
	return nil
}

func (r resetCodesRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "ResetCodes.DeleteByUser"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.ResetCodes, func(c user.PasswordResetCode) bool { return c.UserID == userID }), nil
}

type profilesRepo struct{ s *Store }

func (r profilesRepo) Create(ctx context.Context, p *profile.Profile) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Profiles.Create"); err != nil {
		return err
	}
	if _, ok := s.data.Profiles[p.UserID]; ok {
		return ErrDuplicate
	}
	s.stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	s.data.Profiles[p.UserID] = *p
	return nil
}

func (r profilesRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Profiles.FindByUserID"); err != nil {
		return nil, err
	}
	v, ok := s.data.Profiles[userID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r profilesRepo) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*profile.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Profiles.FindByUserIDs"); err != nil {
		return nil, err
	}
	set := inSet(userIDs)
	return rowsWhere(s.data.Profiles, func(p profile.Profile) bool { return set[p.UserID] }), nil
}

func (r profilesRepo) Update(ctx context.Context, p *profile.Profile) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Profiles.Update"); err != nil {
		return err
	}
	p.UpdatedAt = s.tick()
	s.data.Profiles[p.UserID] = *p
	return nil
}

func (r profilesRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Profiles.DeleteByUserID"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Profiles, func(p profile.Profile) bool { return p.UserID == userID }), nil
}

type postsRepo struct{ s *Store }

func postKey(p *post.Post) (time.Time, uuid.UUID) { return p.CreatedAt, p.ID }

func (r postsRepo) Create(ctx context.Context, p *post.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.Create"); err != nil {
		return err
	}
	s.stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	s.data.Posts[p.ID] = *p
	return nil
}

func (r postsRepo) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.FindByID"); err != nil {
		return nil, err
	}
	v, ok := s.data.Posts[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r postsRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*post.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.FindByIDs"); err != nil {
		return nil, err
	}
	set := inSet(ids)
	return rowsWhere(s.data.Posts, func(p post.Post) bool { return set[p.ID] }), nil
}

func (r postsRepo) ListByAuthor(ctx context.Context, authorID uuid.UUID, visibilities []string, p pagination.Params) ([]*post.Post, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.ListByAuthor"); err != nil {
		return nil, 0, err
	}
	allowed := make(map[string]bool, len(visibilities))
	for _, v := range visibilities {
		allowed[v] = true
	}
	rows := byCreated(rowsWhere(s.data.Posts, func(v post.Post) bool {
		return v.AuthorID == authorID && allowed[v.Visibility]
	}), postKey, true)
	items, total := pageOf(rows, p)
	return items, total, nil
}

func (r postsRepo) Update(ctx context.Context, p *post.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.Update"); err != nil {
		return err
	}
	p.UpdatedAt = s.tick()
	s.data.Posts[p.ID] = *p
	return nil
}

func (r postsRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.Delete"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Posts, func(p post.Post) bool { return p.ID == id }), nil
}

func (r postsRepo) IDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.IDsByAuthor"); err != nil {
		return nil, err
	}
	return idsWhere(s.data.Posts, func(p post.Post) bool { return p.AuthorID == authorID }), nil
}

func (r postsRepo) DeleteByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Posts.DeleteByAuthor"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Posts, func(p post.Post) bool { return p.AuthorID == authorID }), nil
}

type mediaRepo struct{ s *Store }

func (r mediaRepo) AddBatch(ctx context.Context, items []*post.Media) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Media.AddBatch"); err != nil {
		return err
	}
	for _, m := range items {
		s.stamp(&m.CreatedAt)
		s.data.Media[m.ID] = *m
	}
	return nil
}

func (r mediaRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]*post.Media, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Media.ListByPost"); err != nil {
		return nil, err
	}
	rows := byCreated(rowsWhere(s.data.Media, func(m post.Media) bool { return m.PostID == postID }),
		func(m *post.Media) (time.Time, uuid.UUID) { return m.CreatedAt, m.ID }, false)
	// sort_order first, creation order breaks ties
	stableByOrder(rows)
	return rows, nil
}

func stableByOrder(rows []*post.Media) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].Order < rows[j-1].Order; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func (r mediaRepo) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Media.CountByPost"); err != nil {
		return 0, err
	}
	return int64(len(idsWhere(s.data.Media, func(m post.Media) bool { return m.PostID == postID }))), nil
}

func (r mediaRepo) DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Media.DeleteByPosts"); err != nil {
		return 0, err
	}
	set := inSet(postIDs)
	return deleteWhere(s.data.Media, func(m post.Media) bool { return set[m.PostID] }), nil
}

type commentsRepo struct{ s *Store }

func commentKey(c *post.Comment) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID }

func (r commentsRepo) Create(ctx context.Context, c *post.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.Create"); err != nil {
		return err
	}
	s.stamp(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	s.data.Comments[c.ID] = *c
	return nil
}

func (r commentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*post.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.FindByID"); err != nil {
		return nil, err
	}
	v, ok := s.data.Comments[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r commentsRepo) Update(ctx context.Context, c *post.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.Update"); err != nil {
		return err
	}
	c.UpdatedAt = s.tick()
	s.data.Comments[c.ID] = *c
	return nil
}

func (r commentsRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.Delete"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Comments, func(c post.Comment) bool { return c.ID == id }), nil
}

func (r commentsRepo) ListTopLevel(ctx context.Context, postID uuid.UUID, p pagination.Params) ([]*post.Comment, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.ListTopLevel"); err != nil {
		return nil, 0, err
	}
	rows := byCreated(rowsWhere(s.data.Comments, func(c post.Comment) bool {
		return c.PostID == postID && c.ParentCommentID == nil
	}), commentKey, false)
	items, total := pageOf(rows, p)
	return items, total, nil
}

func (r commentsRepo) ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]*post.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.ListReplies"); err != nil {
		return nil, err
	}
	set := inSet(parentIDs)
	return byCreated(rowsWhere(s.data.Comments, func(c post.Comment) bool {
		return c.ParentCommentID != nil && set[*c.ParentCommentID]
	}), commentKey, false), nil
}

func (r commentsRepo) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.CountByPost"); err != nil {
		return 0, err
	}
	return int64(len(idsWhere(s.data.Comments, func(c post.Comment) bool { return c.PostID == postID }))), nil
}

func (r commentsRepo) deleteMatching(ctx context.Context, op string, pred func(post.Comment) bool) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, op); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Comments, pred), nil
}

func (r commentsRepo) DeleteRepliesOnPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	set := inSet(postIDs)
	return r.deleteMatching(ctx, "Comments.DeleteRepliesOnPosts", func(c post.Comment) bool {
		return set[c.PostID] && c.ParentCommentID != nil
	})
}

func (r commentsRepo) DeleteTopLevelOnPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	set := inSet(postIDs)
	return r.deleteMatching(ctx, "Comments.DeleteTopLevelOnPosts", func(c post.Comment) bool {
		return set[c.PostID] && c.ParentCommentID == nil
	})
}

func (r commentsRepo) DeleteRepliesByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return r.deleteMatching(ctx, "Comments.DeleteRepliesByAuthor", func(c post.Comment) bool {
		return c.AuthorID == authorID && c.ParentCommentID != nil
	})
}

func (r commentsRepo) TopLevelIDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Comments.TopLevelIDsByAuthor"); err != nil {
		return nil, err
	}
	return idsWhere(s.data.Comments, func(c post.Comment) bool {
		return c.AuthorID == authorID && c.ParentCommentID == nil
	}), nil
}

func (r commentsRepo) DeleteRepliesTo(ctx context.Context, parentIDs []uuid.UUID) (int64, error) {
	set := inSet(parentIDs)
	return r.deleteMatching(ctx, "Comments.DeleteRepliesTo", func(c post.Comment) bool {
		return c.ParentCommentID != nil && set[*c.ParentCommentID]
	})
}

func (r commentsRepo) DeleteTopLevelByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return r.deleteMatching(ctx, "Comments.DeleteTopLevelByAuthor", func(c post.Comment) bool {
		return c.AuthorID == authorID && c.ParentCommentID == nil
	})
}

type reactionsRepo struct{ s *Store }

func (r reactionsRepo) Find(ctx context.Context, postID, userID uuid.UUID) (*post.Reaction, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Reactions.Find"); err != nil {
		return nil, err
	}
	rows := rowsWhere(s.data.Reactions, func(v post.Reaction) bool { return v.PostID == postID && v.UserID == userID })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r reactionsRepo) Create(ctx context.Context, v *post.Reaction) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Reactions.Create"); err != nil {
		return err
	}
	if anyOf(s.data.Reactions, func(x post.Reaction) bool { return x.PostID == v.PostID && x.UserID == v.UserID }) {
		return ErrDuplicate
	}
	s.stamp(&v.CreatedAt)
	v.UpdatedAt = v.CreatedAt
	s.data.Reactions[v.ID] = *v
	return nil
}

func (r reactionsRepo) Update(ctx context.Context, v *post.Reaction) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Reactions.Update"); err != nil {
		return err
	}
	v.UpdatedAt = s.tick()
	s.data.Reactions[v.ID] = *v
	return nil
}

func (r reactionsRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Reactions.Delete"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Reactions, func(v post.Reaction) bool { return v.ID == id }), nil
}

func (r reactionsRepo) CountsByPost(ctx context.Context, postID uuid.UUID) (map[string]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Reactions.CountsByPost"); err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	for _, v := range s.data.Reactions {
		if v.PostID == postID {
			counts[v.Type]++
		}
	}
	return counts, nil
}

func (r reactionsRepo) DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Reactions.DeleteByPosts"); err != nil {
		return 0, err
	}
	set := inSet(postIDs)
	return deleteWhere(s.data.Reactions, func(v post.Reaction) bool { return set[v.PostID] }), nil
}

func (r reactionsRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Reactions.DeleteByUser"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Reactions, func(v post.Reaction) bool { return v.UserID == userID }), nil
}

type followersRepo struct{ s *Store }

func followerKey(f *follower.Follower) (time.Time, uuid.UUID) { return f.CreatedAt, f.ID }

func (r followersRepo) FollowUser(ctx context.Context, f *follower.Follower) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.FollowUser"); err != nil {
		return err
	}
	if anyOf(s.data.Followers, func(x follower.Follower) bool {
		return x.FollowerID == f.FollowerID && x.FollowedID == f.FollowedID
	}) {
		return ErrDuplicate
	}
	s.stamp(&f.CreatedAt)
	s.data.Followers[f.ID] = *f
	return nil
}

func (r followersRepo) UnfollowUser(ctx context.Context, followerID, followedID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.UnfollowUser"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Followers, func(f follower.Follower) bool {
		return f.FollowerID == followerID && f.FollowedID == followedID
	}), nil
}

func (r followersRepo) GetFollow(ctx context.Context, followerID, followedID uuid.UUID) (*follower.Follower, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.GetFollow"); err != nil {
		return nil, err
	}
	rows := rowsWhere(s.data.Followers, func(f follower.Follower) bool {
		return f.FollowerID == followerID && f.FollowedID == followedID
	})
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r followersRepo) GetFollowers(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*follower.Follower, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.GetFollowers"); err != nil {
		return nil, 0, err
	}
	rows := byCreated(rowsWhere(s.data.Followers, func(f follower.Follower) bool { return f.FollowedID == userID }), followerKey, true)
	items, total := pageOf(rows, p)
	return items, total, nil
}

func (r followersRepo) GetFollowing(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*follower.Follower, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.GetFollowing"); err != nil {
		return nil, 0, err
	}
	rows := byCreated(rowsWhere(s.data.Followers, func(f follower.Follower) bool { return f.FollowerID == userID }), followerKey, true)
	items, total := pageOf(rows, p)
	return items, total, nil
}

func (r followersRepo) FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.FollowerIDs"); err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0)
	for _, f := range s.data.Followers {
		if f.FollowedID == userID {
			out = append(out, f.FollowerID)
		}
	}
	return out, nil
}

func (r followersRepo) DeleteMutual(ctx context.Context, a, b uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.DeleteMutual"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Followers, func(f follower.Follower) bool {
		return (f.FollowerID == a && f.FollowedID == b) || (f.FollowerID == b && f.FollowedID == a)
	}), nil
}

func (r followersRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Followers.DeleteByUser"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Followers, func(f follower.Follower) bool {
		return f.FollowerID == userID || f.FollowedID == userID
	}), nil
}

type connectionsRepo struct{ s *Store }

func eitherWay(c connection.Connection, a, b uuid.UUID) bool {
	return (c.UserID == a && c.ConnectedUserID == b) || (c.UserID == b && c.ConnectedUserID == a)
}

func (r connectionsRepo) Add(ctx context.Context, c *connection.Connection) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Connections.Add"); err != nil {
		return err
	}
	if anyOf(s.data.Connections, func(x connection.Connection) bool {
		return x.UserID == c.UserID && x.ConnectedUserID == c.ConnectedUserID
	}) {
		return ErrDuplicate
	}
	s.stamp(&c.CreatedAt)
	s.data.Connections[c.ID] = *c
	return nil
}

func (r connectionsRepo) Exists(ctx context.Context, userID, connectedID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Connections.Exists"); err != nil {
		return false, err
	}
	return anyOf(s.data.Connections, func(c connection.Connection) bool {
		return c.UserID == userID && c.ConnectedUserID == connectedID
	}), nil
}

func (r connectionsRepo) AreConnected(ctx context.Context, a, b uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Connections.AreConnected"); err != nil {
		return false, err
	}
	return anyOf(s.data.Connections, func(c connection.Connection) bool { return eitherWay(c, a, b) }), nil
}

func (r connectionsRepo) DeletePair(ctx context.Context, a, b uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Connections.DeletePair"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Connections, func(c connection.Connection) bool { return eitherWay(c, a, b) }), nil
}

func (r connectionsRepo) List(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Connection, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Connections.List"); err != nil {
		return nil, 0, err
	}
	rows := byCreated(rowsWhere(s.data.Connections, func(c connection.Connection) bool { return c.UserID == userID }),
		func(c *connection.Connection) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID }, true)
	items, total := pageOf(rows, p)
	return items, total, nil
}

func (r connectionsRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Connections.DeleteByUser"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Connections, func(c connection.Connection) bool {
		return c.UserID == userID || c.ConnectedUserID == userID
	}), nil
}

type requestsRepo struct{ s *Store }

func requestKey(r *connection.Request) (time.Time, uuid.UUID) { return r.CreatedAt, r.ID }

func (r requestsRepo) Create(ctx context.Context, req *connection.Request) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Requests.Create"); err != nil {
		return err
	}
	s.stamp(&req.CreatedAt)
	req.UpdatedAt = req.CreatedAt
	s.data.Requests[req.ID] = *req
	return nil
}

func (r requestsRepo) FindByID(ctx context.Context, id uuid.UUID) (*connection.Request, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Requests.FindByID"); err != nil {
		return nil, err
	}
	v, ok := s.data.Requests[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r requestsRepo) FindPendingBetween(ctx context.Context, a, b uuid.UUID) (*connection.Request, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Requests.FindPendingBetween"); err != nil {
		return nil, err
	}
	rows := byCreated(rowsWhere(s.data.Requests, func(v connection.Request) bool {
		return v.Status == connection.StatusPending &&
			((v.SenderID == a && v.ReceiverID == b) || (v.SenderID == b && v.ReceiverID == a))
	}), requestKey, true)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Transition only writes while the stored request is still pending.
func (r requestsRepo) Transition(ctx context.Context, id uuid.UUID, to connection.RequestStatus, respondedAt *time.Time, at time.Time) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Requests.Transition"); err != nil {
		return false, err
	}
	v, ok := s.data.Requests[id]
	if !ok || v.Status != connection.StatusPending {
		return false, nil
	}
	v.Status = to
	v.RespondedAt = respondedAt
	v.UpdatedAt = at
	s.data.Requests[id] = v
	return true, nil
}

func (r requestsRepo) Incoming(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Request, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Requests.Incoming"); err != nil {
		return nil, 0, err
	}
	rows := byCreated(rowsWhere(s.data.Requests, func(v connection.Request) bool {
		return v.ReceiverID == userID && v.Status == connection.StatusPending
	}), requestKey, true)
	items, total := pageOf(rows, p)
	return items, total, nil
}

func (r requestsRepo) Outgoing(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]*connection.Request, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Requests.Outgoing"); err != nil {
		return nil, 0, err
	}
	rows := byCreated(rowsWhere(s.data.Requests, func(v connection.Request) bool {
		return v.SenderID == userID && v.Status == connection.StatusPending
	}), requestKey, true)
	items, total := pageOf(rows, p)
	return items, total, nil
}

func (r requestsRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Requests.DeleteByUser"); err != nil {
		return 0, err
	}
	return deleteWhere(s.data.Requests, func(v connection.Request) bool {
		return v.SenderID == userID || v.ReceiverID == userID
	}), nil
}

type fanoutRepo struct{ s *Store }

func (r fanoutRepo) Create(ctx context.Context, f *fanoutqueue.FanoutQueue) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Fanout.Create"); err != nil {
		return err
	}
	s.stamp(&f.CreatedAt)
	s.data.Fanout[f.ID] = *f
	return nil
}

func (r fanoutRepo) GetPendingPosts(ctx context.Context, limit int64) ([]*fanoutqueue.FanoutQueue, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Fanout.GetPendingPosts"); err != nil {
		return nil, err
	}
	rows := byCreated(rowsWhere(s.data.Fanout, func(f fanoutqueue.FanoutQueue) bool {
		return f.Status == fanoutqueue.StatusPending
	}), func(f *fanoutqueue.FanoutQueue) (time.Time, uuid.UUID) { return f.CreatedAt, f.ID }, false)
	if limit > 0 && int64(len(rows)) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r fanoutRepo) MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Fanout.MarkDone"); err != nil {
		return err
	}
	if f, ok := s.data.Fanout[id]; ok {
		f.Status = fanoutqueue.StatusDone
		f.ProcessedAt = &at
		s.data.Fanout[id] = f
	}
	return nil
}

func (r fanoutRepo) DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Fanout.DeleteByPosts"); err != nil {
		return 0, err
	}
	set := inSet(postIDs)
	return deleteWhere(s.data.Fanout, func(f fanoutqueue.FanoutQueue) bool { return set[f.PostID] }), nil
}
