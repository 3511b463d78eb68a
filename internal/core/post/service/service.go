package postapp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"linkup/internal/core/apperror"
	"linkup/internal/core/fanoutqueue"
	"linkup/internal/core/pagination"
	postEntity "linkup/internal/core/post"
	"linkup/internal/logging"
	fanoutPort "linkup/internal/ports/fanoutqueue"
	postPort "linkup/internal/ports/post"
	profilePort "linkup/internal/ports/profile"
	"linkup/internal/ports/uow"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const unknownAuthor = "Unknown"

type PostService struct {
	uow         uow.UnitOfWork
	FanoutRedis fanoutPort.FanoutRedis
	logger      *zap.Logger
}

func NewPostService(u uow.UnitOfWork, fanoutRedis fanoutPort.FanoutRedis, logger *zap.Logger) *PostService {
	return &PostService{
		uow:         u,
		FanoutRedis: fanoutRedis,
		logger:      logger,
	}
}

func validText(text string, limit int, what string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.Invalid(what + " is required")
	}
	if utf8.RuneCountInString(text) > limit {
		return "", apperror.Invalid(fmt.Sprintf("%s must be at most %d characters", what, limit))
	}
	return text, nil
}

// CreatePost stores the post with a pending fanout row and pushes it into the author's own timeline.
func (s *PostService) CreatePost(ctx context.Context, authorID uuid.UUID, text, visibility string) (*postPort.PostDTO, error) {
	log := logging.From(ctx, s.logger)

	text, err := validText(text, postEntity.MaxTextLength, "text")
	if err != nil {
		return nil, err
	}
	if visibility == "" {
		visibility = postEntity.VisibilityPublic
	}
	if !postEntity.ValidVisibility(visibility) {
		return nil, apperror.Invalid("unknown visibility " + visibility)
	}

	p := &postEntity.Post{
		ID:         uuid.Must(uuid.NewV4()),
		AuthorID:   authorID,
		Text:       text,
		Visibility: visibility,
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if err := repos.Posts.Create(ctx, p); err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		fq := &fanoutqueue.FanoutQueue{
			ID:     uuid.Must(uuid.NewV4()),
			PostID: p.ID,
			UserID: authorID,
			Status: fanoutqueue.StatusPending,
		}
		if err := repos.Fanout.Create(ctx, fq); err != nil {
			return fmt.Errorf("enqueue fanout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("✅ Created post", zap.String("postID", p.ID.String()), zap.String("authorID", authorID.String()))

	if s.FanoutRedis != nil {
		if err := s.FanoutRedis.PushPostToFollowers(ctx, p.ID.String(), p.CreatedAt, []string{authorID.String()}); err != nil {
			log.Warn("⚠️ Could not push post to author timeline", zap.Error(err))
		}
	}

	return s.toDTO(ctx, s.uow.Repos(), p, authorID)
}

func (s *PostService) GetPost(ctx context.Context, viewerID, postID uuid.UUID) (*postPort.PostDTO, error) {
	repos := s.uow.Repos()
	p, err := s.visiblePost(ctx, repos, viewerID, postID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, repos, p, viewerID)
}

func (s *PostService) ListUserPosts(ctx context.Context, viewerID, authorID uuid.UUID, page pagination.Params) (*pagination.Result[*postPort.PostDTO], error) {
	repos := s.uow.Repos()

	visibilities := []string{postEntity.VisibilityPublic}
	if viewerID == authorID {
		visibilities = append(visibilities, postEntity.VisibilityConnections, postEntity.VisibilityPrivate)
	} else {
		connected, err := repos.Connections.AreConnected(ctx, viewerID, authorID)
		if err != nil {
			return nil, fmt.Errorf("check connection: %w", err)
		}
		if connected {
			visibilities = append(visibilities, postEntity.VisibilityConnections)
		}
	}

	posts, total, err := repos.Posts.ListByAuthor(ctx, authorID, visibilities, page)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]*postPort.PostDTO, 0, len(posts))
	for _, p := range posts {
		dto, err := s.toDTO(ctx, repos, p, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return pagination.NewResult(out, page, total), nil
}

// PostsByIDs returns the posts viewer may see, in the order of ids. Missing or hidden posts are skipped.
func (s *PostService) PostsByIDs(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) ([]*postPort.PostDTO, error) {
	repos := s.uow.Repos()
	posts, err := repos.Posts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	byID := make(map[uuid.UUID]*postEntity.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	out := make([]*postPort.PostDTO, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		visible, err := s.canView(ctx, repos, viewerID, p)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		dto, err := s.toDTO(ctx, repos, p, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *PostService) UpdatePost(ctx context.Context, actorID, postID uuid.UUID, text, visibility *string) (*postPort.PostDTO, error) {
	repos := s.uow.Repos()
	p, err := s.ownPost(ctx, repos, actorID, postID)
	if err != nil {
		return nil, err
	}
	if text != nil {
		t, err := validText(*text, postEntity.MaxTextLength, "text")
		if err != nil {
			return nil, err
		}
		p.Text = t
	}
	if visibility != nil {
		if !postEntity.ValidVisibility(*visibility) {
			return nil, apperror.Invalid("unknown visibility " + *visibility)
		}
		p.Visibility = *visibility
	}
	if err := repos.Posts.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.toDTO(ctx, repos, p, actorID)
}

// DeletePost removes the post and all of its children in one transaction.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uuid.UUID) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		p, err := s.ownPost(ctx, repos, actorID, postID)
		if err != nil {
			return err
		}
		ids := []uuid.UUID{p.ID}
		children := []struct {
			name string
			del  func(context.Context, []uuid.UUID) (int64, error)
		}{
			{"reactions", repos.Reactions.DeleteByPosts},
			{"replies", repos.Comments.DeleteRepliesOnPosts},
			{"comments", repos.Comments.DeleteTopLevelOnPosts},
			{"media", repos.Media.DeleteByPosts},
			{"fanout", repos.Fanout.DeleteByPosts},
		}
		for _, c := range children {
			if _, err := c.del(ctx, ids); err != nil {
				return fmt.Errorf("delete post %s: %w", c.name, err)
			}
		}
		if _, err := repos.Posts.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.From(ctx, s.logger).Info("Deleted post", zap.String("postID", postID.String()))
	return nil
}

func (s *PostService) AddMedia(ctx context.Context, actorID, postID uuid.UUID, items []postPort.MediaInput) ([]*postPort.MediaDTO, error) {
	if len(items) == 0 {
		return nil, apperror.Invalid("at least one media item is required")
	}
	var out []*postPort.MediaDTO
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		p, err := s.ownPost(ctx, repos, actorID, postID)
		if err != nil {
			return err
		}
		count, err := repos.Media.CountByPost(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("count media: %w", err)
		}
		if count+int64(len(items)) > postEntity.MaxMediaPerPost {
			return apperror.Invalid(fmt.Sprintf("a post can have at most %d media items", postEntity.MaxMediaPerPost))
		}

		media := make([]*postEntity.Media, 0, len(items))
		for i, in := range items {
			if in.Type != postEntity.MediaImage && in.Type != postEntity.MediaVideo {
				return apperror.Invalid("unknown media type " + in.Type)
			}
			if in.URL == "" || len(in.URL) > postEntity.MaxMediaURLLength {
				return apperror.Invalid("media url is required and must be at most 500 characters")
			}
			order := in.Order
			if order == 0 {
				order = int(count) + i + 1
			}
			media = append(media, &postEntity.Media{
				ID:       uuid.Must(uuid.NewV4()),
				PostID:   p.ID,
				Type:     in.Type,
				URL:      in.URL,
				PublicID: in.PublicID,
				Order:    order,
				Width:    in.Width,
				Height:   in.Height,
				Duration: in.Duration,
			})
		}
		if err := repos.Media.AddBatch(ctx, media); err != nil {
			return fmt.Errorf("add media: %w", err)
		}
		for _, m := range media {
			out = append(out, postPort.ToMediaDTO(m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddComment stores a comment. A reply to a reply is attached to the top-level comment.
func (s *PostService) AddComment(ctx context.Context, authorID, postID uuid.UUID, text string, parentID *uuid.UUID) (*postPort.CommentDTO, error) {
	text, err := validText(text, postEntity.MaxCommentLength, "comment")
	if err != nil {
		return nil, err
	}
	repos := s.uow.Repos()
	if _, err := s.visiblePost(ctx, repos, authorID, postID); err != nil {
		return nil, err
	}

	c := &postEntity.Comment{
		ID:       uuid.Must(uuid.NewV4()),
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
	}
	if parentID != nil {
		parent, err := repos.Comments.FindByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("find parent comment: %w", err)
		}
		if parent == nil {
			return nil, apperror.NotFound("comment", *parentID)
		}
		if parent.PostID != postID {
			return nil, apperror.Forbidden("parent comment belongs to a different post")
		}
		root := parent.ThreadRoot()
		c.ParentCommentID = &root
	}

	if err := repos.Comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	cards, err := profilePort.Summaries(ctx, repos.Profiles, []uuid.UUID{authorID}, unknownAuthor)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return toCommentDTO(c, cards), nil
}

func (s *PostService) UpdateComment(ctx context.Context, actorID, postID, commentID uuid.UUID, text string) (*postPort.CommentDTO, error) {
	text, err := validText(text, postEntity.MaxCommentLength, "comment")
	if err != nil {
		return nil, err
	}
	repos := s.uow.Repos()
	c, err := s.ownComment(ctx, repos, actorID, postID, commentID)
	if err != nil {
		return nil, err
	}
	c.Text = text
	if err := repos.Comments.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	cards, err := profilePort.Summaries(ctx, repos.Profiles, []uuid.UUID{actorID}, unknownAuthor)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return toCommentDTO(c, cards), nil
}

// DeleteComment removes the comment and, for a top-level comment, its replies.
func (s *PostService) DeleteComment(ctx context.Context, actorID, postID, commentID uuid.UUID) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		c, err := s.ownComment(ctx, repos, actorID, postID, commentID)
		if err != nil {
			return err
		}
		if !c.IsReply() {
			if _, err := repos.Comments.DeleteRepliesTo(ctx, []uuid.UUID{c.ID}); err != nil {
				return fmt.Errorf("delete replies: %w", err)
			}
		}
		if _, err := repos.Comments.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return nil
	})
}

// ListComments pages top-level comments oldest first, each carrying its replies.
func (s *PostService) ListComments(ctx context.Context, viewerID, postID uuid.UUID, page pagination.Params) (*pagination.Result[*postPort.CommentDTO], error) {
	repos := s.uow.Repos()
	if _, err := s.visiblePost(ctx, repos, viewerID, postID); err != nil {
		return nil, err
	}

	top, total, err := repos.Comments.ListTopLevel(ctx, postID, page)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	parentIDs := make([]uuid.UUID, 0, len(top))
	for _, c := range top {
		parentIDs = append(parentIDs, c.ID)
	}
	replies, err := repos.Comments.ListReplies(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	authors := make([]uuid.UUID, 0, len(top)+len(replies))
	seen := make(map[uuid.UUID]bool)
	for _, c := range append(append([]*postEntity.Comment{}, top...), replies...) {
		if !seen[c.AuthorID] {
			seen[c.AuthorID] = true
			authors = append(authors, c.AuthorID)
		}
	}
	cards, err := profilePort.Summaries(ctx, repos.Profiles, authors, unknownAuthor)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	byParent := make(map[uuid.UUID][]*postPort.CommentDTO)
	for _, r := range replies {
		byParent[*r.ParentCommentID] = append(byParent[*r.ParentCommentID], toCommentDTO(r, cards))
	}
	out := make([]*postPort.CommentDTO, 0, len(top))
	for _, c := range top {
		dto := toCommentDTO(c, cards)
		if rs, ok := byParent[c.ID]; ok {
			dto.Replies = rs
		}
		out = append(out, dto)
	}
	return pagination.NewResult(out, page, total), nil
}

// React sets the user's reaction. Sending the current type again removes it and returns nil.
func (s *PostService) React(ctx context.Context, userID, postID uuid.UUID, reactionType string) (*postPort.ReactionDTO, error) {
	if !postEntity.ValidReaction(reactionType) {
		return nil, apperror.Invalid("unknown reaction type " + reactionType)
	}
	var out *postPort.ReactionDTO
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if _, err := s.visiblePost(ctx, repos, userID, postID); err != nil {
			return err
		}
		existing, err := repos.Reactions.Find(ctx, postID, userID)
		if err != nil {
			return fmt.Errorf("find reaction: %w", err)
		}
		switch {
		case existing == nil:
			r := &postEntity.Reaction{
				ID:     uuid.Must(uuid.NewV4()),
				PostID: postID,
				UserID: userID,
				Type:   reactionType,
			}
			if err := repos.Reactions.Create(ctx, r); err != nil {
				return fmt.Errorf("create reaction: %w", err)
			}
			out = toReactionDTO(r)
		case existing.Type == reactionType:
			if _, err := repos.Reactions.Delete(ctx, existing.ID); err != nil {
				return fmt.Errorf("delete reaction: %w", err)
			}
		default:
			existing.Type = reactionType
			if err := repos.Reactions.Update(ctx, existing); err != nil {
				return fmt.Errorf("update reaction: %w", err)
			}
			out = toReactionDTO(existing)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostService) RemoveReaction(ctx context.Context, userID, postID uuid.UUID) error {
	repos := s.uow.Repos()
	existing, err := repos.Reactions.Find(ctx, postID, userID)
	if err != nil {
		return fmt.Errorf("find reaction: %w", err)
	}
	if existing == nil {
		return nil
	}
	if _, err := repos.Reactions.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}

// canView applies the visibility rules: public to anyone, connections to the author and
// their connections, private to the author only.
func (s *PostService) canView(ctx context.Context, repos uow.Repositories, viewerID uuid.UUID, p *postEntity.Post) (bool, error) {
	if p.AuthorID == viewerID {
		return true, nil
	}
	switch p.Visibility {
	case postEntity.VisibilityPublic:
		return true, nil
	case postEntity.VisibilityConnections:
		connected, err := repos.Connections.AreConnected(ctx, viewerID, p.AuthorID)
		if err != nil {
			return false, fmt.Errorf("check connection: %w", err)
		}
		return connected, nil
	}
	return false, nil
}

// visiblePost loads a post; posts the viewer may not see are reported as not found.
func (s *PostService) visiblePost(ctx context.Context, repos uow.Repositories, viewerID, postID uuid.UUID) (*postEntity.Post, error) {
	p, err := repos.Posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if p == nil {
		return nil, apperror.NotFound("post", postID)
	}
	ok, err := s.canView(ctx, repos, viewerID, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NotFound("post", postID)
	}
	return p, nil
}

func (s *PostService) ownPost(ctx context.Context, repos uow.Repositories, actorID, postID uuid.UUID) (*postEntity.Post, error) {
	p, err := repos.Posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if p == nil {
		return nil, apperror.NotFound("post", postID)
	}
	if p.AuthorID != actorID {
		return nil, apperror.Forbidden("only the author can change this post")
	}
	return p, nil
}

func (s *PostService) ownComment(ctx context.Context, repos uow.Repositories, actorID, postID, commentID uuid.UUID) (*postEntity.Comment, error) {
	c, err := repos.Comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	if c == nil || c.PostID != postID {
		return nil, apperror.NotFound("comment", commentID)
	}
	if c.AuthorID != actorID {
		return nil, apperror.Forbidden("only the author can change this comment")
	}
	return c, nil
}

func (s *PostService) toDTO(ctx context.Context, repos uow.Repositories, p *postEntity.Post, viewerID uuid.UUID) (*postPort.PostDTO, error) {
	media, err := repos.Media.ListByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	counts, err := repos.Reactions.CountsByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	mine, err := repos.Reactions.Find(ctx, p.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("find reaction: %w", err)
	}
	comments, err := repos.Comments.CountByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	cards, err := profilePort.Summaries(ctx, repos.Profiles, []uuid.UUID{p.AuthorID}, unknownAuthor)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	author := cards[p.AuthorID]
	dto := &postPort.PostDTO{
		ID:             p.ID.String(),
		Text:           p.Text,
		Visibility:     p.Visibility,
		AuthorID:       p.AuthorID.String(),
		Author:         &author,
		ReactionCounts: counts,
		CommentCount:   comments,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, m := range media {
		dto.Media = append(dto.Media, postPort.ToMediaDTO(m))
	}
	if mine != nil {
		dto.MyReaction = mine.Type
	}
	return dto, nil
}

func toCommentDTO(c *postEntity.Comment, cards map[uuid.UUID]profilePort.UserSummaryDTO) *postPort.CommentDTO {
	card, ok := cards[c.AuthorID]
	if !ok {
		card = profilePort.UserSummaryDTO{UserID: c.AuthorID.String(), Name: unknownAuthor}
	}
	dto := &postPort.CommentDTO{
		ID:             c.ID.String(),
		PostID:         c.PostID.String(),
		AuthorID:       c.AuthorID.String(),
		AuthorName:     card.Name,
		AuthorPhotoURL: card.ProfilePhotoURL,
		Text:           c.Text,
		Replies:        []*postPort.CommentDTO{},
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.ParentCommentID != nil {
		parent := c.ParentCommentID.String()
		dto.ParentCommentID = &parent
	}
	return dto
}

func toReactionDTO(r *postEntity.Reaction) *postPort.ReactionDTO {
	return &postPort.ReactionDTO{
		ID:        r.ID.String(),
		PostID:    r.PostID.String(),
		UserID:    r.UserID.String(),
		Type:      r.Type,
		CreatedAt: r.CreatedAt,
	}
}
