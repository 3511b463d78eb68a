package post

import (
	"context"
	"time"

	"linkup/internal/core/pagination"
	"linkup/internal/core/post"
	profilePort "linkup/internal/ports/profile"

	"github.com/gofrs/uuid"
)

// PostRepository stores posts. Find* return (nil, nil) when absent.
type PostRepository interface {
	Create(ctx context.Context, p *post.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*post.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, visibilities []string, p pagination.Params) ([]*post.Post, int64, error)
	Update(ctx context.Context, p *post.Post) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	IDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error)
	DeleteByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
}

type MediaRepository interface {
	AddBatch(ctx context.Context, items []*post.Media) error
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*post.Media, error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)
	DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error)
}

// CommentRepository keeps the two-level comment threads.
type CommentRepository interface {
	Create(ctx context.Context, c *post.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*post.Comment, error)
	Update(ctx context.Context, c *post.Comment) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ListTopLevel(ctx context.Context, postID uuid.UUID, p pagination.Params) ([]*post.Comment, int64, error)
	ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]*post.Comment, error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)

	DeleteRepliesOnPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error)
	DeleteTopLevelOnPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error)
	DeleteRepliesByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
	TopLevelIDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error)
	DeleteRepliesTo(ctx context.Context, parentIDs []uuid.UUID) (int64, error)
	DeleteTopLevelByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
}

type ReactionRepository interface {
	Find(ctx context.Context, postID, userID uuid.UUID) (*post.Reaction, error)
	Create(ctx context.Context, r *post.Reaction) error
	Update(ctx context.Context, r *post.Reaction) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	CountsByPost(ctx context.Context, postID uuid.UUID) (map[string]int64, error)
	DeleteByPosts(ctx context.Context, postIDs []uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// DTOs for the use cases
type PostDTO struct {
	ID             string                      `json:"id"`
	Text           string                      `json:"text"`
	Visibility     string                      `json:"visibility"`
	AuthorID       string                      `json:"author_id"`
	Author         *profilePort.UserSummaryDTO `json:"author,omitempty"`
	Media          []*MediaDTO                 `json:"media,omitempty"`
	ReactionCounts map[string]int64            `json:"reaction_counts,omitempty"`
	MyReaction     string                      `json:"my_reaction,omitempty"`
	CommentCount   int64                       `json:"comment_count"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

type MediaDTO struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
	Order    int    `json:"order"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
	Duration *int   `json:"duration,omitempty"`
}

type MediaInput struct {
	Type     string `json:"type" binding:"required"`
	URL      string `json:"url" binding:"required"`
	PublicID string `json:"public_id"`
	Order    int    `json:"order"`
	Width    *int   `json:"width"`
	Height   *int   `json:"height"`
	Duration *int   `json:"duration"`
}

type CommentDTO struct {
	ID              string        `json:"id"`
	PostID          string        `json:"post_id"`
	AuthorID        string        `json:"author_id"`
	AuthorName      string        `json:"author_name"`
	AuthorPhotoURL  string        `json:"author_photo_url,omitempty"`
	Text            string        `json:"text"`
	ParentCommentID *string       `json:"parent_comment_id,omitempty"`
	Replies         []*CommentDTO `json:"replies"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type ReactionDTO struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func ToMediaDTO(m *post.Media) *MediaDTO {
	return &MediaDTO{
		ID:       m.ID.String(),
		Type:     m.Type,
		URL:      m.URL,
		PublicID: m.PublicID,
		Order:    m.Order,
		Width:    m.Width,
		Height:   m.Height,
		Duration: m.Duration,
	}
}
