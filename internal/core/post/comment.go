package post

import (
	"time"

	"linkup/internal/core/user"

	"github.com/gofrs/uuid"
)

const MaxCommentLength = 1000

// Comment is either top-level (ParentCommentID nil) or a reply to a top-level comment.
type Comment struct {
	ID              uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	PostID          uuid.UUID  `gorm:"type:char(36);not null;index"`
	Post            *Post      `gorm:"foreignKey:PostID;constraint:OnDelete:RESTRICT"`
	AuthorID        uuid.UUID  `gorm:"type:char(36);not null;index"`
	Author          *user.User `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
	ParentCommentID *uuid.UUID `gorm:"type:char(36);index"`
	Parent          *Comment   `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:RESTRICT"`
	Text            string     `gorm:"type:text;not null"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (c *Comment) IsReply() bool { return c.ParentCommentID != nil }

// ThreadRoot is the id a new reply to c must point at, keeping threads two levels deep.
func (c *Comment) ThreadRoot() uuid.UUID {
	if c.ParentCommentID != nil {
		return *c.ParentCommentID
	}
	return c.ID
}
