package account

import "github.com/gofrs/uuid"

// Step names as they appear in logs and in Report.Steps.
const (
	StepPostReactions         = "post_reactions"
	StepPostReplies           = "post_replies"
	StepPostTopLevelComments  = "post_top_level_comments"
	StepPostMedia             = "post_media"
	StepPostFanout            = "post_fanout"
	StepPosts                 = "posts"
	StepUserReactions         = "user_reactions"
	StepUserReplies           = "user_replies"
	StepRepliesToUserComments = "replies_to_user_comments"
	StepUserTopLevelComments  = "user_top_level_comments"
	StepFollows               = "follows"
	StepConnections           = "connections"
	StepConnectionRequests    = "connection_requests"
	StepPasswordResetCodes    = "password_reset_codes"
	StepProfile               = "profile"
	StepUser                  = "user"
)

type StepResult struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// Report describes the committed attempt of an account deletion.
type Report struct {
	UserID   uuid.UUID    `json:"user_id"`
	Attempts int          `json:"attempts"`
	Steps    []StepResult `json:"steps"`
}

// Total is the number of rows deleted across every step.
func (r Report) Total() int64 {
	var n int64
	for _, s := range r.Steps {
		n += s.Rows
	}
	return n
}

// Rows returns the row count recorded for step, or 0.
func (r Report) Rows(step string) int64 {
	for _, s := range r.Steps {
		if s.Name == step {
			return s.Rows
		}
	}
	return 0
}
