package httpapi

import (
	"context"

	"linkup/internal/adapters/httpapi/middleware"
	"linkup/internal/core/account"
	"linkup/internal/core/pagination"
	userEntity "linkup/internal/core/user"
	connectionPort "linkup/internal/ports/connection"
	followerPort "linkup/internal/ports/follower"
	postPort "linkup/internal/ports/post"
	profilePort "linkup/internal/ports/profile"
	userPort "linkup/internal/ports/user"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// Inbound ports consumed by the controllers.

type UserUseCase interface {
	middleware.TokenParser
	LoginUser(ctx context.Context, email, password string) (*userPort.LoginResponse, error)
	RegisterUser(ctx context.Context, email, password, firstName, lastName string) (*userPort.UserDTO, error)
	GetUser(ctx context.Context, id uuid.UUID) (*userPort.UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	ChangeEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*userPort.UserDTO, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type RoleUseCase interface {
	SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*userPort.UserDTO, error)
}

type ProfileUseCase interface {
	GetMine(ctx context.Context, userID uuid.UUID) (*profilePort.ProfileDTO, error)
	GetPublic(ctx context.Context, viewerID, userID uuid.UUID) (*profilePort.ProfileDTO, error)
	UpdateMine(ctx context.Context, userID uuid.UUID, in profilePort.UpdateProfileInput) (*profilePort.ProfileDTO, error)
}

type PostUseCase interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, text, visibility string) (*postPort.PostDTO, error)
	GetPost(ctx context.Context, viewerID, postID uuid.UUID) (*postPort.PostDTO, error)
	ListUserPosts(ctx context.Context, viewerID, authorID uuid.UUID, p pagination.Params) (*pagination.Result[*postPort.PostDTO], error)
	UpdatePost(ctx context.Context, actorID, postID uuid.UUID, text, visibility *string) (*postPort.PostDTO, error)
	DeletePost(ctx context.Context, actorID, postID uuid.UUID) error
	AddMedia(ctx context.Context, actorID, postID uuid.UUID, items []postPort.MediaInput) ([]*postPort.MediaDTO, error)
	AddComment(ctx context.Context, authorID, postID uuid.UUID, text string, parentID *uuid.UUID) (*postPort.CommentDTO, error)
	UpdateComment(ctx context.Context, actorID, postID, commentID uuid.UUID, text string) (*postPort.CommentDTO, error)
	DeleteComment(ctx context.Context, actorID, postID, commentID uuid.UUID) error
	ListComments(ctx context.Context, viewerID, postID uuid.UUID, p pagination.Params) (*pagination.Result[*postPort.CommentDTO], error)
	React(ctx context.Context, userID, postID uuid.UUID, reactionType string) (*postPort.ReactionDTO, error)
	RemoveReaction(ctx context.Context, userID, postID uuid.UUID) error
}

type FollowerUseCase interface {
	FollowUser(ctx context.Context, followerID, followedID uuid.UUID) (*followerPort.FollowDTO, error)
	UnfollowUser(ctx context.Context, followerID, followedID uuid.UUID) error
	GetFollowers(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*followerPort.FollowerDTO], error)
	GetFollowing(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*followerPort.FollowerDTO], error)
	IsFollowing(ctx context.Context, followerID, followedID uuid.UUID) (bool, error)
}

type ConnectionUseCase interface {
	Send(ctx context.Context, senderID, receiverID uuid.UUID) (*connectionPort.RequestDTO, error)
	Accept(ctx context.Context, requestID, actorID uuid.UUID) error
	Reject(ctx context.Context, requestID, actorID uuid.UUID) error
	Cancel(ctx context.Context, requestID, actorID uuid.UUID) error
	RemoveConnection(ctx context.Context, actorID, targetID uuid.UUID) error
	ListConnections(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*connectionPort.ConnectionDTO], error)
	IncomingRequests(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*connectionPort.RequestDTO], error)
	OutgoingRequests(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Result[*connectionPort.RequestDTO], error)
}

type AccountUseCase interface {
	DeleteMyAccount(ctx context.Context, userID uuid.UUID) (account.Report, error)
	AdminDeleteUser(ctx context.Context, adminID, targetID uuid.UUID) (account.Report, error)
}

type TimelineUseCase interface {
	GetTimelineByUserID(ctx context.Context, userID uuid.UUID, start, limit int64) ([]*postPort.PostDTO, error)
}

type UseCases struct {
	User       UserUseCase
	Role       RoleUseCase
	Profile    ProfileUseCase
	Post       PostUseCase
	Follower   FollowerUseCase
	Connection ConnectionUseCase
	Account    AccountUseCase
	Timeline   TimelineUseCase
}

type Options struct {
	Logger             *zap.Logger
	RateLimitPerMinute int
	RateLimitBurst     int
}

// SetupRoutes only wires routes; use cases are injected from outside. ctx bounds the
// rate limiter's background cleanup.
func SetupRoutes(ctx context.Context, uc UseCases, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.SecurityHeaders(),
	)

	usr := NewUserController(uc.User)
	prc := NewProfileController(uc.Profile, uc.Account)
	pc := NewPostController(uc.Post)
	fc := NewFollowerController(uc.Follower)
	cc := NewConnectionController(uc.Connection)
	ac := NewAdminController(uc.Account, uc.Role)
	tc := NewTimelineController(uc.Timeline)

	api := r.Group("/api", middleware.RateLimit(ctx, opts.RateLimitPerMinute, opts.RateLimitBurst))

	// no JWT on the auth routes
	auth := api.Group("/auth")
	auth.POST("/register", usr.RegisterUser)
	auth.POST("/login", usr.LoginUser)
	auth.POST("/forgot-password", usr.ForgotPassword)
	auth.POST("/reset-password", usr.ResetPassword)

	secured := api.Group("", middleware.JWTAuthMiddleware(uc.User))

	secured.GET("/me", usr.Me)
	secured.PUT("/account/password", usr.ChangePassword)
	secured.PUT("/account/email", usr.ChangeEmail)

	secured.GET("/profiles/me", prc.GetMine)
	secured.PUT("/profiles/me", prc.UpdateMine)
	secured.DELETE("/profiles/me", prc.DeleteMyAccount)
	secured.GET("/profiles/:userID", prc.GetPublic)

	secured.POST("/posts", pc.CreatePost)
	secured.GET("/users/:userID/posts", pc.ListUserPosts)
	secured.GET("/posts/:postID", pc.GetPost)
	secured.PUT("/posts/:postID", pc.UpdatePost)
	secured.DELETE("/posts/:postID", pc.DeletePost)
	secured.POST("/posts/:postID/media", pc.AddMedia)
	secured.GET("/posts/:postID/comments", pc.ListComments)
	secured.POST("/posts/:postID/comments", pc.AddComment)
	secured.PUT("/posts/:postID/comments/:commentID", pc.UpdateComment)
	secured.DELETE("/posts/:postID/comments/:commentID", pc.DeleteComment)
	secured.PUT("/posts/:postID/reaction", pc.React)
	secured.DELETE("/posts/:postID/reaction", pc.RemoveReaction)

	network := secured.Group("/network")
	network.GET("/follow/:userID", fc.IsFollowing)
	network.POST("/follow/:userID", fc.FollowUser)
	network.DELETE("/follow/:userID", fc.UnfollowUser)
	network.GET("/followers", fc.GetFollowers)
	network.GET("/following", fc.GetFollowing)
	network.POST("/requests", cc.Send)
	network.GET("/requests/incoming", cc.Incoming)
	network.GET("/requests/outgoing", cc.Outgoing)
	network.POST("/requests/:requestID/accept", cc.Accept)
	network.POST("/requests/:requestID/reject", cc.Reject)
	network.POST("/requests/:requestID/cancel", cc.Cancel)
	network.GET("/connections", cc.List)
	network.DELETE("/connections/:userID", cc.Remove)

	admin := secured.Group("/admin", middleware.RequireRole(userEntity.RoleAdmin, userEntity.RoleSuperAdmin))
	admin.DELETE("/users/:userID", ac.DeleteUser)
	admin.POST("/set-role", middleware.RequireRole(userEntity.RoleSuperAdmin), ac.SetRole)

	secured.GET("/timeline", tc.GetTimelineByUserID)
	return r
}
