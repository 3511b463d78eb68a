package httpapi

import (
	"net/http"

	postPort "linkup/internal/ports/post"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type PostController struct{ pc PostUseCase }

func NewPostController(pc PostUseCase) *PostController { return &PostController{pc: pc} }

func (ctl *PostController) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Text       string `json:"text" binding:"required"`
		Visibility string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	res, err := ctl.pc.CreatePost(c.Request.Context(), userID, req.Text, req.Visibility)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ctl *PostController) GetPost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	res, err := ctl.pc.GetPost(c.Request.Context(), userID, postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *PostController) ListUserPosts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	authorID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	res, err := ctl.pc.ListUserPosts(c.Request.Context(), userID, authorID, pageParams(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *PostController) UpdatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	var req struct {
		Text       *string `json:"text"`
		Visibility *string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	res, err := ctl.pc.UpdatePost(c.Request.Context(), userID, postID, req.Text, req.Visibility)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *PostController) DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	if err := ctl.pc.DeletePost(c.Request.Context(), userID, postID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (ctl *PostController) AddMedia(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	var req struct {
		Media []postPort.MediaInput `json:"media" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	res, err := ctl.pc.AddMedia(c.Request.Context(), userID, postID, req.Media)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"media": res})
}

func (ctl *PostController) ListComments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	res, err := ctl.pc.ListComments(c.Request.Context(), userID, postID, pageParams(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *PostController) AddComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	var req struct {
		Text            string  `json:"text" binding:"required"`
		ParentCommentID *string `json:"parent_comment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	var parentID *uuid.UUID
	if req.ParentCommentID != nil && *req.ParentCommentID != "" {
		id, err := uuid.FromString(*req.ParentCommentID)
		if err != nil {
			badRequest(c, "invalid parent_comment_id")
			return
		}
		parentID = &id
	}
	res, err := ctl.pc.AddComment(c.Request.Context(), userID, postID, req.Text, parentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ctl *PostController) UpdateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(c, "commentID")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	res, err := ctl.pc.UpdateComment(c.Request.Context(), userID, postID, commentID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *PostController) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(c, "commentID")
	if !ok {
		return
	}
	if err := ctl.pc.DeleteComment(c.Request.Context(), userID, postID, commentID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// React answers {"reaction": null} when the call toggled an existing reaction off.
func (ctl *PostController) React(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	res, err := ctl.pc.React(c.Request.Context(), userID, postID, req.Type)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reaction": res})
}

func (ctl *PostController) RemoveReaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, ok := pathUUID(c, "postID")
	if !ok {
		return
	}
	if err := ctl.pc.RemoveReaction(c.Request.Context(), userID, postID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reaction removed"})
}
