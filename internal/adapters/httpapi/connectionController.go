package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type ConnectionController struct{ cc ConnectionUseCase }

func NewConnectionController(cc ConnectionUseCase) *ConnectionController {
	return &ConnectionController{cc: cc}
}

func (ctl *ConnectionController) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	receiverID, err := uuid.FromString(req.ReceiverID)
	if err != nil {
		badRequest(c, "invalid receiver_id")
		return
	}
	res, err := ctl.cc.Send(c.Request.Context(), userID, receiverID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ctl *ConnectionController) Accept(c *gin.Context) {
	ctl.respond(c, ctl.cc.Accept, "connection request accepted")
}

func (ctl *ConnectionController) Reject(c *gin.Context) {
	ctl.respond(c, ctl.cc.Reject, "connection request rejected")
}

func (ctl *ConnectionController) Cancel(c *gin.Context) {
	ctl.respond(c, ctl.cc.Cancel, "connection request cancelled")
}

func (ctl *ConnectionController) respond(c *gin.Context, action func(ctx context.Context, requestID, actorID uuid.UUID) error, message string) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "requestID")
	if !ok {
		return
	}
	if err := action(c.Request.Context(), requestID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (ctl *ConnectionController) Incoming(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	res, err := ctl.cc.IncomingRequests(c.Request.Context(), userID, pageParams(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *ConnectionController) Outgoing(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	res, err := ctl.cc.OutgoingRequests(c.Request.Context(), userID, pageParams(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *ConnectionController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	res, err := ctl.cc.ListConnections(c.Request.Context(), userID, pageParams(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *ConnectionController) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if err := ctl.cc.RemoveConnection(c.Request.Context(), userID, targetID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "connection removed"})
}
