package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type AdminController struct {
	ac AccountUseCase
	rc RoleUseCase
}

func NewAdminController(ac AccountUseCase, rc RoleUseCase) *AdminController {
	return &AdminController{ac: ac, rc: rc}
}

// SetRole is reachable by superadmins only.
func (ctl *AdminController) SetRole(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	targetID, err := uuid.FromString(req.UserID)
	if err != nil {
		badRequest(c, "invalid user_id")
		return
	}
	u, err := ctl.rc.SetRole(c.Request.Context(), actorID, targetID, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role})
}

func (ctl *AdminController) DeleteUser(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	report, err := ctl.ac.AdminDeleteUser(c.Request.Context(), adminID, targetID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
