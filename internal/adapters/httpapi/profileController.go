package httpapi

import (
	"net/http"

	profilePort "linkup/internal/ports/profile"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	pc ProfileUseCase
	ac AccountUseCase
}

func NewProfileController(pc ProfileUseCase, ac AccountUseCase) *ProfileController {
	return &ProfileController{pc: pc, ac: ac}
}

func (ctl *ProfileController) GetMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	p, err := ctl.pc.GetMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (ctl *ProfileController) GetPublic(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	p, err := ctl.pc.GetPublic(c.Request.Context(), viewerID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (ctl *ProfileController) UpdateMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var in profilePort.UpdateProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid input")
		return
	}
	p, err := ctl.pc.UpdateMine(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (ctl *ProfileController) DeleteMyAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	report, err := ctl.ac.DeleteMyAccount(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "account deleted",
		"attempts":     report.Attempts,
		"deleted_rows": report.Total(),
	})
}
