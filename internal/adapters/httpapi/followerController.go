package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type FollowerController struct{ fc FollowerUseCase }

func NewFollowerController(fc FollowerUseCase) *FollowerController {
	return &FollowerController{fc: fc}
}

func (ctl *FollowerController) FollowUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	followedID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	res, err := ctl.fc.FollowUser(c.Request.Context(), userID, followedID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ctl *FollowerController) UnfollowUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	followedID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if err := ctl.fc.UnfollowUser(c.Request.Context(), userID, followedID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "successfully unfollowed user"})
}

func (ctl *FollowerController) IsFollowing(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	followedID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	following, err := ctl.fc.IsFollowing(c.Request.Context(), userID, followedID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": followedID.String(), "following": following})
}

func (ctl *FollowerController) GetFollowers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	followers, err := ctl.fc.GetFollowers(c.Request.Context(), userID, pageParams(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, followers)
}

func (ctl *FollowerController) GetFollowing(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	following, err := ctl.fc.GetFollowing(c.Request.Context(), userID, pageParams(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, following)
}
