package httpapi

import (
	"net/http"
	"strconv"

	"linkup/internal/core/pagination"

	"github.com/gin-gonic/gin"
)

type TimelineController struct{ tc TimelineUseCase }

func NewTimelineController(tc TimelineUseCase) *TimelineController {
	return &TimelineController{tc: tc}
}

func (ctrl *TimelineController) GetTimelineByUserID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, err := strconv.ParseInt(c.DefaultQuery("start", "0"), 10, 64)
	if err != nil || start < 0 {
		badRequest(c, "invalid start")
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(pagination.DefaultPageSize)), 10, 64)
	if err != nil || limit <= 0 {
		badRequest(c, "invalid limit")
		return
	}
	if limit > pagination.MaxPageSize {
		limit = pagination.MaxPageSize
	}

	timelinePosts, err := ctrl.tc.GetTimelineByUserID(c.Request.Context(), userID, start, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeline": timelinePosts})
}
