package httpapi

import (
	"net/http"
	"strconv"

	"linkup/internal/adapters/httpapi/middleware"
	"linkup/internal/core/apperror"
	"linkup/internal/core/pagination"
	"linkup/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// statusOf maps an error kind to its HTTP status.
func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalid:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError answers with {"error": message}. Internal errors are logged and hidden.
func writeError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		logging.From(c.Request.Context(), zap.L()).Error("❌ Request error",
			zap.String("path", c.FullPath()), zap.String("kind", kind.String()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperror.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// currentUserID returns the caller set by the auth middleware, answering 401 when absent.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	id, ok := v.(uuid.UUID)
	if !exists || !ok || id == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a path parameter, answering 400 when it is not a uuid.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads page and page_size; bad or missing values fall back to defaults.
func pageParams(c *gin.Context) pagination.Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(pagination.DefaultPageSize)))
	return pagination.New(page, size)
}
