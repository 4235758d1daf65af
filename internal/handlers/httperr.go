package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/apperr"
)

// writeError maps the error taxonomy onto HTTP status codes. The core never
// picks status codes itself.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindPermission:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindBusiness:
		status = http.StatusUnprocessableEntity
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindRateLimit:
		status = http.StatusTooManyRequests
	case apperr.KindStorage:
		log.Error("storage failure", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error", "kind": kind.String()})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
}
