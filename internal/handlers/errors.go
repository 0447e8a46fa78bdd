package handlers

import (
	"errors"
	"net/http"

	"github.com/alimgiray/gitprofile/internal/services"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError maps a lookup failure onto an HTTP status and JSON body.
func respondError(c *gin.Context, err error) {
	var (
		rateErr      *services.RateLimitError
		httpErr      *services.HTTPError
		transportErr *services.TransportError
	)

	switch {
	case errors.Is(err, services.ErrEmptyHandle):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
	case errors.Is(err, services.ErrLookupSuperseded):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"code":  "superseded",
		})
	case errors.As(err, &rateErr):
		body := gin.H{
			"error": rateErr.Error(),
			"code":  "rate_limited",
		}
		if !rateErr.ResetAt.IsZero() {
			body["reset_at"] = rateErr.ResetAt
		}
		c.JSON(http.StatusTooManyRequests, body)
	case errors.As(err, &httpErr):
		status := httpErr.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": httpErr.Error()})
	case errors.As(err, &transportErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": transportErr.Error()})
	default:
		logger.WithError(err).Error("Unhandled lookup error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
