package handlers

import (
	"errors"
	"net/http"

	"github.com/alimgiray/gitprofile/internal/services"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type WidgetHandler struct {
	widgetService *services.WidgetService
}

func NewWidgetHandler(widgetService *services.WidgetService) *WidgetHandler {
	return &WidgetHandler{
		widgetService: widgetService,
	}
}

// Widget renders a PNG card.
// Query: username (required), theme=light|dark, color=#hex, repo=name.
func (h *WidgetHandler) Widget(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	kind, err := services.ParseWidgetKind(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid widget type: " + c.Param("type")})
		return
	}

	opts := services.WidgetOptions{
		Theme: c.DefaultQuery("theme", "light"),
		Color: c.DefaultQuery("color", services.DefaultWidgetColor),
		Repo:  c.Query("repo"),
	}

	img, err := h.widgetService.Render(c.Request.Context(), kind, username, opts)
	if err != nil {
		h.respondWidgetError(c, username, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/png", img)
}

func (h *WidgetHandler) respondWidgetError(c *gin.Context, username string, err error) {
	var rateErr *services.RateLimitError

	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": `GitHub user "` + username + `" not found.`})
	case errors.As(err, &rateErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": rateErr.Error(),
			"code":  "rate_limited",
		})
	default:
		logger.WithFields(logrus.Fields{
			"username": username,
			"error":    err.Error(),
		}).Error("Failed to generate widget image")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate widget image",
			"details": err.Error(),
		})
	}
}
