package handlers

import (
	"fmt"
	"net/http"

	"github.com/alimgiray/gitprofile/internal/middleware"
	"github.com/alimgiray/gitprofile/internal/services"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProfileHandler struct {
	profileService *services.ProfileService
	exportService  *services.ExportService
}

func NewProfileHandler(profileService *services.ProfileService, exportService *services.ExportService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		exportService:  exportService,
	}
}

// Raw returns the user, repositories and events of an account as fetched
func (h *ProfileHandler) Raw(c *gin.Context) {
	profile, err := h.profileService.Load(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Dashboard returns the aggregated dashboard of an account. A newer
// lookup by the same viewer supersedes this one.
func (h *ProfileHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.profileService.Lookup(c.Request.Context(), middleware.GetViewerID(c), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// Export downloads the dashboard of an account as an XLSX workbook
func (h *ProfileHandler) Export(c *gin.Context) {
	username := c.Param("username")

	dashboard, err := h.profileService.Lookup(c.Request.Context(), middleware.GetViewerID(c), username)
	if err != nil {
		respondError(c, err)
		return
	}

	buf, err := h.exportService.Workbook(dashboard)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to export profile",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-github-profile.xlsx"`, username))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
