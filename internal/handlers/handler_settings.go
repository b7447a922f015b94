package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// settingsHandler handles HTTP requests for workspace invoice settings.
type settingsHandler struct {
	settingsService portssvc.SettingsSvcFacade
}

func newSettingsHandler(ss portssvc.SettingsSvcFacade) *settingsHandler {
	return &settingsHandler{settingsService: ss}
}

func registerSettingsRoutes(rg *gin.RouterGroup, settingsService portssvc.SettingsSvcFacade) {
	h := newSettingsHandler(settingsService)

	settings := rg.Group("/settings")
	{
		settings.GET("", h.getSettings)
		settings.PUT("", h.updateSettings)
	}
}

// getSettings godoc
// @Summary Get invoice settings
// @Description Returns the workspace's numbering and letterhead settings, creating defaults on first access.
// @Tags settings
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Success 200 {object} dto.InvoiceSettingsResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/settings [get]
func (h *settingsHandler) getSettings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	settings, err := h.settingsService.GetSettings(c.Request.Context(), c.Param("workspace_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve settings")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceSettingsResponse(settings))
}

// updateSettings godoc
// @Summary Update invoice settings
// @Description Applies partial settings changes. Admin only; counters never move through this endpoint.
// @Tags settings
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param settings body dto.UpdateInvoiceSettingsRequest true "Fields to update"
// @Success 200 {object} dto.InvoiceSettingsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/settings [put]
func (h *settingsHandler) updateSettings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateInvoiceSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), c.Param("workspace_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update settings")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceSettingsResponse(settings))
}
