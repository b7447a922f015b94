package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// recurringHandler handles HTTP requests for recurring invoice templates.
type recurringHandler struct {
	recurringService portssvc.RecurringSvcFacade
}

func newRecurringHandler(rs portssvc.RecurringSvcFacade) *recurringHandler {
	return &recurringHandler{recurringService: rs}
}

func registerRecurringRoutes(rg *gin.RouterGroup, recurringService portssvc.RecurringSvcFacade) {
	h := newRecurringHandler(recurringService)

	templates := rg.Group("/recurring-templates")
	{
		templates.POST("", h.createTemplate)
		templates.GET("", h.listTemplates)
		templates.GET("/:template_id", h.getTemplate)
		templates.PUT("/:template_id", h.updateTemplate)
		templates.POST("/:template_id/pause", h.pauseTemplate)
		templates.POST("/:template_id/resume", h.resumeTemplate)
	}
}

// createTemplate godoc
// @Summary Create a recurring template
// @Description Creates an active template whose snapshot line items are stamped into invoices on schedule.
// @Tags recurring-templates
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param template body dto.CreateRecurringTemplateRequest true "Template details"
// @Success 201 {object} dto.RecurringTemplateResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/recurring-templates [post]
func (h *recurringHandler) createTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateRecurringTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	template, err := h.recurringService.CreateTemplate(c.Request.Context(), c.Param("workspace_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create template")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRecurringTemplateResponse(template))
}

// listTemplates godoc
// @Summary List recurring templates
// @Tags recurring-templates
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param includeInactive query bool false "Include paused templates"
// @Success 200 {array} dto.RecurringTemplateResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/recurring-templates [get]
func (h *recurringHandler) listTemplates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	includeInactive := c.Query("includeInactive") == "true"
	templates, err := h.recurringService.ListTemplates(c.Request.Context(), c.Param("workspace_id"), includeInactive, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list templates")
		return
	}

	res := make([]dto.RecurringTemplateResponse, len(templates))
	for i := range templates {
		res[i] = dto.ToRecurringTemplateResponse(&templates[i])
	}
	c.JSON(http.StatusOK, res)
}

// getTemplate godoc
// @Summary Get a recurring template
// @Description Returns a template with its snapshot line items.
// @Tags recurring-templates
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param template_id path string true "Template ID"
// @Success 200 {object} dto.RecurringTemplateResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/recurring-templates/{template_id} [get]
func (h *recurringHandler) getTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	template, items, err := h.recurringService.GetTemplate(c.Request.Context(), c.Param("workspace_id"), c.Param("template_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve template")
		return
	}

	resp := dto.ToRecurringTemplateResponse(template)
	c.JSON(http.StatusOK, gin.H{"template": resp, "items": items})
}

// updateTemplate godoc
// @Summary Update a recurring template
// @Tags recurring-templates
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param template_id path string true "Template ID"
// @Param template body dto.UpdateRecurringTemplateRequest true "Fields to update"
// @Success 200 {object} dto.RecurringTemplateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/recurring-templates/{template_id} [put]
func (h *recurringHandler) updateTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateRecurringTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	template, err := h.recurringService.UpdateTemplate(c.Request.Context(), c.Param("workspace_id"), c.Param("template_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, dto.ToRecurringTemplateResponse(template))
}

// pauseTemplate godoc
// @Summary Pause a recurring template
// @Description Deactivates the template without losing its schedule.
// @Tags recurring-templates
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param template_id path string true "Template ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/recurring-templates/{template_id}/pause [post]
func (h *recurringHandler) pauseTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.recurringService.PauseTemplate(c.Request.Context(), c.Param("workspace_id"), c.Param("template_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to pause template")
		return
	}
	c.Status(http.StatusNoContent)
}

// resumeTemplate godoc
// @Summary Resume a recurring template
// @Description Reactivates a paused template, advancing a stale nextRunDate to the next future occurrence.
// @Tags recurring-templates
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param template_id path string true "Template ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/recurring-templates/{template_id}/resume [post]
func (h *recurringHandler) resumeTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.recurringService.ResumeTemplate(c.Request.Context(), c.Param("workspace_id"), c.Param("template_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to resume template")
		return
	}
	c.Status(http.StatusNoContent)
}
