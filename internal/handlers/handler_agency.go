package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// agencyHandler handles HTTP requests for whitelabel agencies. All routes sit
// behind the super admin middleware.
type agencyHandler struct {
	agencyService portssvc.AgencySvcFacade
}

func newAgencyHandler(as portssvc.AgencySvcFacade) *agencyHandler {
	return &agencyHandler{agencyService: as}
}

func registerAgencyRoutes(rg *gin.RouterGroup, agencyService portssvc.AgencySvcFacade) {
	h := newAgencyHandler(agencyService)

	agencies := rg.Group("/agencies")
	{
		agencies.POST("", h.createAgency)
		agencies.GET("", h.listAgencies)
		agencies.GET("/:agency_id", h.getAgency)
		agencies.PUT("/:agency_id", h.updateAgency)
		agencies.POST("/:agency_id/workspaces", h.assignWorkspace)
		agencies.DELETE("/:agency_id/workspaces/:workspace_id", h.detachWorkspace)
	}
}

// createAgency godoc
// @Summary Create an agency
// @Description Creates a whitelabel agency. Super admin only.
// @Tags agencies
// @Accept json
// @Produce json
// @Param agency body dto.CreateAgencyRequest true "Agency details"
// @Success 201 {object} dto.AgencyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/agencies [post]
func (h *agencyHandler) createAgency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	agency, err := h.agencyService.CreateAgency(c.Request.Context(), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create agency")
		return
	}
	c.JSON(http.StatusCreated, dto.ToAgencyResponse(agency))
}

// listAgencies godoc
// @Summary List agencies
// @Tags agencies
// @Produce json
// @Success 200 {array} dto.AgencyResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/agencies [get]
func (h *agencyHandler) listAgencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	agencies, err := h.agencyService.ListAgencies(c.Request.Context())
	if err != nil {
		respondWithError(c, logger, err, "Failed to list agencies")
		return
	}

	res := make([]dto.AgencyResponse, len(agencies))
	for i := range agencies {
		res[i] = dto.ToAgencyResponse(&agencies[i])
	}
	c.JSON(http.StatusOK, res)
}

// getAgency godoc
// @Summary Get an agency
// @Tags agencies
// @Produce json
// @Param agency_id path string true "Agency ID"
// @Success 200 {object} dto.AgencyResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/agencies/{agency_id} [get]
func (h *agencyHandler) getAgency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	agency, err := h.agencyService.GetAgency(c.Request.Context(), c.Param("agency_id"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve agency")
		return
	}
	c.JSON(http.StatusOK, dto.ToAgencyResponse(agency))
}

// updateAgency godoc
// @Summary Update an agency
// @Description Updates agency details and branding. Super admin only.
// @Tags agencies
// @Accept json
// @Produce json
// @Param agency_id path string true "Agency ID"
// @Param agency body dto.UpdateAgencyRequest true "Fields to update"
// @Success 200 {object} dto.AgencyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/agencies/{agency_id} [put]
func (h *agencyHandler) updateAgency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	agency, err := h.agencyService.UpdateAgency(c.Request.Context(), c.Param("agency_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update agency")
		return
	}
	c.JSON(http.StatusOK, dto.ToAgencyResponse(agency))
}

// assignWorkspace godoc
// @Summary Assign a workspace to an agency
// @Description Attaches a workspace to an agency. A workspace belongs to at most one agency.
// @Tags agencies
// @Accept json
// @Produce json
// @Param agency_id path string true "Agency ID"
// @Param assignment body dto.AssignWorkspaceRequest true "Workspace to attach"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/agencies/{agency_id}/workspaces [post]
func (h *agencyHandler) assignWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.AssignWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	if err := h.agencyService.AssignWorkspace(c.Request.Context(), c.Param("agency_id"), req.WorkspaceID, userID); err != nil {
		respondWithError(c, logger, err, "Failed to assign workspace")
		return
	}
	c.Status(http.StatusNoContent)
}

// detachWorkspace godoc
// @Summary Detach a workspace from an agency
// @Tags agencies
// @Produce json
// @Param agency_id path string true "Agency ID"
// @Param workspace_id path string true "Workspace ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/agencies/{agency_id}/workspaces/{workspace_id} [delete]
func (h *agencyHandler) detachWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.agencyService.DetachWorkspace(c.Request.Context(), c.Param("agency_id"), c.Param("workspace_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to detach workspace")
		return
	}
	c.Status(http.StatusNoContent)
}
