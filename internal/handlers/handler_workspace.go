package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// workspaceHandler handles HTTP requests related to workspaces.
type workspaceHandler struct {
	workspaceService portssvc.WorkspaceSvcFacade
	agencyService    portssvc.AgencyReaderSvc
}

func newWorkspaceHandler(ws portssvc.WorkspaceSvcFacade, ag portssvc.AgencyReaderSvc) *workspaceHandler {
	return &workspaceHandler{
		workspaceService: ws,
		agencyService:    ag,
	}
}

// registerWorkspaceRoutes registers workspace management routes and nests all
// workspace-scoped entity routes under /workspaces/:workspace_id.
func registerWorkspaceRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newWorkspaceHandler(services.Workspace, services.Agency)

	workspacesTopLevel := rg.Group("/workspaces")
	{
		workspacesTopLevel.POST("", h.createWorkspace)
		workspacesTopLevel.GET("", h.listUserWorkspaces)
	}

	workspaceSpecific := rg.Group("/workspaces/:workspace_id")
	{
		workspaceSpecific.GET("", h.getWorkspace)
		workspaceSpecific.POST("/deactivate", h.deactivateWorkspace)
		workspaceSpecific.POST("/activate", h.activateWorkspace)
		workspaceSpecific.GET("/branding", h.getBranding)

		members := workspaceSpecific.Group("/users")
		{
			members.POST("", h.addUserToWorkspace)
			members.GET("", h.listWorkspaceUsers)
			members.PUT("/:user_id/role", h.updateMemberRole)
			members.DELETE("/:user_id", h.removeUserFromWorkspace)
		}

		registerContactRoutes(workspaceSpecific, services.Contact)
		registerProductRoutes(workspaceSpecific, services.Product)
		registerQuotationRoutes(workspaceSpecific, services.Quotation)
		registerInvoiceRoutes(workspaceSpecific, services.Invoice)
		registerCreditNoteRoutes(workspaceSpecific, services.CreditNote)
		registerRecurringRoutes(workspaceSpecific, services.Recurring)
		registerSettingsRoutes(workspaceSpecific, services.Settings)
		registerOutboxRoutes(workspaceSpecific, services.Outbox)
	}
}

// createWorkspace godoc
// @Summary Create a new workspace
// @Description Creates a new workspace and assigns the creator as admin.
// @Tags workspaces
// @Accept json
// @Produce json
// @Param workspace body dto.CreateWorkspaceRequest true "Workspace details"
// @Success 201 {object} dto.WorkspaceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces [post]
func (h *workspaceHandler) createWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	workspace, err := h.workspaceService.CreateWorkspace(c.Request.Context(), req.Name, req.Description, req.DefaultCurrencyCode, creatorUserID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create workspace")
		return
	}
	c.JSON(http.StatusCreated, dto.ToWorkspaceResponse(workspace))
}

// listUserWorkspaces godoc
// @Summary List workspaces
// @Description Lists workspaces the calling user belongs to.
// @Tags workspaces
// @Produce json
// @Param includeDisabled query bool false "Include deactivated workspaces"
// @Success 200 {object} dto.ListWorkspacesResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces [get]
func (h *workspaceHandler) listUserWorkspaces(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	includeDisabled := c.Query("includeDisabled") == "true"
	workspaces, err := h.workspaceService.ListUserWorkspaces(c.Request.Context(), userID, includeDisabled)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list workspaces")
		return
	}
	c.JSON(http.StatusOK, dto.ToListWorkspacesResponse(workspaces))
}

// getWorkspace godoc
// @Summary Get a workspace
// @Tags workspaces
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Success 200 {object} dto.WorkspaceResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id} [get]
func (h *workspaceHandler) getWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workspace, err := h.workspaceService.FindWorkspaceByID(c.Request.Context(), c.Param("workspace_id"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve workspace")
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkspaceResponse(workspace))
}

// getBranding godoc
// @Summary Resolve workspace branding
// @Description Returns the agency branding for agency-owned workspaces, the platform default otherwise.
// @Tags workspaces
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Success 200 {object} domain.Branding
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/branding [get]
func (h *workspaceHandler) getBranding(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	branding, err := h.agencyService.ResolveBranding(c.Request.Context(), c.Param("workspace_id"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to resolve branding")
		return
	}
	c.JSON(http.StatusOK, branding)
}

// deactivateWorkspace godoc
// @Summary Deactivate a workspace
// @Tags workspaces
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/deactivate [post]
func (h *workspaceHandler) deactivateWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.workspaceService.DeactivateWorkspace(c.Request.Context(), c.Param("workspace_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to deactivate workspace")
		return
	}
	c.Status(http.StatusNoContent)
}

// activateWorkspace godoc
// @Summary Activate a workspace
// @Tags workspaces
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/activate [post]
func (h *workspaceHandler) activateWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.workspaceService.ActivateWorkspace(c.Request.Context(), c.Param("workspace_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to activate workspace")
		return
	}
	c.Status(http.StatusNoContent)
}

// addUserToWorkspace godoc
// @Summary Add a member
// @Description Adds a user to a workspace with a role. Admin only.
// @Tags workspaces
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param member body dto.AddUserToWorkspaceRequest true "Member details"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/users [post]
func (h *workspaceHandler) addUserToWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.AddUserToWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	if err := h.workspaceService.AddUserToWorkspace(c.Request.Context(), userID, req.UserID, c.Param("workspace_id"), req.Role); err != nil {
		respondWithError(c, logger, err, "Failed to add user to workspace")
		return
	}
	c.Status(http.StatusNoContent)
}

// listWorkspaceUsers godoc
// @Summary List members
// @Tags workspaces
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Success 200 {array} dto.WorkspaceMemberResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/users [get]
func (h *workspaceHandler) listWorkspaceUsers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	members, err := h.workspaceService.ListWorkspaceUsers(c.Request.Context(), c.Param("workspace_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list workspace users")
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkspaceMemberResponses(members))
}

// updateMemberRole godoc
// @Summary Update a member's role
// @Tags workspaces
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param user_id path string true "User ID"
// @Param role body dto.UpdateMemberRoleRequest true "New role"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/users/{user_id}/role [put]
func (h *workspaceHandler) updateMemberRole(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	if err := h.workspaceService.UpdateUserWorkspaceRole(c.Request.Context(), userID, c.Param("user_id"), c.Param("workspace_id"), req.Role); err != nil {
		respondWithError(c, logger, err, "Failed to update member role")
		return
	}
	c.Status(http.StatusNoContent)
}

// removeUserFromWorkspace godoc
// @Summary Remove a member
// @Tags workspaces
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param user_id path string true "User ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/users/{user_id} [delete]
func (h *workspaceHandler) removeUserFromWorkspace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.workspaceService.RemoveUserFromWorkspace(c.Request.Context(), userID, c.Param("user_id"), c.Param("workspace_id")); err != nil {
		respondWithError(c, logger, err, "Failed to remove user from workspace")
		return
	}
	c.Status(http.StatusNoContent)
}
