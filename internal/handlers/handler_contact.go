package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// contactHandler handles HTTP requests for contacts and the sales pipeline.
type contactHandler struct {
	contactService portssvc.ContactSvcFacade
}

func newContactHandler(cs portssvc.ContactSvcFacade) *contactHandler {
	return &contactHandler{contactService: cs}
}

// registerContactRoutes registers contact and opportunity routes under a
// workspace group.
func registerContactRoutes(rg *gin.RouterGroup, contactService portssvc.ContactSvcFacade) {
	h := newContactHandler(contactService)

	contacts := rg.Group("/contacts")
	{
		contacts.POST("", h.createContact)
		contacts.GET("", h.listContacts)
		contacts.GET("/:contact_id", h.getContact)
		contacts.PUT("/:contact_id", h.updateContact)
		contacts.POST("/:contact_id/archive", h.archiveContact)
	}

	opportunities := rg.Group("/opportunities")
	{
		opportunities.POST("", h.createOpportunity)
		opportunities.GET("", h.listOpportunities)
		opportunities.POST("/:opportunity_id/move", h.moveOpportunity)
	}
}

// pageParams reads the shared limit/nextToken query pair.
func pageParams(c *gin.Context) (int, *string) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var nextToken *string
	if t := c.Query("nextToken"); t != "" {
		nextToken = &t
	}
	return limit, nextToken
}

// createContact godoc
// @Summary Create a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param contact body dto.CreateContactRequest true "Contact details"
// @Success 201 {object} dto.ContactResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/contacts [post]
func (h *contactHandler) createContact(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	contact, err := h.contactService.CreateContact(c.Request.Context(), c.Param("workspace_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create contact")
		return
	}
	c.JSON(http.StatusCreated, dto.ToContactResponse(contact))
}

// listContacts godoc
// @Summary List contacts
// @Tags contacts
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param includeArchived query bool false "Include archived contacts"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListContactsResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/contacts [get]
func (h *contactHandler) listContacts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, nextToken := pageParams(c)
	includeArchived := c.Query("includeArchived") == "true"

	contacts, token, err := h.contactService.ListContacts(c.Request.Context(), c.Param("workspace_id"), includeArchived, limit, nextToken, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list contacts")
		return
	}
	c.JSON(http.StatusOK, dto.ToListContactsResponse(contacts, token))
}

// getContact godoc
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param contact_id path string true "Contact ID"
// @Success 200 {object} dto.ContactResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/contacts/{contact_id} [get]
func (h *contactHandler) getContact(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	contact, err := h.contactService.GetContact(c.Request.Context(), c.Param("workspace_id"), c.Param("contact_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve contact")
		return
	}
	c.JSON(http.StatusOK, dto.ToContactResponse(contact))
}

// updateContact godoc
// @Summary Update a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param contact_id path string true "Contact ID"
// @Param contact body dto.UpdateContactRequest true "Fields to update"
// @Success 200 {object} dto.ContactResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/contacts/{contact_id} [put]
func (h *contactHandler) updateContact(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	contact, err := h.contactService.UpdateContact(c.Request.Context(), c.Param("workspace_id"), c.Param("contact_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update contact")
		return
	}
	c.JSON(http.StatusOK, dto.ToContactResponse(contact))
}

// archiveContact godoc
// @Summary Archive a contact
// @Description Hides a contact from default lists; existing documents keep referencing it.
// @Tags contacts
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param contact_id path string true "Contact ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/contacts/{contact_id}/archive [post]
func (h *contactHandler) archiveContact(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.contactService.ArchiveContact(c.Request.Context(), c.Param("workspace_id"), c.Param("contact_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to archive contact")
		return
	}
	c.Status(http.StatusNoContent)
}

// createOpportunity godoc
// @Summary Create an opportunity
// @Tags opportunities
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param opportunity body dto.CreateOpportunityRequest true "Opportunity details"
// @Success 201 {object} dto.OpportunityResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/opportunities [post]
func (h *contactHandler) createOpportunity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	opportunity, err := h.contactService.CreateOpportunity(c.Request.Context(), c.Param("workspace_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create opportunity")
		return
	}
	c.JSON(http.StatusCreated, dto.ToOpportunityResponse(opportunity))
}

// listOpportunities godoc
// @Summary List opportunities
// @Tags opportunities
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param stage query string false "Filter by pipeline stage"
// @Success 200 {array} dto.OpportunityResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/opportunities [get]
func (h *contactHandler) listOpportunities(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var stage *domain.OpportunityStage
	if s := c.Query("stage"); s != "" {
		st := domain.OpportunityStage(s)
		stage = &st
	}

	opportunities, err := h.contactService.ListOpportunities(c.Request.Context(), c.Param("workspace_id"), stage, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list opportunities")
		return
	}

	res := make([]dto.OpportunityResponse, len(opportunities))
	for i := range opportunities {
		res[i] = dto.ToOpportunityResponse(&opportunities[i])
	}
	c.JSON(http.StatusOK, res)
}

// moveOpportunity godoc
// @Summary Move an opportunity
// @Description Advances an opportunity to the requested pipeline stage.
// @Tags opportunities
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param opportunity_id path string true "Opportunity ID"
// @Param move body dto.MoveOpportunityRequest true "Target stage"
// @Success 200 {object} dto.OpportunityResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/opportunities/{opportunity_id}/move [post]
func (h *contactHandler) moveOpportunity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.MoveOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	opportunity, err := h.contactService.MoveOpportunity(c.Request.Context(), c.Param("workspace_id"), c.Param("opportunity_id"), req.Stage, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to move opportunity")
		return
	}
	c.JSON(http.StatusOK, dto.ToOpportunityResponse(opportunity))
}
