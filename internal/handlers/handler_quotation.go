package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// quotationHandler handles HTTP requests for quotations.
type quotationHandler struct {
	quotationService portssvc.QuotationSvcFacade
}

func newQuotationHandler(qs portssvc.QuotationSvcFacade) *quotationHandler {
	return &quotationHandler{quotationService: qs}
}

func registerQuotationRoutes(rg *gin.RouterGroup, quotationService portssvc.QuotationSvcFacade) {
	h := newQuotationHandler(quotationService)

	quotations := rg.Group("/quotations")
	{
		quotations.POST("", h.createQuotation)
		quotations.GET("", h.listQuotations)
		quotations.GET("/:quotation_id", h.getQuotation)
		quotations.PUT("/:quotation_id/items", h.updateQuotationItems)
		quotations.DELETE("/:quotation_id", h.deleteQuotation)
		quotations.POST("/:quotation_id/send", h.sendQuotation)
		quotations.POST("/:quotation_id/accept", h.acceptQuotation)
		quotations.POST("/:quotation_id/reject", h.rejectQuotation)
		quotations.POST("/:quotation_id/convert", h.convertQuotation)
	}
}

// createQuotation godoc
// @Summary Create a quotation
// @Description Creates a draft quotation with an allocated document number and aggregated totals.
// @Tags quotations
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation body dto.CreateQuotationRequest true "Quotation details"
// @Success 201 {object} dto.QuotationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations [post]
func (h *quotationHandler) createQuotation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	quotation, err := h.quotationService.CreateQuotation(c.Request.Context(), c.Param("workspace_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create quotation")
		return
	}
	c.JSON(http.StatusCreated, dto.ToQuotationResponse(quotation, nil))
}

// listQuotations godoc
// @Summary List quotations
// @Tags quotations
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListQuotationsResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations [get]
func (h *quotationHandler) listQuotations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, nextToken := pageParams(c)
	var status *domain.QuotationStatus
	if s := c.Query("status"); s != "" {
		st := domain.QuotationStatus(s)
		status = &st
	}

	quotations, token, err := h.quotationService.ListQuotations(c.Request.Context(), c.Param("workspace_id"), status, limit, nextToken, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list quotations")
		return
	}
	c.JSON(http.StatusOK, dto.ToListQuotationsResponse(quotations, token))
}

// getQuotation godoc
// @Summary Get a quotation
// @Description Returns a quotation with its line items.
// @Tags quotations
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation_id path string true "Quotation ID"
// @Success 200 {object} dto.QuotationResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations/{quotation_id} [get]
func (h *quotationHandler) getQuotation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	quotation, items, err := h.quotationService.GetQuotation(c.Request.Context(), c.Param("workspace_id"), c.Param("quotation_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve quotation")
		return
	}
	c.JSON(http.StatusOK, dto.ToQuotationResponse(quotation, items))
}

// updateQuotationItems godoc
// @Summary Replace quotation line items
// @Description Replaces the line items of a draft quotation and recomputes totals.
// @Tags quotations
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation_id path string true "Quotation ID"
// @Param items body dto.UpdateQuotationItemsRequest true "New line items"
// @Success 200 {object} dto.QuotationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Quotation is not an editable draft"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations/{quotation_id}/items [put]
func (h *quotationHandler) updateQuotationItems(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateQuotationItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	quotation, err := h.quotationService.UpdateQuotationItems(c.Request.Context(), c.Param("workspace_id"), c.Param("quotation_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update quotation items")
		return
	}
	c.JSON(http.StatusOK, dto.ToQuotationResponse(quotation, nil))
}

// deleteQuotation godoc
// @Summary Delete a draft quotation
// @Tags quotations
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation_id path string true "Quotation ID"
// @Success 204
// @Failure 409 {object} ErrorResponse "Quotation is not a deletable draft"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations/{quotation_id} [delete]
func (h *quotationHandler) deleteQuotation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.quotationService.DeleteQuotation(c.Request.Context(), c.Param("workspace_id"), c.Param("quotation_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to delete quotation")
		return
	}
	c.Status(http.StatusNoContent)
}

// sendQuotation godoc
// @Summary Send a quotation
// @Description Transitions draft→sent and emits the quotation.sent event with resolved branding.
// @Tags quotations
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation_id path string true "Quotation ID"
// @Success 200 {object} dto.QuotationResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations/{quotation_id}/send [post]
func (h *quotationHandler) sendQuotation(c *gin.Context) {
	h.transition(c, h.quotationService.SendQuotation, "Failed to send quotation")
}

// acceptQuotation godoc
// @Summary Accept a quotation
// @Description Transitions sent→accepted and emits quotation.accepted.
// @Tags quotations
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation_id path string true "Quotation ID"
// @Success 200 {object} dto.QuotationResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations/{quotation_id}/accept [post]
func (h *quotationHandler) acceptQuotation(c *gin.Context) {
	h.transition(c, h.quotationService.MarkQuotationAccepted, "Failed to accept quotation")
}

// rejectQuotation godoc
// @Summary Reject a quotation
// @Description Transitions sent→rejected.
// @Tags quotations
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation_id path string true "Quotation ID"
// @Success 200 {object} dto.QuotationResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations/{quotation_id}/reject [post]
func (h *quotationHandler) rejectQuotation(c *gin.Context) {
	h.transition(c, h.quotationService.MarkQuotationRejected, "Failed to reject quotation")
}

// convertQuotation godoc
// @Summary Convert a quotation to an invoice
// @Description Turns an accepted, unconverted quotation into a draft invoice atomically. Converting twice returns 409.
// @Tags quotations
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param quotation_id path string true "Quotation ID"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 409 {object} ErrorResponse "Already converted or not accepted"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/quotations/{quotation_id}/convert [post]
func (h *quotationHandler) convertQuotation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	invoice, err := h.quotationService.ConvertToInvoice(c.Request.Context(), c.Param("workspace_id"), c.Param("quotation_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to convert quotation")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice, nil, time.Now()))
}

type quotationTransitionFunc func(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error)

// transition runs a status-changing call that shares the same request shape.
func (h *quotationHandler) transition(c *gin.Context, fn quotationTransitionFunc, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	quotation, err := fn(c.Request.Context(), c.Param("workspace_id"), c.Param("quotation_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, fallbackMsg)
		return
	}
	c.JSON(http.StatusOK, dto.ToQuotationResponse(quotation, nil))
}
