package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// creditNoteHandler handles HTTP requests for credit notes.
type creditNoteHandler struct {
	creditNoteService portssvc.CreditNoteSvcFacade
}

func newCreditNoteHandler(cs portssvc.CreditNoteSvcFacade) *creditNoteHandler {
	return &creditNoteHandler{creditNoteService: cs}
}

func registerCreditNoteRoutes(rg *gin.RouterGroup, creditNoteService portssvc.CreditNoteSvcFacade) {
	h := newCreditNoteHandler(creditNoteService)

	creditNotes := rg.Group("/credit-notes")
	{
		creditNotes.POST("", h.createCreditNote)
		creditNotes.GET("", h.listCreditNotes)
		creditNotes.GET("/:credit_note_id", h.getCreditNote)
		creditNotes.DELETE("/:credit_note_id", h.deleteCreditNote)
		creditNotes.POST("/:credit_note_id/issue", h.issueCreditNote)
		creditNotes.POST("/:credit_note_id/apply", h.applyCreditNote)
		creditNotes.POST("/:credit_note_id/refund", h.refundCreditNote)
		creditNotes.POST("/:credit_note_id/cancel", h.cancelCreditNote)
	}
}

// createCreditNote godoc
// @Summary Create a credit note
// @Description Creates a draft credit note with an allocated number. Linked credit notes may not exceed the invoice total.
// @Tags credit-notes
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param creditNote body dto.CreateCreditNoteRequest true "Credit note details"
// @Success 201 {object} dto.CreditNoteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes [post]
func (h *creditNoteHandler) createCreditNote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	creditNote, err := h.creditNoteService.CreateCreditNote(c.Request.Context(), c.Param("workspace_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create credit note")
		return
	}
	c.JSON(http.StatusCreated, dto.ToCreditNoteResponse(creditNote))
}

// listCreditNotes godoc
// @Summary List credit notes
// @Tags credit-notes
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoiceID query string false "Filter by linked invoice"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListCreditNotesResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes [get]
func (h *creditNoteHandler) listCreditNotes(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, nextToken := pageParams(c)
	var invoiceID *string
	if id := c.Query("invoiceID"); id != "" {
		invoiceID = &id
	}

	creditNotes, token, err := h.creditNoteService.ListCreditNotes(c.Request.Context(), c.Param("workspace_id"), invoiceID, limit, nextToken, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list credit notes")
		return
	}
	c.JSON(http.StatusOK, dto.ToListCreditNotesResponse(creditNotes, token))
}

// getCreditNote godoc
// @Summary Get a credit note
// @Tags credit-notes
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param credit_note_id path string true "Credit note ID"
// @Success 200 {object} dto.CreditNoteResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes/{credit_note_id} [get]
func (h *creditNoteHandler) getCreditNote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	creditNote, err := h.creditNoteService.GetCreditNote(c.Request.Context(), c.Param("workspace_id"), c.Param("credit_note_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve credit note")
		return
	}
	c.JSON(http.StatusOK, dto.ToCreditNoteResponse(creditNote))
}

// deleteCreditNote godoc
// @Summary Delete a draft credit note
// @Tags credit-notes
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param credit_note_id path string true "Credit note ID"
// @Success 204
// @Failure 409 {object} ErrorResponse "Credit note is not a deletable draft"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes/{credit_note_id} [delete]
func (h *creditNoteHandler) deleteCreditNote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.creditNoteService.DeleteCreditNote(c.Request.Context(), c.Param("workspace_id"), c.Param("credit_note_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to delete credit note")
		return
	}
	c.Status(http.StatusNoContent)
}

// issueCreditNote godoc
// @Summary Issue a credit note
// @Description Transitions draft→issued, stamps issuedAt and emits credit_note.issued.
// @Tags credit-notes
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param credit_note_id path string true "Credit note ID"
// @Success 200 {object} dto.CreditNoteResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes/{credit_note_id}/issue [post]
func (h *creditNoteHandler) issueCreditNote(c *gin.Context) {
	h.transition(c, h.creditNoteService.IssueCreditNote, "Failed to issue credit note")
}

// applyCreditNote godoc
// @Summary Apply a credit note
// @Description Transitions issued→applied against the linked invoice. Standalone credit notes cannot be applied.
// @Tags credit-notes
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param credit_note_id path string true "Credit note ID"
// @Success 200 {object} dto.CreditNoteResponse
// @Failure 400 {object} ErrorResponse "Standalone credit note"
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes/{credit_note_id}/apply [post]
func (h *creditNoteHandler) applyCreditNote(c *gin.Context) {
	h.transition(c, h.creditNoteService.ApplyCreditNote, "Failed to apply credit note")
}

// refundCreditNote godoc
// @Summary Refund a credit note
// @Description Transitions issued→refunded.
// @Tags credit-notes
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param credit_note_id path string true "Credit note ID"
// @Success 200 {object} dto.CreditNoteResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes/{credit_note_id}/refund [post]
func (h *creditNoteHandler) refundCreditNote(c *gin.Context) {
	h.transition(c, h.creditNoteService.RefundCreditNote, "Failed to refund credit note")
}

// cancelCreditNote godoc
// @Summary Cancel a credit note
// @Description Transitions issued→cancelled.
// @Tags credit-notes
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param credit_note_id path string true "Credit note ID"
// @Success 200 {object} dto.CreditNoteResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/credit-notes/{credit_note_id}/cancel [post]
func (h *creditNoteHandler) cancelCreditNote(c *gin.Context) {
	h.transition(c, h.creditNoteService.CancelCreditNote, "Failed to cancel credit note")
}

type creditNoteTransitionFunc func(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error)

func (h *creditNoteHandler) transition(c *gin.Context, fn creditNoteTransitionFunc, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	creditNote, err := fn(c.Request.Context(), c.Param("workspace_id"), c.Param("credit_note_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, fallbackMsg)
		return
	}
	c.JSON(http.StatusOK, dto.ToCreditNoteResponse(creditNote))
}
