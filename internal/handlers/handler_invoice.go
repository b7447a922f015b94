package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// invoiceHandler handles HTTP requests for invoices and payments.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

func newInvoiceHandler(is portssvc.InvoiceSvcFacade) *invoiceHandler {
	return &invoiceHandler{invoiceService: is}
}

func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade) {
	h := newInvoiceHandler(invoiceService)

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("", h.listInvoices)
		invoices.GET("/:invoice_id", h.getInvoice)
		invoices.PUT("/:invoice_id/items", h.updateInvoiceItems)
		invoices.DELETE("/:invoice_id", h.deleteInvoice)
		invoices.POST("/:invoice_id/send", h.sendInvoice)
		invoices.POST("/:invoice_id/viewed", h.markInvoiceViewed)
		invoices.POST("/:invoice_id/cancel", h.cancelInvoice)

		invoices.GET("/:invoice_id/payments", h.listPayments)
		invoices.POST("/:invoice_id/payments", h.recordPayment)
		invoices.DELETE("/:invoice_id/payments/:payment_id", h.removePayment)
	}
}

// createInvoice godoc
// @Summary Create an invoice
// @Description Creates a standalone draft invoice with an allocated number and aggregated totals.
// @Tags invoices
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), c.Param("workspace_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create invoice")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice, nil, time.Now()))
}

// listInvoices godoc
// @Summary List invoices
// @Description Lists invoices. The overdue filter evaluates the due-date predicate, not the stored status.
// @Tags invoices
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param status query string false "Filter by stored status"
// @Param contactID query string false "Filter by contact"
// @Param overdue query bool false "Only overdue invoices"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices [get]
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, nextToken := pageParams(c)
	filter := portsrepo.InvoiceListFilter{
		OverdueOnly: c.Query("overdue") == "true",
	}
	if s := c.Query("status"); s != "" {
		st := domain.InvoiceStatus(s)
		filter.Status = &st
	}
	if id := c.Query("contactID"); id != "" {
		filter.ContactID = &id
	}

	invoices, token, err := h.invoiceService.ListInvoices(c.Request.Context(), c.Param("workspace_id"), filter, limit, nextToken, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, dto.ToListInvoicesResponse(invoices, token, time.Now()))
}

// getInvoice godoc
// @Summary Get an invoice
// @Description Returns an invoice with its line items. Status is the effective status; sent/viewed invoices past due read as OVERDUE.
// @Tags invoices
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	invoice, items, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("workspace_id"), c.Param("invoice_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, items, time.Now()))
}

// updateInvoiceItems godoc
// @Summary Replace invoice line items
// @Description Replaces the line items of a draft invoice and recomputes totals.
// @Tags invoices
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Param items body dto.UpdateInvoiceItemsRequest true "New line items"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Invoice is not an editable draft"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id}/items [put]
func (h *invoiceHandler) updateInvoiceItems(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateInvoiceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	invoice, err := h.invoiceService.UpdateInvoiceItems(c.Request.Context(), c.Param("workspace_id"), c.Param("invoice_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update invoice items")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, nil, time.Now()))
}

// deleteInvoice godoc
// @Summary Delete a draft invoice
// @Tags invoices
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 204
// @Failure 409 {object} ErrorResponse "Invoice is not a deletable draft"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id} [delete]
func (h *invoiceHandler) deleteInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), c.Param("workspace_id"), c.Param("invoice_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to delete invoice")
		return
	}
	c.Status(http.StatusNoContent)
}

// sendInvoice godoc
// @Summary Send an invoice
// @Description Transitions draft→sent, stamps the due date from payment terms when absent, and emits invoice.sent.
// @Tags invoices
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id}/send [post]
func (h *invoiceHandler) sendInvoice(c *gin.Context) {
	h.transition(c, h.invoiceService.SendInvoice, "Failed to send invoice")
}

// markInvoiceViewed godoc
// @Summary Mark an invoice viewed
// @Description Transitions sent→viewed (the recipient opened the document).
// @Tags invoices
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id}/viewed [post]
func (h *invoiceHandler) markInvoiceViewed(c *gin.Context) {
	h.transition(c, h.invoiceService.MarkInvoiceViewed, "Failed to mark invoice viewed")
}

// cancelInvoice godoc
// @Summary Cancel an invoice
// @Description Transitions sent/viewed→cancelled.
// @Tags invoices
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id}/cancel [post]
func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	h.transition(c, h.invoiceService.CancelInvoice, "Failed to cancel invoice")
}

// listPayments godoc
// @Summary List payments
// @Tags payments
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Success 200 {array} dto.PaymentResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id}/payments [get]
func (h *invoiceHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	payments, err := h.invoiceService.ListPayments(c.Request.Context(), c.Param("workspace_id"), c.Param("invoice_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// recordPayment godoc
// @Summary Record a payment
// @Description Records money received against a sent or viewed invoice. A fully covered invoice flips to PAID and emits invoice.paid.
// @Tags payments
// @Accept json
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Param payment body dto.RecordPaymentRequest true "Payment details"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Invoice does not accept payments in its current status"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id}/payments [post]
func (h *invoiceHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), c.Param("workspace_id"), c.Param("invoice_id"), req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to record payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, nil, time.Now()))
}

// removePayment godoc
// @Summary Remove a payment
// @Description Deletes a payment and recomputes the amount paid; a fully paid invoice may revert to SENT.
// @Tags payments
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param invoice_id path string true "Invoice ID"
// @Param payment_id path string true "Payment ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/invoices/{invoice_id}/payments/{payment_id} [delete]
func (h *invoiceHandler) removePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	invoice, err := h.invoiceService.RemovePayment(c.Request.Context(), c.Param("workspace_id"), c.Param("invoice_id"), c.Param("payment_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to remove payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, nil, time.Now()))
}

type invoiceTransitionFunc func(ctx context.Context, workspaceID, invoiceID, userID string) (*domain.Invoice, error)

func (h *invoiceHandler) transition(c *gin.Context, fn invoiceTransitionFunc, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	invoice, err := fn(c.Request.Context(), c.Param("workspace_id"), c.Param("invoice_id"), userID)
	if err != nil {
		respondWithError(c, logger, err, fallbackMsg)
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, nil, time.Now()))
}
