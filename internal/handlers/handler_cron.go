package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/middleware"
	"github.com/nextfact/crm_billing_app/pkg/config"
)

// cronHandler exposes the scheduled passes as HTTP triggers for platform cron
// callers. The in-process scheduler calls the same services directly; these
// endpoints exist for deployments that prefer external scheduling.
type cronHandler struct {
	outboxService    portssvc.OutboxSvcFacade
	recurringService portssvc.RecurringSvcFacade
}

func newCronHandler(os portssvc.OutboxSvcFacade, rs portssvc.RecurringSvcFacade) *cronHandler {
	return &cronHandler{
		outboxService:    os,
		recurringService: rs,
	}
}

// registerCronRoutes registers the trigger endpoints behind the cron secret.
func registerCronRoutes(rg *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := newCronHandler(services.Outbox, services.Recurring)

	cron := rg.Group("/internal/cron", middleware.CronAuthMiddleware(cfg.CronSecret))
	{
		cron.POST("/outbox/dispatch", h.dispatchOutbox)
		cron.POST("/recurring/run", h.runRecurring)
		cron.POST("/followups/run", h.runFollowUps)
	}
}

// dispatchOutbox godoc
// @Summary Dispatch due outbox events
// @Description Claims pending events whose retry time has passed and delivers them.
// @Tags cron
// @Produce json
// @Success 200 {object} dto.DispatchReport
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /internal/cron/outbox/dispatch [post]
func (h *cronHandler) dispatchOutbox(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	report, err := h.outboxService.ProcessDue(c.Request.Context(), time.Now())
	if err != nil {
		respondWithError(c, logger, err, "Outbox dispatch run failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

// runRecurring godoc
// @Summary Run the recurring invoice generator
// @Description Claims due templates and stamps one invoice per template.
// @Tags cron
// @Produce json
// @Success 200 {object} dto.DispatchReport
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /internal/cron/recurring/run [post]
func (h *cronHandler) runRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	report, err := h.recurringService.RunDueTemplates(c.Request.Context(), time.Now())
	if err != nil {
		respondWithError(c, logger, err, "Recurring generator run failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

// runFollowUps godoc
// @Summary Run the document follow-up pass
// @Description Expires stale sent quotations and emits overdue reminders for unpaid invoices.
// @Tags cron
// @Produce json
// @Success 200 {object} map[string]dto.DispatchReport
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /internal/cron/followups/run [post]
func (h *cronHandler) runFollowUps(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	now := time.Now()

	expired, err := h.outboxService.ExpireQuotations(c.Request.Context(), now)
	if err != nil {
		respondWithError(c, logger, err, "Quotation expiry run failed")
		return
	}

	reminded, err := h.outboxService.RemindOverdueInvoices(c.Request.Context(), now)
	if err != nil {
		respondWithError(c, logger, err, "Overdue reminder run failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expiredQuotations": expired,
		"overdueReminders":  reminded,
	})
}
