package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// outboxHandler exposes failed-event inspection and replay for workspace admins.
type outboxHandler struct {
	outboxService portssvc.OutboxSvcFacade
}

func newOutboxHandler(os portssvc.OutboxSvcFacade) *outboxHandler {
	return &outboxHandler{outboxService: os}
}

func registerOutboxRoutes(rg *gin.RouterGroup, outboxService portssvc.OutboxSvcFacade) {
	h := newOutboxHandler(outboxService)

	events := rg.Group("/events")
	{
		events.GET("/failed", h.listFailedEvents)
		events.POST("/failed/:event_id/requeue", h.requeueFailedEvent)
	}
}

// listFailedEvents godoc
// @Summary List failed outbox events
// @Description Surfaces events that exhausted their delivery attempts. Admin only.
// @Tags events
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param limit query int false "Page size"
// @Success 200 {array} dto.OutboxEventResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/events/failed [get]
func (h *outboxHandler) listFailedEvents(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.outboxService.ListFailedEvents(c.Request.Context(), c.Param("workspace_id"), limit, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list failed events")
		return
	}
	c.JSON(http.StatusOK, dto.ToOutboxEventResponses(events))
}

// requeueFailedEvent godoc
// @Summary Requeue a failed outbox event
// @Description Resets a terminally failed event to pending with a fresh attempt budget. Admin only.
// @Tags events
// @Produce json
// @Param workspace_id path string true "Workspace ID"
// @Param event_id path string true "Event ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Event is not in a failed state"
// @Security BearerAuth
// @Router /workspaces/{workspace_id}/events/failed/{event_id}/requeue [post]
func (h *outboxHandler) requeueFailedEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.outboxService.RequeueFailedEvent(c.Request.Context(), c.Param("workspace_id"), c.Param("event_id"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to requeue event")
		return
	}
	c.Status(http.StatusNoContent)
}
