package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm-sync-api/internal/dto"
	"crm-sync-api/internal/response"
	"crm-sync-api/internal/service"
)

// webhookProcessTimeout bounds the background reconciliation of one event
const webhookProcessTimeout = 2 * time.Minute

// WebhookHandler receives CRM push events
type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService service.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// Receive logs the raw payload, acknowledges immediately, and reconciles
// in the background. The CRM retries on non-2xx, so anything short of an
// unreadable body is acknowledged; bad events are dropped during
// processing instead.
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Unreadable request body")
		return
	}

	var event dto.WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.logger.Warn("Webhook payload is not valid JSON", zap.Error(err))
	}

	if err := h.webhookService.LogEvent(c.Request.Context(), event.Type, raw); err != nil {
		h.logger.Error("Failed to log webhook payload", zap.Error(err))
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
		defer cancel()
		// Errors are logged and counted inside the service; the event
		// was already acknowledged.
		_ = h.webhookService.ProcessEvent(ctx, &event)
	}()

	response.SendSuccess(c, http.StatusOK, gin.H{"received": true})
}
