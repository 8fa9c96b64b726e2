package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crm-sync-api/internal/response"
	"crm-sync-api/internal/service"
)

// LogHandler serves the recorded webhook payloads for inspection
type LogHandler struct {
	webhookService service.WebhookService
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(webhookService service.WebhookService) *LogHandler {
	return &LogHandler{
		webhookService: webhookService,
	}
}

// ListLogs returns recorded webhook payloads newest-first
func (h *LogHandler) ListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.webhookService.ListLogs(c.Request.Context(), limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, gin.H{
		"total": total,
		"logs":  logs,
	})
}
