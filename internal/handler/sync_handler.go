package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm-sync-api/internal/dto"
	"crm-sync-api/internal/response"
	"crm-sync-api/internal/service"
)

// fullSyncTimeout bounds one background resync
const fullSyncTimeout = 30 * time.Minute

// SyncHandler exposes sync orchestration endpoints
type SyncHandler struct {
	syncService service.SyncService
	authService service.AuthService
	logger      *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService service.SyncService, authService service.AuthService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		authService: authService,
		logger:      logger,
	}
}

// TriggerSync starts a full resync in the background and responds 202.
// The run's outcome is observable through the runs listing.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	var req dto.TriggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
			return
		}
	}

	credential, err := h.authService.ResolveCredential(c.Request.Context(), req.LocationID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fullSyncTimeout)
		defer cancel()
		if _, err := h.syncService.SyncAll(ctx, credential); err != nil {
			h.logger.Error("Triggered sync failed",
				zap.String("location_id", credential.LocationID),
				zap.Error(err),
			)
		}
	}()

	response.SendSuccess(c, http.StatusAccepted, dto.SyncTriggeredResponse{
		LocationID: credential.LocationID,
		Status:     "started",
	})
}

// SyncPipelines reloads pipeline definitions synchronously
func (h *SyncHandler) SyncPipelines(c *gin.Context) {
	var req dto.TriggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
			return
		}
	}

	credential, err := h.authService.ResolveCredential(c.Request.Context(), req.LocationID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	pipelines, err := h.syncService.SyncPipelines(c.Request.Context(), credential)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, pipelines)
}

// ListRuns returns recent sync runs newest-first
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.syncService.ListRuns(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, runs)
}

// ListPipelines returns stored pipelines with ordered stages
func (h *SyncHandler) ListPipelines(c *gin.Context) {
	pipelines, err := h.syncService.ListPipelines(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, pipelines)
}
