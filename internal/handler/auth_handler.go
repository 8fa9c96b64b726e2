package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm-sync-api/internal/response"
	"crm-sync-api/internal/service"
)

// initialSyncTimeout bounds the background sync started after an install
const initialSyncTimeout = 30 * time.Minute

// AuthHandler drives the CRM OAuth install flow
type AuthHandler struct {
	authService service.AuthService
	syncService service.SyncService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, syncService service.SyncService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		syncService: syncService,
		logger:      logger,
	}
}

// Connect redirects the browser to the marketplace authorization page
func (h *AuthHandler) Connect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.authService.ConnectURL())
}

// Callback exchanges the authorization code, stores the credential, and
// kicks off the first full sync in the background.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "code query parameter is required")
		return
	}

	credential, err := h.authService.HandleCallback(c.Request.Context(), code)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), initialSyncTimeout)
		defer cancel()

		if _, err := h.syncService.SyncPipelines(ctx, credential); err != nil {
			h.logger.Error("Initial pipeline sync failed",
				zap.String("location_id", credential.LocationID),
				zap.Error(err),
			)
		}
		if _, err := h.syncService.SyncAll(ctx, credential); err != nil {
			h.logger.Error("Initial full sync failed",
				zap.String("location_id", credential.LocationID),
				zap.Error(err),
			)
		}
	}()

	response.SendSuccess(c, http.StatusOK, gin.H{
		"location_id":   credential.LocationID,
		"location_name": credential.LocationName,
		"sync":          "started",
	})
}

// Tokens lists the stored credentials. Token values themselves never
// serialize; the domain model hides them.
func (h *AuthHandler) Tokens(c *gin.Context) {
	credentials, err := h.authService.ListCredentials(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, credentials)
}
