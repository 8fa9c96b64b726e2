package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crm-sync-api/internal/service"
)

// refreshJobTimeout bounds one refresh sweep
const refreshJobTimeout = 5 * time.Minute

// TokenRefreshJob keeps stored OAuth tokens fresh ahead of their expiry
type TokenRefreshJob struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewTokenRefreshJob creates a new TokenRefreshJob instance
func NewTokenRefreshJob(authService service.AuthService, logger *zap.Logger) *TokenRefreshJob {
	return &TokenRefreshJob{
		authService: authService,
		logger:      logger,
	}
}

// Run executes one refresh sweep over all stored credentials
func (j *TokenRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshJobTimeout)
	defer cancel()

	j.logger.Info("Starting token refresh sweep")
	if err := j.authService.RefreshAll(ctx); err != nil {
		j.logger.Error("Token refresh sweep finished with failures", zap.Error(err))
		return
	}
	j.logger.Info("Token refresh sweep finished")
}
