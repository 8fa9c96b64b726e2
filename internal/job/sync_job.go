package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crm-sync-api/internal/service"
)

// syncJobTimeout bounds one scheduled resync across all locations
const syncJobTimeout = 2 * time.Hour

// SyncJob runs the scheduled full resync for every connected location
type SyncJob struct {
	authService service.AuthService
	syncService service.SyncService
	logger      *zap.Logger
}

// NewSyncJob creates a new SyncJob instance
func NewSyncJob(authService service.AuthService, syncService service.SyncService, logger *zap.Logger) *SyncJob {
	return &SyncJob{
		authService: authService,
		syncService: syncService,
		logger:      logger,
	}
}

// Run executes one scheduled resync. Each location syncs independently;
// one failing location does not stop the others.
func (j *SyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), syncJobTimeout)
	defer cancel()

	j.logger.Info("Starting scheduled sync")

	credentials, err := j.authService.ListCredentials(ctx)
	if err != nil {
		j.logger.Error("Failed to load credentials for scheduled sync", zap.Error(err))
		return
	}
	if len(credentials) == 0 {
		j.logger.Info("No connected locations, skipping scheduled sync")
		return
	}

	for _, credential := range credentials {
		if _, err := j.syncService.SyncPipelines(ctx, credential); err != nil {
			j.logger.Error("Scheduled pipeline sync failed",
				zap.String("location_id", credential.LocationID),
				zap.Error(err),
			)
		}
		if _, err := j.syncService.SyncAll(ctx, credential); err != nil {
			j.logger.Error("Scheduled sync failed",
				zap.String("location_id", credential.LocationID),
				zap.Error(err),
			)
		}
	}

	j.logger.Info("Scheduled sync finished",
		zap.Int("locations", len(credentials)),
	)
}
