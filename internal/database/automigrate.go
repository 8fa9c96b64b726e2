package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

// modelInfo holds information about a domain model and its table name
type modelInfo struct {
	model     interface{}
	tableName string
}

// syncedModels lists every domain model in dependency order: contacts
// before opportunities, pipelines before stages, so FK constraints can
// be created as tables appear.
func syncedModels() []modelInfo {
	return []modelInfo{
		{&domain.AuthCredential{}, "auth_credentials"},
		{&domain.Contact{}, "contacts"},
		{&domain.Pipeline{}, "pipelines"},
		{&domain.PipelineStage{}, "pipeline_stages"},
		{&domain.Opportunity{}, "opportunities"},
		{&domain.WebhookLog{}, "webhook_logs"},
		{&domain.SyncRun{}, "sync_runs"},
	}
}

// AutoMigrate runs GORM auto-migration for all domain models
func AutoMigrate(db *gorm.DB) error {
	models := syncedModels()
	targets := make([]interface{}, len(models))
	for i, m := range models {
		targets[i] = m.model
	}

	if err := db.AutoMigrate(targets...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}

	return nil
}

// SafeAutoMigrate runs auto-migration one table at a time, logging whether
// each table already existed. For existing tables GORM only applies schema
// differences; it never drops columns or data.
func SafeAutoMigrate(db *gorm.DB, logger *zap.Logger) error {
	migrator := db.Migrator()

	for _, m := range syncedModels() {
		tableExists := migrator.HasTable(m.model)

		if err := db.AutoMigrate(m.model); err != nil {
			logger.Error("Failed to migrate table",
				zap.String("table", m.tableName),
				zap.Bool("table_existed", tableExists),
				zap.Error(err),
			)
			return fmt.Errorf("failed to migrate table %s: %w", m.tableName, err)
		}

		logger.Info("Migrated table",
			zap.String("table", m.tableName),
			zap.Bool("was_existing", tableExists),
		)
	}

	return nil
}

// SafeAutoMigrateWithRetry runs SafeAutoMigrate up to maxRetries times with
// a linear backoff between attempts.
func SafeAutoMigrateWithRetry(db *gorm.DB, logger *zap.Logger, maxRetries int) error {
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = SafeAutoMigrate(db, logger)
		if err == nil {
			return nil
		}

		if attempt < maxRetries {
			backoff := time.Duration(attempt) * time.Second
			logger.Warn("Migration attempt failed, retrying...",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			time.Sleep(backoff)
		}
	}

	return fmt.Errorf("migration failed after %d attempts: %w", maxRetries, err)
}
