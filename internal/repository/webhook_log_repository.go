package repository

import (
	"context"

	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

// WebhookLogRepository defines the interface for webhook log storage
type WebhookLogRepository interface {
	Create(ctx context.Context, log *domain.WebhookLog) error
	FindRecent(ctx context.Context, limit, offset int) ([]*domain.WebhookLog, int64, error)
}

// webhookLogRepositoryImpl is the GORM implementation of WebhookLogRepository
type webhookLogRepositoryImpl struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new instance of WebhookLogRepository
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepositoryImpl{db: db}
}

// Create records one inbound webhook payload
func (r *webhookLogRepositoryImpl) Create(ctx context.Context, log *domain.WebhookLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindRecent returns webhook logs newest-first with the total row count
func (r *webhookLogRepositoryImpl) FindRecent(ctx context.Context, limit, offset int) ([]*domain.WebhookLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&domain.WebhookLog{}).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []*domain.WebhookLog
	if err := r.db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
