package repository

import (
	"context"

	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

// SyncRunRepository defines the interface for sync run bookkeeping
type SyncRunRepository interface {
	Create(ctx context.Context, run *domain.SyncRun) error
	Update(ctx context.Context, run *domain.SyncRun) error
	FindRecent(ctx context.Context, limit int) ([]*domain.SyncRun, error)
}

// syncRunRepositoryImpl is the GORM implementation of SyncRunRepository
type syncRunRepositoryImpl struct {
	db *gorm.DB
}

// NewSyncRunRepository creates a new instance of SyncRunRepository
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepositoryImpl{db: db}
}

// Create opens a new sync run record
func (r *syncRunRepositoryImpl) Create(ctx context.Context, run *domain.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update saves the current state of a sync run
func (r *syncRunRepositoryImpl) Update(ctx context.Context, run *domain.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// FindRecent returns the latest sync runs newest-first
func (r *syncRunRepositoryImpl) FindRecent(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	var runs []*domain.SyncRun
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
