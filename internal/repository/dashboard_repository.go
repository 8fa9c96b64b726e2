package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

// StatusCount is one aggregated status bucket
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// SourceCount is one aggregated lead source bucket
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// StageCount is one aggregated pipeline stage bucket
type StageCount struct {
	StageID   uuid.UUID `json:"stage_id"`
	StageName string    `json:"stage_name"`
	Position  int       `json:"position"`
	Count     int64     `json:"count"`
	Value     float64   `json:"value"`
}

// OpportunitySlice is the minimal projection used for trend aggregation
type OpportunitySlice struct {
	CreatedTimestamp time.Time
	Value            *float64
	Status           *string
}

// DashboardRepository defines read-only aggregate queries over synced data
type DashboardRepository interface {
	CountContacts(ctx context.Context) (int64, error)
	CountOpportunities(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	SumValueByStatus(ctx context.Context, status string) (float64, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (float64, error)
	SourceBreakdown(ctx context.Context) ([]SourceCount, error)
	StageCounts(ctx context.Context, pipelineID uuid.UUID) ([]StageCount, error)
	OpportunitiesSince(ctx context.Context, since time.Time) ([]OpportunitySlice, error)
}

// dashboardRepositoryImpl is the GORM implementation of DashboardRepository
type dashboardRepositoryImpl struct {
	db *gorm.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepositoryImpl{db: db}
}

// CountContacts returns the total number of synced contacts
func (r *dashboardRepositoryImpl) CountContacts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contact{}).Count(&count).Error
	return count, err
}

// CountOpportunities returns the total number of synced opportunities
func (r *dashboardRepositoryImpl) CountOpportunities(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Count(&count).Error
	return count, err
}

// CountByStatus groups opportunities by normalized status
func (r *dashboardRepositoryImpl) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Opportunity{}).
		Select("COALESCE(LOWER(status), 'unknown') AS status, COUNT(*) AS count").
		Group("COALESCE(LOWER(status), 'unknown')").
		Find(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// SumValueByStatus sums opportunity value for one normalized status
func (r *dashboardRepositoryImpl) SumValueByStatus(ctx context.Context, status string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&domain.Opportunity{}).
		Select("COALESCE(SUM(value), 0)").
		Where("LOWER(status) = ?", status).
		Scan(&total).Error
	return total, err
}

// RevenueBetween sums won opportunity value inside [from, to)
func (r *dashboardRepositoryImpl) RevenueBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&domain.Opportunity{}).
		Select("COALESCE(SUM(value), 0)").
		Where("LOWER(status) = ?", "won").
		Where("created_timestamp >= ? AND created_timestamp < ?", from, to).
		Scan(&total).Error
	return total, err
}

// SourceBreakdown groups contacts by lead source
func (r *dashboardRepositoryImpl) SourceBreakdown(ctx context.Context) ([]SourceCount, error) {
	var counts []SourceCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Select("CASE WHEN source = '' THEN 'unknown' ELSE source END AS source, COUNT(*) AS count").
		Group("CASE WHEN source = '' THEN 'unknown' ELSE source END").
		Order("count DESC").
		Find(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// StageCounts aggregates one pipeline's opportunities per stage
func (r *dashboardRepositoryImpl) StageCounts(ctx context.Context, pipelineID uuid.UUID) ([]StageCount, error) {
	var counts []StageCount
	if err := r.db.WithContext(ctx).
		Model(&domain.PipelineStage{}).
		Select(`pipeline_stages.id AS stage_id,
			pipeline_stages.name AS stage_name,
			pipeline_stages.position AS position,
			COUNT(opportunities.id) AS count,
			COALESCE(SUM(opportunities.value), 0) AS value`).
		Joins("LEFT JOIN opportunities ON opportunities.current_stage_id = pipeline_stages.id").
		Where("pipeline_stages.pipeline_id = ?", pipelineID).
		Group("pipeline_stages.id, pipeline_stages.name, pipeline_stages.position").
		Order("position ASC").
		Find(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// OpportunitiesSince returns the trend projection for opportunities
// created at or after the cutoff. Month bucketing happens in the service
// so the query stays portable across dialects.
func (r *dashboardRepositoryImpl) OpportunitiesSince(ctx context.Context, since time.Time) ([]OpportunitySlice, error) {
	var slices []OpportunitySlice
	if err := r.db.WithContext(ctx).
		Model(&domain.Opportunity{}).
		Select("created_timestamp", "value", "status").
		Where("created_timestamp >= ?", since).
		Find(&slices).Error; err != nil {
		return nil, err
	}
	return slices, nil
}
