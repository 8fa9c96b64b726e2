package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

// PipelineRepository defines the interface for pipeline data access
type PipelineRepository interface {
	FindAll(ctx context.Context) ([]*domain.Pipeline, error)
	ReplaceAll(ctx context.Context, pipelines []*domain.Pipeline) error
	MapPipelineExternalIDs(ctx context.Context) (map[string]uuid.UUID, error)
	MapStageExternalIDs(ctx context.Context) (map[string]uuid.UUID, error)
}

// pipelineRepositoryImpl is the GORM implementation of PipelineRepository
type pipelineRepositoryImpl struct {
	db *gorm.DB
}

// NewPipelineRepository creates a new instance of PipelineRepository
func NewPipelineRepository(db *gorm.DB) PipelineRepository {
	return &pipelineRepositoryImpl{db: db}
}

// FindAll returns every pipeline with its stages ordered by position
func (r *pipelineRepositoryImpl) FindAll(ctx context.Context) ([]*domain.Pipeline, error) {
	var pipelines []*domain.Pipeline
	if err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("name ASC").
		Find(&pipelines).Error; err != nil {
		return nil, err
	}
	return pipelines, nil
}

// ReplaceAll rewrites pipeline definitions wholesale. Each pipeline row
// is upserted by external id and its stages are deleted and recreated,
// never merged, so stale stages cannot survive a definition reload.
func (r *pipelineRepositoryImpl) ReplaceAll(ctx context.Context, pipelines []*domain.Pipeline) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pipeline := range pipelines {
			stages := pipeline.Stages
			pipeline.Stages = nil

			var existing domain.Pipeline
			err := tx.Where("external_id = ?", pipeline.ExternalID).First(&existing).Error
			switch {
			case err == gorm.ErrRecordNotFound:
				if err := tx.Create(pipeline).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				pipeline.ID = existing.ID
				if err := tx.Model(&domain.Pipeline{}).
					Where("id = ?", existing.ID).
					Select("name", "show_in_funnel", "show_in_pie_chart", "date_added", "date_updated").
					Updates(pipeline).Error; err != nil {
					return err
				}
			}

			if err := tx.Where("pipeline_id = ?", pipeline.ID).
				Delete(&domain.PipelineStage{}).Error; err != nil {
				return err
			}
			for i := range stages {
				stages[i].PipelineID = pipeline.ID
			}
			if len(stages) > 0 {
				if err := tx.Create(&stages).Error; err != nil {
					return err
				}
			}
			pipeline.Stages = stages
		}
		return nil
	})
}

// MapPipelineExternalIDs resolves CRM pipeline ids to local ids
func (r *pipelineRepositoryImpl) MapPipelineExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	var rows []struct {
		ID         uuid.UUID
		ExternalID string
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.Pipeline{}).
		Select("id", "external_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		result[row.ExternalID] = row.ID
	}
	return result, nil
}

// MapStageExternalIDs resolves CRM stage ids to local ids
func (r *pipelineRepositoryImpl) MapStageExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	var rows []struct {
		ID         uuid.UUID
		ExternalID string
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.PipelineStage{}).
		Select("id", "external_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		result[row.ExternalID] = row.ID
	}
	return result, nil
}
