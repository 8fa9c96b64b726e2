package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-sync-api/internal/domain"
)

// opportunityUpdateColumns is every column a sync may rewrite on an
// existing opportunity. external_id stays immutable.
var opportunityUpdateColumns = []string{
	"contact_id", "pipeline_id", "current_stage_id", "created_by_source",
	"created_by_channel", "source_id", "value", "engagement_score", "status",
	"assigned", "tags", "description", "address", "created_timestamp",
}

// opportunityWriteColumns drops created_timestamp from the rewrite set
// when the incoming value is zero, meaning the source payload carried no
// creation time. The stored value survives the update.
func opportunityWriteColumns(opportunity *domain.Opportunity) []string {
	if !opportunity.CreatedTimestamp.IsZero() {
		return opportunityUpdateColumns
	}
	columns := make([]string, 0, len(opportunityUpdateColumns))
	for _, column := range opportunityUpdateColumns {
		if column != "created_timestamp" {
			columns = append(columns, column)
		}
	}
	return columns
}

// OpportunityRepository defines the interface for opportunity data access
type OpportunityRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*domain.Opportunity, error)
	FindByExternalIDs(ctx context.Context, externalIDs []string) ([]*domain.Opportunity, error)
	ApplyChanges(ctx context.Context, creates []*domain.Opportunity, updates []*domain.Opportunity) error
	Upsert(ctx context.Context, opportunity *domain.Opportunity) (bool, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}

// opportunityRepositoryImpl is the GORM implementation of OpportunityRepository
type opportunityRepositoryImpl struct {
	db *gorm.DB
}

// NewOpportunityRepository creates a new instance of OpportunityRepository
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepositoryImpl{db: db}
}

// FindByExternalID finds an opportunity by its CRM identifier
func (r *opportunityRepositoryImpl) FindByExternalID(ctx context.Context, externalID string) (*domain.Opportunity, error) {
	var opportunity domain.Opportunity
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&opportunity).Error; err != nil {
		return nil, err
	}
	return &opportunity, nil
}

// FindByExternalIDs bulk-loads opportunities by their CRM identifiers
func (r *opportunityRepositoryImpl) FindByExternalIDs(ctx context.Context, externalIDs []string) ([]*domain.Opportunity, error) {
	if len(externalIDs) == 0 {
		return []*domain.Opportunity{}, nil
	}

	var opportunities []*domain.Opportunity
	if err := r.db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Find(&opportunities).Error; err != nil {
		return nil, err
	}
	return opportunities, nil
}

// ApplyChanges writes one reconciliation batch atomically, in the same
// shape as the contact batch writer.
func (r *opportunityRepositoryImpl) ApplyChanges(ctx context.Context, creates []*domain.Opportunity, updates []*domain.Opportunity) error {
	if len(creates) == 0 && len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(creates) > 0 {
			for _, opportunity := range creates {
				if opportunity.CreatedTimestamp.IsZero() {
					opportunity.CreatedTimestamp = time.Now()
				}
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}},
				DoNothing: true,
			}).CreateInBatches(creates, 100).Error; err != nil {
				return err
			}
		}

		for _, opportunity := range updates {
			if err := tx.Model(&domain.Opportunity{}).
				Where("id = ?", opportunity.ID).
				Select(opportunityWriteColumns(opportunity)).
				Updates(opportunity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Upsert writes a single opportunity by external id. Returns true on create.
func (r *opportunityRepositoryImpl) Upsert(ctx context.Context, opportunity *domain.Opportunity) (bool, error) {
	var existing domain.Opportunity
	err := r.db.WithContext(ctx).
		Where("external_id = ?", opportunity.ExternalID).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		if opportunity.CreatedTimestamp.IsZero() {
			opportunity.CreatedTimestamp = time.Now()
		}
		if err := r.db.WithContext(ctx).Create(opportunity).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	opportunity.ID = existing.ID
	if err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Where("id = ?", existing.ID).
		Select(opportunityWriteColumns(opportunity)).
		Updates(opportunity).Error; err != nil {
		return false, err
	}
	return false, nil
}

// DeleteByExternalID removes an opportunity by its CRM identifier
func (r *opportunityRepositoryImpl) DeleteByExternalID(ctx context.Context, externalID string) error {
	result := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Delete(&domain.Opportunity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
