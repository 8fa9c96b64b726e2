package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crm-sync-api/internal/domain"
)

// contactUpdateColumns is every column a sync may rewrite on an existing
// contact. external_id is deliberately absent: the sync key is immutable.
var contactUpdateColumns = []string{
	"first_name", "last_name", "full_name_lowercase", "email", "phone",
	"address", "country", "tags", "source", "date_added", "date_updated",
}

// contactWriteColumns drops date_added from the rewrite set when the
// incoming value is zero, meaning the source payload carried no creation
// time. The stored value survives the update.
func contactWriteColumns(contact *domain.Contact) []string {
	if !contact.DateAdded.IsZero() {
		return contactUpdateColumns
	}
	columns := make([]string, 0, len(contactUpdateColumns))
	for _, column := range contactUpdateColumns {
		if column != "date_added" {
			columns = append(columns, column)
		}
	}
	return columns
}

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Contact, error)
	FindByExternalIDs(ctx context.Context, externalIDs []string) ([]*domain.Contact, error)
	MapExternalIDs(ctx context.Context, externalIDs []string) (map[string]uuid.UUID, error)
	ApplyChanges(ctx context.Context, creates []*domain.Contact, updates []*domain.Contact) error
	Upsert(ctx context.Context, contact *domain.Contact) (bool, error)
	DeleteWithOpportunities(ctx context.Context, externalID string) error
}

// contactRepositoryImpl is the GORM implementation of ContactRepository
type contactRepositoryImpl struct {
	db *gorm.DB
}

// NewContactRepository creates a new instance of ContactRepository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepositoryImpl{db: db}
}

// FindByID finds a contact by its local ID
func (r *contactRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindByExternalID finds a contact by its CRM identifier
func (r *contactRepositoryImpl) FindByExternalID(ctx context.Context, externalID string) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindByExternalIDs bulk-loads contacts by their CRM identifiers
func (r *contactRepositoryImpl) FindByExternalIDs(ctx context.Context, externalIDs []string) ([]*domain.Contact, error) {
	if len(externalIDs) == 0 {
		return []*domain.Contact{}, nil
	}

	var contacts []*domain.Contact
	if err := r.db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// MapExternalIDs resolves CRM identifiers to local contact IDs
func (r *contactRepositoryImpl) MapExternalIDs(ctx context.Context, externalIDs []string) (map[string]uuid.UUID, error) {
	result := make(map[string]uuid.UUID, len(externalIDs))
	if len(externalIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ID         uuid.UUID
		ExternalID string
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Select("id", "external_id").
		Where("external_id IN ?", externalIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ExternalID] = row.ID
	}
	return result, nil
}

// ApplyChanges writes one reconciliation batch atomically: inserts for
// unseen contacts and full field rewrites for existing ones. Inserts use
// ON CONFLICT DO NOTHING so a race with the webhook path cannot fail the
// whole batch.
func (r *contactRepositoryImpl) ApplyChanges(ctx context.Context, creates []*domain.Contact, updates []*domain.Contact) error {
	if len(creates) == 0 && len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(creates) > 0 {
			for _, contact := range creates {
				if contact.DateAdded.IsZero() {
					contact.DateAdded = time.Now()
				}
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}},
				DoNothing: true,
			}).CreateInBatches(creates, 100).Error; err != nil {
				return err
			}
		}

		for _, contact := range updates {
			if err := tx.Model(&domain.Contact{}).
				Where("id = ?", contact.ID).
				Select(contactWriteColumns(contact)).
				Updates(contact).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Upsert writes a single contact, creating it when the external id is
// unseen and rewriting its fields otherwise. Returns true on create.
func (r *contactRepositoryImpl) Upsert(ctx context.Context, contact *domain.Contact) (bool, error) {
	var existing domain.Contact
	err := r.db.WithContext(ctx).
		Where("external_id = ?", contact.ExternalID).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		if contact.DateAdded.IsZero() {
			contact.DateAdded = time.Now()
		}
		if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	contact.ID = existing.ID
	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("id = ?", existing.ID).
		Select(contactWriteColumns(contact)).
		Updates(contact).Error; err != nil {
		return false, err
	}
	return false, nil
}

// DeleteWithOpportunities removes a contact and its opportunities in one
// transaction, opportunities first so the foreign key never dangles.
func (r *contactRepositoryImpl) DeleteWithOpportunities(ctx context.Context, externalID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contact domain.Contact
		if err := tx.Where("external_id = ?", externalID).First(&contact).Error; err != nil {
			return err
		}

		if err := tx.Where("contact_id = ?", contact.ID).
			Delete(&domain.Opportunity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Contact{}, contact.ID).Error
	})
}
