package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"crm-sync-api/internal/database"
	"crm-sync-api/internal/domain"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestApplyChanges_CreatesAndUpdates(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	existing := &domain.Contact{ExternalID: "c-1", FirstName: "Old"}
	require.NoError(t, db.Create(existing).Error)

	existing.FirstName = "New"
	err := repo.ApplyChanges(ctx,
		[]*domain.Contact{{ExternalID: "c-2", FirstName: "Fresh"}},
		[]*domain.Contact{existing},
	)
	require.NoError(t, err)

	var updated domain.Contact
	require.NoError(t, db.Where("external_id = ?", "c-1").First(&updated).Error)
	assert.Equal(t, "New", updated.FirstName)

	var created domain.Contact
	require.NoError(t, db.Where("external_id = ?", "c-2").First(&created).Error)
	assert.Equal(t, "Fresh", created.FirstName)
}

func TestApplyChanges_ConflictingCreateIsIgnored(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.Contact{ExternalID: "c-1", FirstName: "Kept"}).Error)

	err := repo.ApplyChanges(ctx,
		[]*domain.Contact{{ExternalID: "c-1", FirstName: "Racer"}},
		nil,
	)
	require.NoError(t, err, "a concurrent insert of the same external id never fails the batch")

	var count int64
	require.NoError(t, db.Model(&domain.Contact{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var contact domain.Contact
	require.NoError(t, db.Where("external_id = ?", "c-1").First(&contact).Error)
	assert.Equal(t, "Kept", contact.FirstName)
}

func TestApplyChanges_UpdateNeverTouchesExternalID(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	existing := &domain.Contact{ExternalID: "c-1", FirstName: "Old"}
	require.NoError(t, db.Create(existing).Error)

	mutated := &domain.Contact{
		BaseModel:  existing.BaseModel,
		ExternalID: "c-hijacked",
		FirstName:  "New",
	}
	require.NoError(t, repo.ApplyChanges(ctx, nil, []*domain.Contact{mutated}))

	var contact domain.Contact
	require.NoError(t, db.First(&contact, existing.ID).Error)
	assert.Equal(t, "c-1", contact.ExternalID, "external id is immutable")
	assert.Equal(t, "New", contact.FirstName)
}

func TestUpsert_CreateThenUpdate(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	contact := &domain.Contact{ExternalID: "c-1", FirstName: "Ada"}
	created, err := repo.Upsert(ctx, contact)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "", contact.ID.String())

	again := &domain.Contact{ExternalID: "c-1", FirstName: "Ada Lovelace"}
	created, err = repo.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, contact.ID, again.ID, "upsert adopts the existing row id")

	var count int64
	require.NoError(t, db.Model(&domain.Contact{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyChanges_ZeroDateAddedIsPreservedOnUpdate(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	added := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	existing := &domain.Contact{ExternalID: "c-1", FirstName: "Old", DateAdded: added}
	require.NoError(t, db.Create(existing).Error)

	// A payload without a creation time leaves the field zero
	require.NoError(t, repo.ApplyChanges(ctx, nil, []*domain.Contact{{
		BaseModel:  existing.BaseModel,
		ExternalID: "c-1",
		FirstName:  "New",
	}}))

	var contact domain.Contact
	require.NoError(t, db.First(&contact, existing.ID).Error)
	assert.Equal(t, "New", contact.FirstName)
	assert.True(t, contact.DateAdded.Equal(added), "date_added survives a dateless update")
}

func TestApplyChanges_ZeroDateAddedIsStampedOnCreate(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	require.NoError(t, repo.ApplyChanges(ctx,
		[]*domain.Contact{{ExternalID: "c-1"}},
		nil,
	))

	var contact domain.Contact
	require.NoError(t, db.Where("external_id = ?", "c-1").First(&contact).Error)
	assert.True(t, contact.DateAdded.After(before), "new rows get a real creation time")
}

func TestDeleteWithOpportunities(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	contact := &domain.Contact{ExternalID: "c-1"}
	require.NoError(t, db.Create(contact).Error)
	other := &domain.Contact{ExternalID: "c-2"}
	require.NoError(t, db.Create(other).Error)
	require.NoError(t, db.Create(&domain.Opportunity{ExternalID: "o-1", ContactID: contact.ID}).Error)
	require.NoError(t, db.Create(&domain.Opportunity{ExternalID: "o-2", ContactID: other.ID}).Error)

	require.NoError(t, repo.DeleteWithOpportunities(ctx, "c-1"))

	var contactCount, opportunityCount int64
	require.NoError(t, db.Model(&domain.Contact{}).Count(&contactCount).Error)
	require.NoError(t, db.Model(&domain.Opportunity{}).Count(&opportunityCount).Error)
	assert.Equal(t, int64(1), contactCount)
	assert.Equal(t, int64(1), opportunityCount, "only the deleted contact's opportunities go")

	err := repo.DeleteWithOpportunities(ctx, "c-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMapExternalIDs(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	first := &domain.Contact{ExternalID: "c-1"}
	second := &domain.Contact{ExternalID: "c-2"}
	require.NoError(t, db.Create(first).Error)
	require.NoError(t, db.Create(second).Error)

	mapping, err := repo.MapExternalIDs(ctx, []string{"c-1", "c-2", "c-unknown"})
	require.NoError(t, err)
	assert.Len(t, mapping, 2)
	assert.Equal(t, first.ID, mapping["c-1"])
	assert.Equal(t, second.ID, mapping["c-2"])

	empty, err := repo.MapExternalIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
