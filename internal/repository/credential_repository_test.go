package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

func TestCredentialUpsert_ReplacesTokensForLocation(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.AuthCredential{
		LocationID:   "loc-1",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
	}))

	// A reinstall of the same location must not grow a second row
	require.NoError(t, repo.Upsert(ctx, &domain.AuthCredential{
		LocationID:   "loc-1",
		AccessToken:  "at-2",
		RefreshToken: "rt-2",
		LocationName: "Test Roofing",
	}))

	credentials, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, credentials, 1)
	assert.Equal(t, "at-2", credentials[0].AccessToken)
	assert.Equal(t, "Test Roofing", credentials[0].LocationName)
}

func TestUpdateTokens(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.AuthCredential{
		LocationID:   "loc-1",
		AccessToken:  "old-at",
		RefreshToken: "old-rt",
	}))

	require.NoError(t, repo.UpdateTokens(ctx, "loc-1", "new-at", "new-rt", 86399))

	credential, err := repo.FindByLocationID(ctx, "loc-1")
	require.NoError(t, err)
	assert.Equal(t, "new-at", credential.AccessToken)
	assert.Equal(t, "new-rt", credential.RefreshToken)
	assert.Equal(t, 86399, credential.ExpiresIn)

	err = repo.UpdateTokens(ctx, "loc-unknown", "at", "rt", 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
