package repository

import (
	"context"

	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

// CredentialRepository defines the interface for OAuth credential storage
type CredentialRepository interface {
	Upsert(ctx context.Context, credential *domain.AuthCredential) error
	FindByLocationID(ctx context.Context, locationID string) (*domain.AuthCredential, error)
	FindAll(ctx context.Context) ([]*domain.AuthCredential, error)
	UpdateTokens(ctx context.Context, locationID, accessToken, refreshToken string, expiresIn int) error
}

// credentialRepositoryImpl is the GORM implementation of CredentialRepository
type credentialRepositoryImpl struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new instance of CredentialRepository
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepositoryImpl{db: db}
}

// Upsert stores a credential, replacing any existing row for the location
func (r *credentialRepositoryImpl) Upsert(ctx context.Context, credential *domain.AuthCredential) error {
	var existing domain.AuthCredential
	err := r.db.WithContext(ctx).
		Where("location_id = ?", credential.LocationID).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(credential).Error
	}
	if err != nil {
		return err
	}

	credential.ID = existing.ID
	return r.db.WithContext(ctx).Model(&domain.AuthCredential{}).
		Where("id = ?", existing.ID).
		Select("access_token", "refresh_token", "expires_in", "scope",
			"user_type", "company_id", "user_id", "location_name", "timezone").
		Updates(credential).Error
}

// FindByLocationID finds the credential for a location
func (r *credentialRepositoryImpl) FindByLocationID(ctx context.Context, locationID string) (*domain.AuthCredential, error) {
	var credential domain.AuthCredential
	if err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}

// FindAll returns every stored credential
func (r *credentialRepositoryImpl) FindAll(ctx context.Context) ([]*domain.AuthCredential, error) {
	var credentials []*domain.AuthCredential
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&credentials).Error; err != nil {
		return nil, err
	}
	return credentials, nil
}

// UpdateTokens replaces the token pair for a location after a refresh
func (r *credentialRepositoryImpl) UpdateTokens(ctx context.Context, locationID, accessToken, refreshToken string, expiresIn int) error {
	result := r.db.WithContext(ctx).Model(&domain.AuthCredential{}).
		Where("location_id = ?", locationID).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_in":    expiresIn,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
