package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/config"
	"crm-sync-api/internal/domain"
	"crm-sync-api/internal/repository"
)

// AuthService owns the CRM OAuth lifecycle: the install redirect, the
// callback exchange, and keeping stored tokens fresh.
type AuthService interface {
	// ConnectURL builds the marketplace authorization URL.
	ConnectURL() string
	// HandleCallback exchanges the authorization code and stores the
	// resulting credential, enriched with the location's name and timezone.
	HandleCallback(ctx context.Context, code string) (*domain.AuthCredential, error)
	// ListCredentials returns every stored credential.
	ListCredentials(ctx context.Context) ([]*domain.AuthCredential, error)
	// ResolveCredential finds a credential by location, or the first
	// stored one when locationID is empty.
	ResolveCredential(ctx context.Context, locationID string) (*domain.AuthCredential, error)
	// RefreshAll rotates the token pair of every stored credential.
	// Individual failures are logged and skipped.
	RefreshAll(ctx context.Context) error
}

// authService is the implementation of AuthService
type authService struct {
	crm         client.CRMClient
	credentials repository.CredentialRepository
	cfg         config.CRMConfig
	logger      *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(crm client.CRMClient, credentials repository.CredentialRepository, cfg config.CRMConfig, logger *zap.Logger) AuthService {
	return &authService{
		crm:         crm,
		credentials: credentials,
		cfg:         cfg,
		logger:      logger,
	}
}

// ConnectURL builds the marketplace authorization URL
func (s *authService) ConnectURL() string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("client_id", s.cfg.ClientID)
	params.Set("scope", s.cfg.Scope)
	return s.cfg.MarketplaceURL + "/oauth/chooselocation?" + params.Encode()
}

// HandleCallback exchanges the authorization code and stores the credential
func (s *authService) HandleCallback(ctx context.Context, code string) (*domain.AuthCredential, error) {
	token, err := s.crm.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	if token.LocationID == "" {
		return nil, fmt.Errorf("token response carries no location id")
	}

	credential := &domain.AuthCredential{
		LocationID:   token.LocationID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
		Scope:        token.Scope,
		UserType:     token.UserType,
		CompanyID:    token.CompanyID,
		UserID:       token.UserID,
	}

	// Location metadata is cosmetic; a fetch failure must not lose the tokens
	name, timezone, err := s.crm.GetLocation(ctx, token.AccessToken, token.LocationID)
	if err != nil {
		s.logger.Warn("Failed to fetch location metadata",
			zap.String("location_id", token.LocationID),
			zap.Error(err),
		)
	} else {
		credential.LocationName = name
		credential.Timezone = timezone
	}

	if err := s.credentials.Upsert(ctx, credential); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	s.logger.Info("Stored OAuth credential",
		zap.String("location_id", credential.LocationID),
		zap.String("location_name", credential.LocationName),
	)
	return credential, nil
}

// ListCredentials returns every stored credential
func (s *authService) ListCredentials(ctx context.Context) ([]*domain.AuthCredential, error) {
	return s.credentials.FindAll(ctx)
}

// ResolveCredential finds a credential by location, falling back to the
// first stored one when locationID is empty.
func (s *authService) ResolveCredential(ctx context.Context, locationID string) (*domain.AuthCredential, error) {
	if locationID != "" {
		return s.credentials.FindByLocationID(ctx, locationID)
	}

	credentials, err := s.credentials.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(credentials) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return credentials[0], nil
}

// RefreshAll rotates the token pair of every stored credential
func (s *authService) RefreshAll(ctx context.Context) error {
	credentials, err := s.credentials.FindAll(ctx)
	if err != nil {
		return err
	}

	var failures int
	for _, credential := range credentials {
		token, err := s.crm.RefreshToken(ctx, credential.RefreshToken)
		if err != nil {
			failures++
			s.logger.Error("Token refresh failed",
				zap.String("location_id", credential.LocationID),
				zap.Error(err),
			)
			continue
		}

		refreshToken := token.RefreshToken
		if refreshToken == "" {
			refreshToken = credential.RefreshToken
		}
		if err := s.credentials.UpdateTokens(ctx, credential.LocationID, token.AccessToken, refreshToken, token.ExpiresIn); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			failures++
			s.logger.Error("Failed to store refreshed tokens",
				zap.String("location_id", credential.LocationID),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("Refreshed tokens",
			zap.String("location_id", credential.LocationID),
		)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d credentials failed to refresh", failures, len(credentials))
	}
	return nil
}
