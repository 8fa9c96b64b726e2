package client

import "context"

// MockCRMClient is a configurable CRMClient stand-in for tests
type MockCRMClient struct {
	FetchContactsPageFunc      func(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) ([]ContactRecord, int, error)
	FetchOpportunitiesPageFunc func(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) ([]OpportunityRecord, int, error)
	GetContactFunc             func(ctx context.Context, accessToken, contactID string) (*ContactRecord, error)
	GetOpportunityFunc         func(ctx context.Context, accessToken, opportunityID string) (*OpportunityRecord, error)
	GetPipelinesFunc           func(ctx context.Context, accessToken, locationID string) ([]PipelineRecord, error)
	GetLocationFunc            func(ctx context.Context, accessToken, locationID string) (string, string, error)
	ExchangeCodeFunc           func(ctx context.Context, code string) (*TokenResponse, error)
	RefreshTokenFunc           func(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

func (m *MockCRMClient) FetchContactsPage(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) ([]ContactRecord, int, error) {
	if m.FetchContactsPageFunc != nil {
		return m.FetchContactsPageFunc(ctx, accessToken, locationID, cursor, limit)
	}
	return nil, 0, nil
}

func (m *MockCRMClient) FetchOpportunitiesPage(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) ([]OpportunityRecord, int, error) {
	if m.FetchOpportunitiesPageFunc != nil {
		return m.FetchOpportunitiesPageFunc(ctx, accessToken, locationID, cursor, limit)
	}
	return nil, 0, nil
}

func (m *MockCRMClient) GetContact(ctx context.Context, accessToken, contactID string) (*ContactRecord, error) {
	if m.GetContactFunc != nil {
		return m.GetContactFunc(ctx, accessToken, contactID)
	}
	return nil, &APIError{Status: 404, Message: "not found"}
}

func (m *MockCRMClient) GetOpportunity(ctx context.Context, accessToken, opportunityID string) (*OpportunityRecord, error) {
	if m.GetOpportunityFunc != nil {
		return m.GetOpportunityFunc(ctx, accessToken, opportunityID)
	}
	return nil, &APIError{Status: 404, Message: "not found"}
}

func (m *MockCRMClient) GetPipelines(ctx context.Context, accessToken, locationID string) ([]PipelineRecord, error) {
	if m.GetPipelinesFunc != nil {
		return m.GetPipelinesFunc(ctx, accessToken, locationID)
	}
	return nil, nil
}

func (m *MockCRMClient) GetLocation(ctx context.Context, accessToken, locationID string) (string, string, error) {
	if m.GetLocationFunc != nil {
		return m.GetLocationFunc(ctx, accessToken, locationID)
	}
	return "", "", nil
}

func (m *MockCRMClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, code)
	}
	return nil, &APIError{Status: 400, Message: "invalid code"}
}

func (m *MockCRMClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return nil, &APIError{Status: 400, Message: "invalid refresh token"}
}
