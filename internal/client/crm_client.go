package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"crm-sync-api/internal/metrics"
)

// Cursor is the compound pagination state for the CRM list endpoints:
// the epoch-millis timestamp and external id of the last record of the
// previous page.
type Cursor struct {
	StartAfter   *int64
	StartAfterID string
}

// ContactRecord is the explicit schema of a CRM contact payload. Every
// field except ID is optional; the normalizer owns all defaulting.
type ContactRecord struct {
	ID        string        `json:"id"`
	FirstName *string       `json:"firstName"`
	LastName  *string       `json:"lastName"`
	Email     *string       `json:"email"`
	Phone     *string       `json:"phone"`
	Address   *string       `json:"address"`
	Country   *string       `json:"country"`
	Source    *string       `json:"source"`
	Tags      []interface{} `json:"tags"`
	DateAdded interface{}   `json:"dateAdded"`
	CreatedAt interface{}   `json:"createdAt"`
	UpdatedAt interface{}   `json:"updatedAt"`
}

// OpportunityRecord is the explicit schema of a CRM opportunity payload
type OpportunityRecord struct {
	ID              string        `json:"id"`
	Name            *string       `json:"name"`
	ContactID       *string       `json:"contactId"`
	PipelineID      *string       `json:"pipelineId"`
	PipelineStageID *string       `json:"pipelineStageId"`
	Source          *string       `json:"source"`
	Status          *string       `json:"status"`
	AssignedTo      *string       `json:"assignedTo"`
	Address         *string       `json:"address"`
	MonetaryValue   interface{}   `json:"monetaryValue"`
	EngagementScore interface{}   `json:"engagementScore"`
	Tags            []interface{} `json:"tags"`
	DateAdded       interface{}   `json:"dateAdded"`
	CreatedAt       interface{}   `json:"createdAt"`
	UpdatedAt       interface{}   `json:"updatedAt"`
}

// PipelineRecord is the explicit schema of a CRM pipeline definition
type PipelineRecord struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	ShowInFunnel   *bool                 `json:"showInFunnel"`
	ShowInPieChart *bool                 `json:"showInPieChart"`
	DateAdded      interface{}           `json:"dateAdded"`
	DateUpdated    interface{}           `json:"dateUpdated"`
	Stages         []PipelineStageRecord `json:"stages"`
}

// PipelineStageRecord is one stage inside a PipelineRecord
type PipelineStageRecord struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Position       int    `json:"position"`
	ShowInFunnel   *bool  `json:"showInFunnel"`
	ShowInPieChart *bool  `json:"showInPieChart"`
}

// TokenResponse is the CRM OAuth token endpoint response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
	UserType     string `json:"userType"`
	CompanyID    string `json:"companyId"`
	UserID       string `json:"userId"`
	LocationID   string `json:"locationId"`
}

// APIError is a non-2xx response from the CRM, carrying the error
// envelope the API returns ({"error": status, "message": text}).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm api error: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether the error is a CRM 404 (record deleted upstream)
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// CRMClient defines the outbound interface to the CRM platform
type CRMClient interface {
	// FetchContactsPage fetches one page of contacts; total is the
	// server-reported collection size (0 when not reported).
	FetchContactsPage(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) (records []ContactRecord, total int, err error)
	// FetchOpportunitiesPage fetches one page of opportunities.
	FetchOpportunitiesPage(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) (records []OpportunityRecord, total int, err error)
	// GetContact fetches one contact's full detail by external id.
	GetContact(ctx context.Context, accessToken, contactID string) (*ContactRecord, error)
	// GetOpportunity fetches one opportunity's full detail by external id.
	GetOpportunity(ctx context.Context, accessToken, opportunityID string) (*OpportunityRecord, error)
	// GetPipelines fetches all pipeline definitions for a location.
	GetPipelines(ctx context.Context, accessToken, locationID string) ([]PipelineRecord, error)
	// GetLocation fetches the display name and timezone of a location.
	GetLocation(ctx context.Context, accessToken, locationID string) (name, timezone string, err error)
	// ExchangeCode exchanges an OAuth authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)
	// RefreshToken exchanges a refresh token for fresh tokens.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// Config holds the settings of the CRM HTTP client
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIVersion   string
	Timeout      time.Duration
}

// crmClient implements CRMClient against the LeadConnector REST API
type crmClient struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewCRMClient creates a new CRM API client
func NewCRMClient(cfg Config, logger *zap.Logger, m *metrics.Metrics) CRMClient {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2021-07-28"
	}
	return &crmClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// get performs an authorized GET and decodes the body into out
func (c *crmClient) get(ctx context.Context, accessToken, path string, params url.Values, out interface{}) error {
	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Version", c.cfg.APIVersion)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(path, http.MethodGet, statusCode, duration, err)
	}

	if err != nil {
		c.logger.Error("CRM request failed",
			zap.String("path", path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read crm response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("CRM returned non-success status",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode crm response: %w", err)
	}
	return nil
}

// errorMessage pulls the message out of a CRM error envelope, falling
// back to the raw body when the envelope does not parse.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}

func cursorParams(locationKey, locationID string, cursor Cursor, limit int) url.Values {
	params := url.Values{}
	params.Set(locationKey, locationID)
	params.Set("limit", strconv.Itoa(limit))
	if cursor.StartAfter != nil {
		params.Set("startAfter", strconv.FormatInt(*cursor.StartAfter, 10))
	}
	if cursor.StartAfterID != "" {
		params.Set("startAfterId", cursor.StartAfterID)
	}
	return params
}

// FetchContactsPage fetches one page of the contacts collection
func (c *crmClient) FetchContactsPage(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) ([]ContactRecord, int, error) {
	var out struct {
		Contacts []ContactRecord `json:"contacts"`
		Meta     struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := c.get(ctx, accessToken, "/contacts/", cursorParams("locationId", locationID, cursor, limit), &out); err != nil {
		return nil, 0, err
	}
	return out.Contacts, out.Meta.Total, nil
}

// FetchOpportunitiesPage fetches one page of the opportunity search.
// The search endpoint takes location_id where the contacts endpoint
// takes locationId; this mirrors the remote API.
func (c *crmClient) FetchOpportunitiesPage(ctx context.Context, accessToken, locationID string, cursor Cursor, limit int) ([]OpportunityRecord, int, error) {
	var out struct {
		Opportunities []OpportunityRecord `json:"opportunities"`
		Meta          struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := c.get(ctx, accessToken, "/opportunities/search/", cursorParams("location_id", locationID, cursor, limit), &out); err != nil {
		return nil, 0, err
	}
	return out.Opportunities, out.Meta.Total, nil
}

// GetContact fetches one contact's full detail
func (c *crmClient) GetContact(ctx context.Context, accessToken, contactID string) (*ContactRecord, error) {
	var out struct {
		Contact *ContactRecord `json:"contact"`
	}
	if err := c.get(ctx, accessToken, "/contacts/"+contactID, nil, &out); err != nil {
		return nil, err
	}
	if out.Contact == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "contact missing from response"}
	}
	return out.Contact, nil
}

// GetOpportunity fetches one opportunity's full detail
func (c *crmClient) GetOpportunity(ctx context.Context, accessToken, opportunityID string) (*OpportunityRecord, error) {
	var out struct {
		Opportunity *OpportunityRecord `json:"opportunity"`
	}
	if err := c.get(ctx, accessToken, "/opportunities/"+opportunityID, nil, &out); err != nil {
		return nil, err
	}
	if out.Opportunity == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "opportunity missing from response"}
	}
	return out.Opportunity, nil
}

// GetPipelines fetches all pipeline definitions for a location
func (c *crmClient) GetPipelines(ctx context.Context, accessToken, locationID string) ([]PipelineRecord, error) {
	params := url.Values{}
	params.Set("locationId", locationID)

	var out struct {
		Pipelines []PipelineRecord `json:"pipelines"`
	}
	if err := c.get(ctx, accessToken, "/opportunities/pipelines", params, &out); err != nil {
		return nil, err
	}
	return out.Pipelines, nil
}

// GetLocation fetches the display name and timezone of a location
func (c *crmClient) GetLocation(ctx context.Context, accessToken, locationID string) (string, string, error) {
	var out struct {
		Location struct {
			Name     string `json:"name"`
			Timezone string `json:"timezone"`
		} `json:"location"`
	}
	if err := c.get(ctx, accessToken, "/locations/"+locationID, nil, &out); err != nil {
		return "", "", err
	}
	return out.Location.Name, out.Location.Timezone, nil
}

// ExchangeCode exchanges an OAuth authorization code for tokens
func (c *crmClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("redirect_uri", c.cfg.RedirectURI)
	data.Set("code", code)

	return c.requestToken(ctx, data)
}

// RefreshToken exchanges a refresh token for fresh tokens
func (c *crmClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("refresh_token", refreshToken)

	return c.requestToken(ctx, data)
}

func (c *crmClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	endpoint := c.cfg.BaseURL + "/oauth/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall("/oauth/token", http.MethodPost, statusCode, duration, err)
	}

	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}
