package handler

import (
	"context"
	"io"

	"crm-sync-api/internal/domain"
	"crm-sync-api/internal/dto"
	"crm-sync-api/internal/service"
)

// MockWebhookService is a mock implementation of service.WebhookService
type MockWebhookService struct {
	LogEventFunc     func(ctx context.Context, eventType string, raw []byte) error
	ProcessEventFunc func(ctx context.Context, event *dto.WebhookEvent) error
	ListLogsFunc     func(ctx context.Context, limit, offset int) ([]*domain.WebhookLog, int64, error)
}

var _ service.WebhookService = (*MockWebhookService)(nil)

func (m *MockWebhookService) LogEvent(ctx context.Context, eventType string, raw []byte) error {
	if m.LogEventFunc != nil {
		return m.LogEventFunc(ctx, eventType, raw)
	}
	return nil
}

func (m *MockWebhookService) ProcessEvent(ctx context.Context, event *dto.WebhookEvent) error {
	if m.ProcessEventFunc != nil {
		return m.ProcessEventFunc(ctx, event)
	}
	return nil
}

func (m *MockWebhookService) ListLogs(ctx context.Context, limit, offset int) ([]*domain.WebhookLog, int64, error) {
	if m.ListLogsFunc != nil {
		return m.ListLogsFunc(ctx, limit, offset)
	}
	return nil, 0, nil
}

// MockSyncService is a mock implementation of service.SyncService
type MockSyncService struct {
	SyncAllFunc       func(ctx context.Context, credential *domain.AuthCredential) (*domain.SyncRun, error)
	SyncPipelinesFunc func(ctx context.Context, credential *domain.AuthCredential) ([]*domain.Pipeline, error)
	ListRunsFunc      func(ctx context.Context, limit int) ([]*domain.SyncRun, error)
	ListPipelinesFunc func(ctx context.Context) ([]*domain.Pipeline, error)
}

var _ service.SyncService = (*MockSyncService)(nil)

func (m *MockSyncService) SyncAll(ctx context.Context, credential *domain.AuthCredential) (*domain.SyncRun, error) {
	if m.SyncAllFunc != nil {
		return m.SyncAllFunc(ctx, credential)
	}
	return &domain.SyncRun{}, nil
}

func (m *MockSyncService) SyncPipelines(ctx context.Context, credential *domain.AuthCredential) ([]*domain.Pipeline, error) {
	if m.SyncPipelinesFunc != nil {
		return m.SyncPipelinesFunc(ctx, credential)
	}
	return nil, nil
}

func (m *MockSyncService) ListRuns(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockSyncService) ListPipelines(ctx context.Context) ([]*domain.Pipeline, error) {
	if m.ListPipelinesFunc != nil {
		return m.ListPipelinesFunc(ctx)
	}
	return nil, nil
}

// MockAuthService is a mock implementation of service.AuthService
type MockAuthService struct {
	ConnectURLFunc        func() string
	HandleCallbackFunc    func(ctx context.Context, code string) (*domain.AuthCredential, error)
	ListCredentialsFunc   func(ctx context.Context) ([]*domain.AuthCredential, error)
	ResolveCredentialFunc func(ctx context.Context, locationID string) (*domain.AuthCredential, error)
	RefreshAllFunc        func(ctx context.Context) error
}

var _ service.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) ConnectURL() string {
	if m.ConnectURLFunc != nil {
		return m.ConnectURLFunc()
	}
	return "https://marketplace.example.com/oauth/chooselocation"
}

func (m *MockAuthService) HandleCallback(ctx context.Context, code string) (*domain.AuthCredential, error) {
	if m.HandleCallbackFunc != nil {
		return m.HandleCallbackFunc(ctx, code)
	}
	return &domain.AuthCredential{}, nil
}

func (m *MockAuthService) ListCredentials(ctx context.Context) ([]*domain.AuthCredential, error) {
	if m.ListCredentialsFunc != nil {
		return m.ListCredentialsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAuthService) ResolveCredential(ctx context.Context, locationID string) (*domain.AuthCredential, error) {
	if m.ResolveCredentialFunc != nil {
		return m.ResolveCredentialFunc(ctx, locationID)
	}
	return &domain.AuthCredential{LocationID: locationID}, nil
}

func (m *MockAuthService) RefreshAll(ctx context.Context) error {
	if m.RefreshAllFunc != nil {
		return m.RefreshAllFunc(ctx)
	}
	return nil
}

// MockDashboardService is a mock implementation of service.DashboardService
type MockDashboardService struct {
	GetDashboardFunc       func(ctx context.Context) (*dto.DashboardResponse, error)
	GetRevenueMetricsFunc  func(ctx context.Context) (*dto.RevenueMetricsResponse, error)
	GetPipelineFunnelsFunc func(ctx context.Context) ([]dto.PipelineFunnelResponse, error)
}

var _ service.DashboardService = (*MockDashboardService)(nil)

func (m *MockDashboardService) GetDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	if m.GetDashboardFunc != nil {
		return m.GetDashboardFunc(ctx)
	}
	return &dto.DashboardResponse{}, nil
}

func (m *MockDashboardService) GetRevenueMetrics(ctx context.Context) (*dto.RevenueMetricsResponse, error) {
	if m.GetRevenueMetricsFunc != nil {
		return m.GetRevenueMetricsFunc(ctx)
	}
	return &dto.RevenueMetricsResponse{}, nil
}

func (m *MockDashboardService) GetPipelineFunnels(ctx context.Context) ([]dto.PipelineFunnelResponse, error) {
	if m.GetPipelineFunnelsFunc != nil {
		return m.GetPipelineFunnelsFunc(ctx)
	}
	return nil, nil
}

// MockImportService is a mock implementation of service.ImportService
type MockImportService struct {
	ImportContactsFunc func(ctx context.Context, fileName string, file io.Reader) (*dto.ImportResultResponse, error)
}

var _ service.ImportService = (*MockImportService)(nil)

func (m *MockImportService) ImportContacts(ctx context.Context, fileName string, file io.Reader) (*dto.ImportResultResponse, error) {
	if m.ImportContactsFunc != nil {
		return m.ImportContactsFunc(ctx, fileName, file)
	}
	return &dto.ImportResultResponse{}, nil
}
