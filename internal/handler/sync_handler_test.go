package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-sync-api/internal/domain"
)

func newSyncRouter(syncSvc *MockSyncService, authSvc *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSyncHandler(syncSvc, authSvc, zap.NewNop())
	router := gin.New()
	router.POST("/sync", h.TriggerSync)
	router.POST("/sync/pipelines", h.SyncPipelines)
	router.GET("/sync/runs", h.ListRuns)
	router.GET("/pipelines", h.ListPipelines)
	return router
}

func TestTriggerSync_StartsBackgroundRun(t *testing.T) {
	started := make(chan string, 1)
	syncSvc := &MockSyncService{
		SyncAllFunc: func(ctx context.Context, credential *domain.AuthCredential) (*domain.SyncRun, error) {
			started <- credential.LocationID
			return &domain.SyncRun{}, nil
		},
	}
	authSvc := &MockAuthService{
		ResolveCredentialFunc: func(ctx context.Context, locationID string) (*domain.AuthCredential, error) {
			assert.Equal(t, "loc-1", locationID)
			return &domain.AuthCredential{LocationID: "loc-1"}, nil
		},
	}
	router := newSyncRouter(syncSvc, authSvc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader(`{"location_id":"loc-1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"started"`)
	assert.Contains(t, w.Body.String(), `"location_id":"loc-1"`)

	select {
	case loc := <-started:
		assert.Equal(t, "loc-1", loc)
	case <-time.After(2 * time.Second):
		t.Fatal("sync was never started")
	}
}

func TestTriggerSync_EmptyBodyUsesFirstCredential(t *testing.T) {
	authSvc := &MockAuthService{
		ResolveCredentialFunc: func(ctx context.Context, locationID string) (*domain.AuthCredential, error) {
			assert.Empty(t, locationID)
			return &domain.AuthCredential{LocationID: "first"}, nil
		},
	}
	router := newSyncRouter(&MockSyncService{}, authSvc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"location_id":"first"`)
}

func TestTriggerSync_NoCredentialStored(t *testing.T) {
	authSvc := &MockAuthService{
		ResolveCredentialFunc: func(ctx context.Context, locationID string) (*domain.AuthCredential, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	router := newSyncRouter(&MockSyncService{}, authSvc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestSyncPipelines_RunsSynchronously(t *testing.T) {
	syncSvc := &MockSyncService{
		SyncPipelinesFunc: func(ctx context.Context, credential *domain.AuthCredential) ([]*domain.Pipeline, error) {
			return []*domain.Pipeline{{Name: "Sales"}}, nil
		},
	}
	router := newSyncRouter(syncSvc, &MockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync/pipelines", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sales")
}

func TestListRuns_PassesLimit(t *testing.T) {
	var gotLimit int
	syncSvc := &MockSyncService{
		ListRunsFunc: func(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
			gotLimit = limit
			return []*domain.SyncRun{{Status: domain.SyncRunSucceeded}}, nil
		},
	}
	router := newSyncRouter(syncSvc, &MockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sync/runs?limit=5", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Contains(t, w.Body.String(), "SUCCEEDED")
}
