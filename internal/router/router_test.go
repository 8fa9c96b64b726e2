package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/database"
	"crm-sync-api/internal/metrics"
)

const testJWTSecret = "router-test-secret"

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return Setup(Config{
		DB:        db,
		Logger:    zap.NewNop(),
		JWTSecret: testJWTSecret,
		Metrics:   metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop()),
		CRMClient: &client.MockCRMClient{},
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func TestRouter_HealthIsOpen(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_MetricsIsOpen(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WebhookIsOpen(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"ContactCreate","id":"c-1"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_APICallsRequireToken(t *testing.T) {
	router := setupTestRouter(t)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/sync"},
		{http.MethodGet, "/api/sync/runs"},
		{http.MethodGet, "/api/pipelines"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodGet, "/api/revenue-metrics"},
		{http.MethodGet, "/api/pipeline-funnels"},
		{http.MethodPost, "/api/import/contacts"},
		{http.MethodGet, "/admin/logs"},
	}

	for _, route := range protected {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s should require a token", route.method, route.path)
	}
}

func TestRouter_APIAcceptsValidToken(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_BasePathPrefixesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	router := Setup(Config{
		DB:        db,
		Logger:    zap.NewNop(),
		JWTSecret: testJWTSecret,
		BasePath:  "/crm",
		CRMClient: &client.MockCRMClient{},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/crm/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
