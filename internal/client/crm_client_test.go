package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) CRMClient {
	return NewCRMClient(Config{
		BaseURL:      baseURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8000/auth/callback",
	}, zap.NewNop(), nil)
}

func TestFetchContactsPage_RequestShape(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/contacts/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Version")
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"contacts":[{"id":"c-1","firstName":"Ada"}],"meta":{"total":37}}`))
	}))
	defer server.Close()

	cursor := Cursor{StartAfterID: "c-0"}
	after := int64(1704067200000)
	cursor.StartAfter = &after

	records, total, err := newTestClient(server.URL).FetchContactsPage(context.Background(), "token", "loc-1", cursor, 100)
	require.NoError(t, err)

	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "2021-07-28", gotVersion)
	assert.Equal(t, "loc-1", gotQuery["locationId"])
	assert.Equal(t, "100", gotQuery["limit"])
	assert.Equal(t, "1704067200000", gotQuery["startAfter"])
	assert.Equal(t, "c-0", gotQuery["startAfterId"])

	assert.Equal(t, 37, total)
	require.Len(t, records, 1)
	assert.Equal(t, "c-1", records[0].ID)
}

func TestFetchOpportunitiesPage_UsesSnakeCaseLocationKey(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/opportunities/search/", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"opportunities":[],"meta":{"total":0}}`))
	}))
	defer server.Close()

	_, _, err := newTestClient(server.URL).FetchOpportunitiesPage(context.Background(), "token", "loc-1", Cursor{}, 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"loc-1"}, gotQuery["location_id"])
	assert.NotContains(t, gotQuery, "locationId", "the search endpoint takes snake case")
}

func TestGetContact_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":404,"message":"Contact not found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetContact(context.Background(), "token", "c-gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Contact not found")
}

func TestGetContact_ErrorEnvelopeFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetContact(context.Background(), "token", "c-1")
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream exploded", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestExchangeCode_SendsFormEncodedGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":86399,"locationId":"loc-1"}`))
	}))
	defer server.Close()

	token, err := newTestClient(server.URL).ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)
	assert.Equal(t, "loc-1", token.LocationID)
}

func TestRefreshToken_TokenEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid refresh token"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).RefreshToken(context.Background(), "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid refresh token")
}

func TestGetPipelines_DecodesStages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/opportunities/pipelines", r.URL.Path)
		assert.Equal(t, "loc-1", r.URL.Query().Get("locationId"))
		w.Write([]byte(`{"pipelines":[{"id":"p-1","name":"Sales","stages":[{"id":"s-1","name":"New","position":0}]}]}`))
	}))
	defer server.Close()

	pipelines, err := newTestClient(server.URL).GetPipelines(context.Background(), "token", "loc-1")
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	require.Len(t, pipelines[0].Stages, 1)
	assert.Equal(t, "New", pipelines[0].Stages[0].Name)
}
