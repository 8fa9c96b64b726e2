package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-sync-api/internal/dto"
)

func newImportRouter(svc *MockImportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/import/contacts", NewImportHandler(svc).ImportContacts)
	return router
}

func multipartUpload(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestImportContacts_UploadsFile(t *testing.T) {
	var gotName, gotContent string
	svc := &MockImportService{
		ImportContactsFunc: func(ctx context.Context, fileName string, file io.Reader) (*dto.ImportResultResponse, error) {
			gotName = fileName
			raw, _ := io.ReadAll(file)
			gotContent = string(raw)
			return &dto.ImportResultResponse{Rows: 1, Created: 1}, nil
		},
	}
	router := newImportRouter(svc)

	body, contentType := multipartUpload(t, "file", "export.csv", "Contact Id\nc-1\n")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/contacts", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "export.csv", gotName)
	assert.Equal(t, "Contact Id\nc-1\n", gotContent)
	assert.Contains(t, w.Body.String(), `"created":1`)
}

func TestImportContacts_RejectsNonCSV(t *testing.T) {
	router := newImportRouter(&MockImportService{})

	body, contentType := multipartUpload(t, "file", "export.xlsx", "binary")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/contacts", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ".csv")
}

func TestImportContacts_RequiresFileField(t *testing.T) {
	router := newImportRouter(&MockImportService{})

	body, contentType := multipartUpload(t, "attachment", "export.csv", "Contact Id\n")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/contacts", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file form field")
}
