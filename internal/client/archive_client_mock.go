package client

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MockArchiveClient implements ArchiveClientInterface for testing
// without AWS credentials.
type MockArchiveClient struct {
	Bucket string
	Region string

	// Optional function overrides for custom test behavior
	ArchiveImportFileFunc func(ctx context.Context, fileName string, body io.Reader, contentType string) (string, string, error)
	DeleteFileFunc        func(ctx context.Context, key string) error
	GetFileURLFunc        func(key string) string
}

// NewMockArchiveClient creates a new mock archive client for testing
func NewMockArchiveClient() *MockArchiveClient {
	return &MockArchiveClient{
		Bucket: "test-bucket",
		Region: "ap-southeast-2",
	}
}

// ArchiveImportFile simulates an upload and returns a deterministic-shaped key
func (m *MockArchiveClient) ArchiveImportFile(ctx context.Context, fileName string, body io.Reader, contentType string) (string, string, error) {
	if m.ArchiveImportFileFunc != nil {
		return m.ArchiveImportFileFunc(ctx, fileName, body, contentType)
	}

	now := time.Now()
	key := fmt.Sprintf("imports/%s/%s/%s_%d%s",
		now.Format("2006"), now.Format("01"), uuid.New().String(), now.Unix(), filepath.Ext(fileName))
	return key, m.GetFileURL(key), nil
}

// DeleteFile simulates deletion
func (m *MockArchiveClient) DeleteFile(ctx context.Context, key string) error {
	if m.DeleteFileFunc != nil {
		return m.DeleteFileFunc(ctx, key)
	}
	return nil
}

// GetFileURL returns the public URL for an archived file
func (m *MockArchiveClient) GetFileURL(key string) string {
	if m.GetFileURLFunc != nil {
		return m.GetFileURLFunc(key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.Bucket, m.Region, key)
}

// Ensure MockArchiveClient implements ArchiveClientInterface
var _ ArchiveClientInterface = (*MockArchiveClient)(nil)
