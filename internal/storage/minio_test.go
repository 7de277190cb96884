package storage

import (
	"testing"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMinioClientValidatesConfig(t *testing.T) {
	_, err := NewMinioClient(config.StorageConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "s3.local"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "s3.local", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")
}

func TestMinioObjectKey(t *testing.T) {
	c, err := NewMinioClient(config.StorageConfig{
		Endpoint:  "https://s3.local:9000/",
		AccessKey: "a",
		SecretKey: "b",
		Bucket:    "atk",
		Prefix:    "/reports/reorder/",
	})
	require.NoError(t, err)

	assert.Equal(t, "reports/reorder/recommendations.xlsx", c.ObjectKey("recommendations.xlsx"))
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.local", false, "s3.local", true},
		{"http://minio:9000/", true, "minio:9000", false},
		{"minio:9000", true, "minio:9000", true},
		{"//minio:9000", false, "minio:9000", false},
	}

	for _, tt := range tests {
		host, secure := normalizeEndpoint(tt.raw, tt.useSSL)
		assert.Equal(t, tt.wantHost, host, tt.raw)
		assert.Equal(t, tt.wantSecure, secure, tt.raw)
	}
}
