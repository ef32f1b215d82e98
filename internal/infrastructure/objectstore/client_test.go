package objectstore

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObjectKey(t *testing.T) {
	t.Run("folder and public id with filename extension", func(t *testing.T) {
		key := ObjectKey(domain.UploadRequest{
			Folder:   "/photos/",
			PublicID: "p1",
			Filename: "IMG_001.JPG",
		}, "image/jpeg")
		assert.Equal(t, "photos/p1.jpg", key)
	})

	t.Run("extension from content type", func(t *testing.T) {
		key := ObjectKey(domain.UploadRequest{Folder: "thumbnails", PublicID: "r1"}, "image/png")
		assert.Equal(t, "thumbnails/r1.png", key)
	})

	t.Run("generated name without folder", func(t *testing.T) {
		key := ObjectKey(domain.UploadRequest{Filename: "logo.svg"}, "image/svg+xml")
		assert.True(t, strings.HasSuffix(key, ".svg"))
		assert.NotContains(t, key, "/")
	})
}

// TestClient_UploadAndDelete runs against a real MinIO when MINIO_TEST_ENDPOINT is set
func TestClient_UploadAndDelete(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set, skipping MinIO integration test")
	}

	ctx := context.Background()
	svc, err := NewClient(ctx, &config.MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_TEST_SECRET_KEY"),
		Bucket:    "route-media-test",
	}, zap.NewNop())
	require.NoError(t, err)

	ref, err := svc.Upload(ctx, domain.UploadRequest{
		Data:     []byte("\x89PNG\r\n\x1a\nfake"),
		Folder:   "thumbnails",
		PublicID: "test-route",
	})
	require.NoError(t, err)
	assert.Equal(t, "thumbnails/test-route.png", ref.PublicRef)
	assert.True(t, strings.HasSuffix(ref.URL, "/route-media-test/thumbnails/test-route.png"))

	assert.NoError(t, svc.Delete(ctx, ref.PublicRef))
}
