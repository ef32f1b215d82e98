package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/usecase/dto"
)

func TestMediaMaterializer_MaterializePhotos(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trail.jpg"), []byte("file-bytes"), 0o600))

	media := &MockMediaService{}
	media.On("Upload", mock.Anything, mock.MatchedBy(func(r domain.UploadRequest) bool {
		return string(r.Data) == "blob-bytes"
	})).Return(&domain.MediaRef{PublicRef: "photos/blob", URL: "https://cdn.example/blob.jpg"}, nil)
	media.On("Upload", mock.Anything, mock.MatchedBy(func(r domain.UploadRequest) bool {
		return string(r.Data) == "file-bytes" && r.Filename == "trail.jpg"
	})).Return(&domain.MediaRef{PublicRef: "photos/file", URL: "https://cdn.example/file.jpg"}, nil)
	media.On("Upload", mock.Anything, mock.MatchedBy(func(r domain.UploadRequest) bool {
		return string(r.Data) == "broken"
	})).Return(nil, errors.New("cloudinary: 500"))

	m := usecase.NewMediaMaterializer(media, 3, dir, zap.NewNop())

	photos := []domain.PhotoRef{
		{ID: "blob", URL: "blob:http://app/1", Asset: &domain.RawAsset{Blob: []byte("blob-bytes"), EmbeddedBlob: []byte("ignored")}},
		{ID: "file", PendingUpload: true, Asset: &domain.RawAsset{FilePath: "trail.jpg"}},
		{ID: "fail", Asset: &domain.RawAsset{Blob: []byte("broken")}},
		{ID: "escape", PendingUpload: true, Asset: &domain.RawAsset{FilePath: "../../etc/passwd"}},
		{ID: "done", PublicRef: "photos/done", URL: "https://cdn.example/done.jpg"},
	}

	out, warnings := m.MaterializePhotos(ctx, photos)
	require.Len(t, out, 5)

	assert.Equal(t, "photos/blob", out[0].PublicRef)
	assert.Nil(t, out[0].Asset)
	assert.Equal(t, "photos/file", out[1].PublicRef)
	assert.False(t, out[1].PendingUpload)
	assert.True(t, out[2].PendingUpload)
	assert.Nil(t, out[2].Asset)
	assert.True(t, out[3].PendingUpload)
	assert.Equal(t, photos[4], out[4])

	codes := map[string]int{}
	for _, w := range warnings {
		codes[w.Code]++
	}
	assert.Equal(t, map[string]int{dto.WarningUploadFailure: 1, dto.WarningUploadPending: 1}, codes)

	// input is not mutated
	assert.NotNil(t, photos[0].Asset)
}

func TestMediaMaterializer_WithoutMediaService(t *testing.T) {
	m := usecase.NewMediaMaterializer(nil, 1, "", zap.NewNop())

	out, warnings := m.MaterializePhotos(context.Background(), []domain.PhotoRef{
		{ID: "p1", URL: "data:image/png;base64,aGk="},
	})
	require.Len(t, out, 1)
	assert.True(t, out[0].PendingUpload)
	assert.Empty(t, out[0].URL, "local urls are never persisted")
	require.Len(t, warnings, 1)
	assert.Equal(t, dto.WarningUploadPending, warnings[0].Code)
}

func TestMediaMaterializer_MaterializeLogo(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads data url logo", func(t *testing.T) {
		media := &MockMediaService{}
		media.On("Upload", mock.Anything, mock.MatchedBy(func(r domain.UploadRequest) bool {
			return r.Folder == "logos" && r.ContentType == "image/png" && string(r.Data) == "hi"
		})).Return(&domain.MediaRef{PublicRef: "logos/1", URL: "https://cdn.example/logo.png"}, nil).Once()

		m := usecase.NewMediaMaterializer(media, 1, "", zap.NewNop())
		settings := &domain.HeaderSettings{LogoURL: "data:image/png;base64,aGk="}

		warnings := m.MaterializeLogo(ctx, settings)
		assert.Empty(t, warnings)
		assert.Equal(t, "https://cdn.example/logo.png", settings.LogoURL)
		assert.Equal(t, "logos/1", settings.LogoPublicRef)
		media.AssertExpectations(t)
	})

	t.Run("remote logo is kept as is", func(t *testing.T) {
		m := usecase.NewMediaMaterializer(nil, 1, "", zap.NewNop())
		settings := &domain.HeaderSettings{LogoURL: "https://cdn.example/existing.png"}

		assert.Empty(t, m.MaterializeLogo(ctx, settings))
		assert.Equal(t, "https://cdn.example/existing.png", settings.LogoURL)
	})
}
