package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Папки медиасервиса
const (
	mediaFolderPhotos     = "photos"
	mediaFolderLogos      = "logos"
	mediaFolderThumbnails = "thumbnails"
)

// MediaMaterializer загружает локальные фото и логотипы в медиасервис перед сохранением.
// Ошибка загрузки одного файла не прерывает остальные: фото остаётся в состоянии pendingUpload
type MediaMaterializer struct {
	media       repository.MediaService
	concurrency int
	localDir    string
	logger      *zap.Logger
}

func NewMediaMaterializer(
	media repository.MediaService,
	concurrency int,
	localDir string,
	logger *zap.Logger,
) *MediaMaterializer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &MediaMaterializer{
		media:       media,
		concurrency: concurrency,
		localDir:    localDir,
		logger:      logger,
	}
}

// MaterializePhotos возвращает копию фото с постоянными ссылками вместо локальных файлов.
// Все загрузки завершаются до возврата
func (m *MediaMaterializer) MaterializePhotos(ctx context.Context, photos []domain.PhotoRef) ([]domain.PhotoRef, []dto.Warning) {
	if photos == nil {
		return nil, nil
	}

	out := make([]domain.PhotoRef, len(photos))
	copy(out, photos)

	var (
		mu       sync.Mutex
		warnings []dto.Warning
	)
	warn := func(w dto.Warning) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(m.concurrency)

	for i := range out {
		if !out[i].NeedsUpload() {
			continue
		}

		asset, ok := m.resolveAsset(out[i].Asset, out[i].URL)
		if !ok || m.media == nil {
			markPending(&out[i])
			warn(dto.Warning{
				Code:    dto.WarningUploadPending,
				Message: fmt.Sprintf("photo %s has no uploadable asset, left pending", out[i].ID),
			})
			continue
		}

		i := i
		g.Go(func() error {
			ref, err := m.media.Upload(ctx, domain.UploadRequest{
				Data:        asset.data,
				Filename:    firstNonEmpty(asset.filename, out[i].Name),
				ContentType: asset.contentType,
				Folder:      mediaFolderPhotos,
			})
			if err != nil {
				m.logger.Warn("Photo upload failed, keeping it pending",
					zap.String("photo_id", out[i].ID),
					zap.Error(err))
				markPending(&out[i])
				warn(dto.Warning{
					Code:    dto.WarningUploadFailure,
					Message: fmt.Sprintf("photo %s upload failed: %v", out[i].ID, err),
				})
				return nil
			}

			out[i].PublicRef = ref.PublicRef
			out[i].URL = ref.URL
			out[i].PendingUpload = false
			out[i].IsLocal = false
			out[i].Asset = nil
			return nil
		})
	}

	// горутины всегда возвращают nil
	_ = g.Wait()

	if len(warnings) > 0 {
		m.logger.Info("Photos materialized with warnings", zap.Int("warnings", len(warnings)))
	}
	return out, warnings
}

// MaterializeLines загружает фото всех линий
func (m *MediaMaterializer) MaterializeLines(ctx context.Context, lines []domain.Line) ([]domain.Line, []dto.Warning) {
	if lines == nil {
		return nil, nil
	}

	out := make([]domain.Line, len(lines))
	var warnings []dto.Warning
	for i, line := range lines {
		photos, w := m.MaterializePhotos(ctx, line.Photos)
		line.Photos = photos
		out[i] = line
		warnings = append(warnings, w...)
	}
	return out, warnings
}

// MaterializeLogo загружает логотип шапки. blob: ссылка без файла очищается, а не сохраняется
func (m *MediaMaterializer) MaterializeLogo(ctx context.Context, settings *domain.HeaderSettings) []dto.Warning {
	if settings == nil {
		return nil
	}

	needsUpload := settings.LogoAsset != nil || domain.IsLocalURL(settings.LogoURL)
	if !needsUpload {
		return nil
	}

	asset, ok := m.resolveAsset(settings.LogoAsset, settings.LogoURL)
	settings.LogoAsset = nil
	if !ok || m.media == nil {
		settings.LogoURL = ""
		return []dto.Warning{{
			Code:    dto.WarningUploadPending,
			Message: "header logo has no uploadable asset and was cleared",
		}}
	}

	ref, err := m.media.Upload(ctx, domain.UploadRequest{
		Data:        asset.data,
		Filename:    asset.filename,
		ContentType: asset.contentType,
		Folder:      mediaFolderLogos,
	})
	if err != nil {
		m.logger.Warn("Logo upload failed", zap.Error(err))
		if domain.IsLocalURL(settings.LogoURL) {
			settings.LogoURL = ""
		}
		return []dto.Warning{{
			Code:    dto.WarningUploadFailure,
			Message: fmt.Sprintf("header logo upload failed: %v", err),
		}}
	}

	settings.LogoURL = ref.URL
	settings.LogoPublicRef = ref.PublicRef
	return nil
}

type resolvedAsset struct {
	data        []byte
	filename    string
	contentType string
}

// resolveAsset выбирает источник по приоритету: blob, встроенный blob (в том числе data: URL), файл
func (m *MediaMaterializer) resolveAsset(asset *domain.RawAsset, rawURL string) (resolvedAsset, bool) {
	if asset != nil {
		if len(asset.Blob) > 0 {
			return resolvedAsset{data: asset.Blob, filename: asset.Filename, contentType: asset.ContentType}, true
		}
		if len(asset.EmbeddedBlob) > 0 {
			return resolvedAsset{data: asset.EmbeddedBlob, filename: asset.Filename, contentType: asset.ContentType}, true
		}
	}

	if data, contentType, ok := decodeDataURL(rawURL); ok {
		name := ""
		if asset != nil {
			name = asset.Filename
		}
		return resolvedAsset{data: data, filename: name, contentType: contentType}, true
	}

	if asset != nil && asset.FilePath != "" {
		data, err := m.readLocalFile(asset.FilePath)
		if err != nil {
			m.logger.Warn("Failed to read local asset", zap.String("path", asset.FilePath), zap.Error(err))
			return resolvedAsset{}, false
		}
		return resolvedAsset{
			data:        data,
			filename:    firstNonEmpty(asset.Filename, filepath.Base(asset.FilePath)),
			contentType: asset.ContentType,
		}, true
	}

	return resolvedAsset{}, false
}

// readLocalFile читает файл только внутри MEDIA_LOCAL_DIR
func (m *MediaMaterializer) readLocalFile(path string) ([]byte, error) {
	if m.localDir == "" {
		return nil, fmt.Errorf("local media directory is not configured")
	}
	full := filepath.Join(m.localDir, filepath.Clean("/"+path))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file %s", path)
	}
	return data, nil
}

// decodeDataURL разбирает data:[<mediatype>][;base64],<data>
func decodeDataURL(raw string) ([]byte, string, bool) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, "", false
	}
	header, payload, found := strings.Cut(raw[len("data:"):], ",")
	if !found {
		return nil, "", false
	}

	contentType := strings.TrimSuffix(header, ";base64")
	var data []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", false
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", false
		}
		data = []byte(unescaped)
	}

	if len(data) == 0 {
		return nil, "", false
	}
	return data, contentType, true
}

// markPending оставляет фото в ожидании загрузки. Локальная ссылка не сохраняется
func markPending(p *domain.PhotoRef) {
	p.PendingUpload = true
	p.Asset = nil
	if domain.IsLocalURL(p.URL) {
		p.URL = ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
