package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"go.uber.org/zap"
)

type client struct {
	minio     *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// NewClient создает MediaService поверх S3-совместимого хранилища и создает бакет при необходимости
func NewClient(ctx context.Context, cfg *config.MinioConfig, logger *zap.Logger) (repository.MediaService, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Bucket created", zap.String("bucket", cfg.Bucket))
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	logger.Info("Object storage connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket))

	return &client{
		minio:     mc,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}, nil
}

func (c *client) Upload(ctx context.Context, req domain.UploadRequest) (*domain.MediaRef, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty upload payload")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(req.Data)
	}

	key := ObjectKey(req, contentType)
	info, err := c.minio.PutObject(ctx, c.bucket, key, bytes.NewReader(req.Data), int64(len(req.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		c.logger.Error("Failed to put object", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to put object: %w", err)
	}

	c.logger.Debug("Object uploaded", zap.String("key", info.Key), zap.Int64("size", info.Size))

	return &domain.MediaRef{
		PublicRef: key,
		URL:       c.publicURL + "/" + key,
	}, nil
}

func (c *client) Delete(ctx context.Context, publicRef string) error {
	if publicRef == "" {
		return nil
	}
	// RemoveObject не возвращает ошибку для отсутствующего объекта
	if err := c.minio.RemoveObject(ctx, c.bucket, publicRef, minio.RemoveObjectOptions{}); err != nil {
		c.logger.Error("Failed to remove object", zap.String("key", publicRef), zap.Error(err))
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// ObjectKey строит ключ объекта: {folder}/{publicId или uuid}{ext}
func ObjectKey(req domain.UploadRequest, contentType string) string {
	name := req.PublicID
	if name == "" {
		name = uuid.NewString()
	}

	ext := path.Ext(req.Filename)
	if ext == "" && contentType == "image/jpeg" {
		ext = ".jpg"
	}
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	if !strings.HasSuffix(name, ext) {
		name += strings.ToLower(ext)
	}

	folder := strings.Trim(req.Folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
