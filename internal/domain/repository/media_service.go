package repository

import (
	"context"

	"github.com/route-draft-service/internal/domain"
)

// MediaService - сервис загрузки фотографий, логотипов и миниатюр
type MediaService interface {
	// Upload загружает файл и возвращает постоянную ссылку и публичный URL
	Upload(ctx context.Context, req domain.UploadRequest) (*domain.MediaRef, error)

	// Delete удаляет файл по постоянной ссылке
	Delete(ctx context.Context, publicRef string) error
}

// StaticMapRenderer рисует статическую карту маршрута
type StaticMapRenderer interface {
	Render(ctx context.Context, req domain.StaticMapRequest) ([]byte, error)
}
