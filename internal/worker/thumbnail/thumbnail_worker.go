package thumbnail

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase/dto"
	"github.com/route-draft-service/internal/worker"
	"go.uber.org/zap"
)

const (
	defaultBatchSize    = 10
	defaultPollInterval = time.Second
	errorSleep          = time.Second
	retryBackoff        = 500 * time.Millisecond
)

// Backfiller догенерирует миниатюру сохранённого маршрута
type Backfiller interface {
	Backfill(ctx context.Context, event domain.RoutePromotedEvent) (*dto.UpdateResult, error)
}

// Config - параметры чтения stream:route:promoted
type Config struct {
	ConsumerGroup string
	BatchSize     int
	MaxRetries    int
	// PollInterval - пауза, если очередь пуста
	PollInterval time.Duration
}

// ThumbnailWorker читает stream:route:promoted и догенерирует миниатюры,
// которые не удалось сделать во время сохранения черновика
type ThumbnailWorker struct {
	*worker.StreamConsumer
	streamRepo repository.StreamRepository
	backfiller Backfiller
	cfg        Config
}

func NewThumbnailWorker(
	streamRepo repository.StreamRepository,
	backfiller Backfiller,
	cfg Config,
	logger *zap.Logger,
) *ThumbnailWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	return &ThumbnailWorker{
		StreamConsumer: worker.NewStreamConsumer("route-thumbnail", domain.StreamRoutePromoted, cfg.ConsumerGroup, logger),
		streamRepo:     streamRepo,
		backfiller:     backfiller,
		cfg:            cfg,
	}
}

// Start создает consumer group и читает события до Stop или отмены контекста
func (w *ThumbnailWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting ThumbnailWorker",
		zap.String("stream", w.Stream()),
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()),
		zap.Int("batch_size", w.cfg.BatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, w.Stream(), w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for !w.Stopped() {
		if err := ctx.Err(); err != nil {
			logger.Info("Context cancelled")
			return err
		}

		processed, err := w.ProcessBatch(ctx)
		switch {
		case err != nil:
			logger.Error("Failed to process batch", zap.Error(err))
			w.Sleep(ctx, errorSleep)
		case processed == 0:
			w.Sleep(ctx, w.cfg.PollInterval)
		}
	}

	logger.Info("Worker stopped")
	return nil
}

// ProcessBatch читает и обрабатывает одну пачку событий, возвращает число прочитанных сообщений
func (w *ThumbnailWorker) ProcessBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ConsumeBatch(ctx, w.Stream(), w.ConsumerGroup(), w.ConsumerName(), w.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	for _, msg := range messages {
		w.handle(ctx, msg)
		// сообщение подтверждается всегда: повторы делаются здесь, PEL не используется
		if err := w.streamRepo.AckMessage(ctx, w.Stream(), w.ConsumerGroup(), msg.ID); err != nil {
			w.Logger().Warn("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	return len(messages), nil
}

func (w *ThumbnailWorker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	var event domain.RoutePromotedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		logger.Warn("Failed to parse message, skipping", zap.Error(err))
		return
	}
	if !event.NeedsThumbnail() {
		return
	}
	logger = logger.With(zap.String("route_id", event.RouteID))

	for attempt := 1; attempt <= w.cfg.MaxRetries; attempt++ {
		result, err := w.backfiller.Backfill(ctx, event)
		if err == nil {
			logger.Info("Thumbnail backfilled",
				zap.String("outcome", string(result.Outcome)),
				zap.Int("warnings", len(result.Warnings)))
			return
		}
		if stderrors.Is(err, errors.ErrRouteNotFound) || stderrors.Is(err, errors.ErrNotInitialized) {
			logger.Warn("Thumbnail backfill skipped", zap.Error(err))
			return
		}

		logger.Warn("Thumbnail backfill failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", w.cfg.MaxRetries),
			zap.Error(err))
		if attempt < w.cfg.MaxRetries {
			if !w.Sleep(ctx, retryBackoff*time.Duration(attempt)) {
				return
			}
		}
	}

	logger.Error("Thumbnail backfill gave up", zap.Int("attempts", w.cfg.MaxRetries))
}
