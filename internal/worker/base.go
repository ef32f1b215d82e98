package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StreamConsumer - общая часть воркеров, читающих Redis stream через consumer group
type StreamConsumer struct {
	name     string
	stream   string
	group    string
	consumer string
	logger   *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewStreamConsumer создает основу воркера. Имя консьюмера уникально для процесса: host-pid
func NewStreamConsumer(name, stream, group string, logger *zap.Logger) *StreamConsumer {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "worker"
	}

	return &StreamConsumer{
		name:     name,
		stream:   stream,
		group:    group,
		consumer: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		logger:   logger.With(zap.String("worker", name)),
		stopChan: make(chan struct{}),
	}
}

func (c *StreamConsumer) Name() string          { return c.name }
func (c *StreamConsumer) Stream() string        { return c.stream }
func (c *StreamConsumer) ConsumerGroup() string { return c.group }
func (c *StreamConsumer) ConsumerName() string  { return c.consumer }
func (c *StreamConsumer) Logger() *zap.Logger   { return c.logger }

// Stop сигнализирует циклу воркера завершиться. Повторный вызов ничего не делает
func (c *StreamConsumer) Stop() error {
	c.stopOnce.Do(func() {
		c.logger.Info("Stopping worker")
		close(c.stopChan)
	})
	return nil
}

// Stopped - был ли вызван Stop
func (c *StreamConsumer) Stopped() bool {
	select {
	case <-c.stopChan:
		return true
	default:
		return false
	}
}

func (c *StreamConsumer) StopChan() <-chan struct{} {
	return c.stopChan
}

// Sleep ждёт d, Stop или отмену контекста. false - воркеру пора выходить
func (c *StreamConsumer) Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.stopChan:
		return false
	}
}
