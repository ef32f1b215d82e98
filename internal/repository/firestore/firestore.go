package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/route-draft-service/internal/config"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type Client struct {
	*firestore.Client
	logger *zap.Logger
}

func New(ctx context.Context, cfg *config.FirestoreConfig, logger *zap.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id is not configured")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info("Firestore connected", zap.String("project", cfg.ProjectID))

	return &Client{Client: client, logger: logger}, nil
}

func (c *Client) Close() error {
	c.logger.Info("Closing Firestore client")
	return c.Client.Close()
}

// NewClientForTest оборачивает готовый клиент (например, эмулятор)
func NewClientForTest(client *firestore.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{Client: client, logger: logger}
}
