package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/infrastructure/cloudinary"
	"github.com/route-draft-service/internal/infrastructure/mapbox"
	"github.com/route-draft-service/internal/infrastructure/objectstore"
	"github.com/route-draft-service/internal/pkg/logger"
	"github.com/route-draft-service/internal/repository/cache"
	"github.com/route-draft-service/internal/repository/document"
	"github.com/route-draft-service/internal/repository/firestore"
	"github.com/route-draft-service/internal/repository/postgres"
	redisRepo "github.com/route-draft-service/internal/repository/redis"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/worker"
	"github.com/route-draft-service/internal/worker/thumbnail"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "route-thumbnail-worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Thumbnail Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.String("store_driver", cfg.Store.Driver))

	if cfg.Mapbox.AccessToken == "" {
		log.Fatal("MAPBOX_ACCESS_TOKEN is required for the thumbnail worker")
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 4. Connect to the document store
	var store repository.DocumentStore
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		store = postgres.NewDocumentStore(db)
	case config.StoreDriverFirestore:
		client, err := firestore.New(initCtx, &cfg.Firestore, log)
		if err != nil {
			log.Fatal("Failed to connect to Firestore", zap.Error(err))
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Error("Failed to close Firestore client", zap.Error(err))
			}
		}()
		store = firestore.NewDocumentStore(client)
	case config.StoreDriverRedis:
		store = cache.NewDocumentStore(redisClient)
	default:
		log.Fatal("Thumbnail worker needs a document store", zap.String("driver", cfg.Store.Driver))
	}

	// 5. Media service
	var media repository.MediaService
	if cfg.Media.Provider == config.MediaProviderMinio {
		media, err = objectstore.NewClient(initCtx, &cfg.Minio, log)
		if err != nil {
			log.Fatal("Failed to connect to object storage", zap.Error(err))
		}
	} else {
		media = cloudinary.NewClient(&cfg.Cloudinary, log)
	}

	// 6. Initialize repositories and use cases
	routeRepo := document.NewRouteRepository(store, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	renderer := mapbox.NewStaticMapClient(&cfg.Mapbox, log)

	thumbnailUC := usecase.NewThumbnailUseCase(routeRepo, renderer, media, cacheRepo, cfg.Thumbnail, log)

	// 7. Initialize workers
	thumbnailWorker := thumbnail.NewThumbnailWorker(streamRepo, thumbnailUC, thumbnail.Config{
		ConsumerGroup: cfg.Worker.ConsumerGroup,
		BatchSize:     cfg.Worker.BatchSize,
		MaxRetries:    cfg.Worker.MaxRetries,
		PollInterval:  cfg.Worker.PollInterval,
	}, log)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(cfg.Worker.ShutdownTimeout, log)
	workerManager.Register(thumbnailWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("Received shutdown signal")
	case <-workerManager.Done():
		log.Error("Workers exited unexpectedly", zap.Error(workerManager.Err()))
	}

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
