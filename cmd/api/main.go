package main

// @title Route Draft Service API
// @version 1.0.0
// @description Синхронизация черновиков маршрутов между клиентами и сохранение их как постоянных маршрутов.
// @description
// @description Основные возможности:
// @description - Поиск или создание черновика для серии сохранений
// @description - Запись сегментов, POI, линий, фото и описания с merge/replace семантикой
// @description - Сохранение черновика с миниатюрой и сводной статистикой
// @description - Индекс сохранённых маршрутов пользователя

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/route-draft-service/docs"
	"github.com/route-draft-service/internal/config"
	httpDelivery "github.com/route-draft-service/internal/delivery/http"
	"github.com/route-draft-service/internal/delivery/http/handler"
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
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "route-draft-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Draft Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("media_provider", cfg.Media.Provider),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 3. Connect to Redis (кэш чтения, stream событий, опционально хранилище)
	var (
		redisClient *cache.Redis
		cacheRepo   repository.CacheRepository
		streamRepo  repository.StreamRepository
	)
	redisClient, err = cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable, running without route cache and events", zap.Error(err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		cacheRepo = cache.NewCacheRepository(redisClient)
		streamRepo = redisRepo.NewStreamRepository(redisClient.Client(), log)
	}

	// 4. Connect to the document store
	store, closeStore := openDocumentStore(ctx, cfg, redisClient, log)
	defer closeStore()

	var routeRepo repository.RouteRepository
	if store != nil {
		if err := store.Health(ctx); err != nil {
			log.Error("Document store health check failed, route operations are disabled", zap.Error(err))
		} else {
			routeRepo = document.NewRouteRepository(store, log)
		}
	}
	log.Info("Repositories initialized", zap.Bool("store_ready", routeRepo != nil))

	// 5. Media and static map clients
	media, err := openMediaService(ctx, cfg, log)
	if err != nil {
		log.Error("Media service unavailable, uploads will fail", zap.Error(err))
	}
	var renderer repository.StaticMapRenderer
	if cfg.Mapbox.AccessToken != "" {
		renderer = mapbox.NewStaticMapClient(&cfg.Mapbox, log)
	} else {
		log.Warn("MAPBOX_ACCESS_TOKEN is empty, thumbnails are disabled")
	}

	// 6. Initialize Use Cases
	materializer := usecase.NewMediaMaterializer(media, cfg.Media.UploadConcurrency, cfg.Media.LocalDir, log)

	var thumbnailUC *usecase.ThumbnailUseCase
	if renderer != nil && media != nil {
		thumbnailUC = usecase.NewThumbnailUseCase(routeRepo, renderer, media, cacheRepo, cfg.Thumbnail, log)
	}

	draftUC := usecase.NewDraftUseCase(routeRepo, materializer, cacheRepo, log)
	promotionUC := usecase.NewPromotionUseCase(routeRepo, materializer, thumbnailUC, streamRepo, log)
	savedRouteUC := usecase.NewSavedRouteUseCase(routeRepo, cacheRepo, thumbnailUC, cfg.Cache.RouteCacheTTL, log)

	log.Info("Use cases initialized")

	// 7. Initialize HTTP Handlers
	checks := map[string]handler.HealthChecker{"store": nil, "redis": nil}
	if store != nil {
		checks["store"] = store
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	healthHandler := handler.NewHealthHandler(checks, log)
	draftHandler := handler.NewDraftHandler(draftUC, log)
	routeHandler := handler.NewRouteHandler(promotionUC, savedRouteUC, log)

	log.Info("HTTP handlers initialized")

	// 8. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		healthHandler,
		draftHandler,
		routeHandler,
	)

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

// openDocumentStore выбирает хранилище по STORE_DRIVER. nil означает, что маршрутные операции
// отвечают NOT_INITIALIZED
func openDocumentStore(ctx context.Context, cfg *config.Config, redisClient *cache.Redis, log *zap.Logger) (repository.DocumentStore, func()) {
	noop := func() {}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Error("Failed to connect to PostgreSQL", zap.Error(err))
			return nil, noop
		}
		return postgres.NewDocumentStore(db), func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}

	case config.StoreDriverFirestore:
		client, err := firestore.New(ctx, &cfg.Firestore, log)
		if err != nil {
			log.Error("Failed to connect to Firestore", zap.Error(err))
			return nil, noop
		}
		return firestore.NewDocumentStore(client), func() {
			if err := client.Close(); err != nil {
				log.Error("Failed to close Firestore client", zap.Error(err))
			}
		}

	case config.StoreDriverRedis:
		if redisClient == nil {
			log.Error("STORE_DRIVER=redis but Redis is unavailable")
			return nil, noop
		}
		return cache.NewDocumentStore(redisClient), noop

	default:
		log.Warn("Document store is not configured", zap.String("driver", cfg.Store.Driver))
		return nil, noop
	}
}

func openMediaService(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.MediaService, error) {
	switch cfg.Media.Provider {
	case config.MediaProviderMinio:
		return objectstore.NewClient(ctx, &cfg.Minio, log)
	default:
		return cloudinary.NewClient(&cfg.Cloudinary, log), nil
	}
}
