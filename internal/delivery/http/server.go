package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/delivery/http/handler"
	"github.com/route-draft-service/internal/delivery/http/middleware"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	healthHandler *handler.HealthHandler
	draftHandler  *handler.DraftHandler
	routeHandler  *handler.RouteHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthHandler *handler.HealthHandler,
	draftHandler *handler.DraftHandler,
	routeHandler *handler.RouteHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Route Draft Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		// фото приходят data: URL внутри JSON
		BodyLimit:    32 * 1024 * 1024,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:           app,
		config:        cfg,
		logger:        logger,
		healthHandler: healthHandler,
		draftHandler:  draftHandler,
		routeHandler:  routeHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber приложение, используется в тестах
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", s.healthHandler.Health)

	secured := api.Group("", middleware.JWTAuth(s.config.Auth.JWTSecret))

	// Drafts
	secured.Post("/drafts/resolve", s.draftHandler.ResolveDraft)
	secured.Get("/drafts/latest", s.draftHandler.LatestDraft)
	secured.Get("/drafts/:id", s.draftHandler.GetDraft)
	secured.Patch("/drafts/:id/segments/:segmentId", s.draftHandler.UpdateSegment)
	secured.Delete("/drafts/:id/segments/:segmentId", s.draftHandler.DeleteSegment)
	secured.Put("/drafts/:id/master-route", s.draftHandler.UpdateMasterRoute)
	secured.Post("/drafts/:id/promote", s.routeHandler.PromoteDraft)

	// Fragments - черновик или сохранённый маршрут по SaveTarget
	fragments := secured.Group("/fragments")
	fragments.Post("/segments", s.draftHandler.SaveSegment)
	fragments.Post("/pois", s.draftHandler.MergePOIs)
	fragments.Post("/lines", s.draftHandler.MergeLines)
	fragments.Post("/photos", s.draftHandler.MergePhotos)
	fragments.Post("/description", s.draftHandler.SaveDescription)
	fragments.Post("/map-overview", s.draftHandler.SaveMapOverview)
	secured.Put("/header-settings", s.draftHandler.UpdateHeaderSettings)

	// Saved routes
	secured.Get("/routes", s.routeHandler.ListRoutes)
	secured.Get("/routes/:id", s.routeHandler.GetRoute)
	secured.Patch("/routes/:id", s.routeHandler.UpdateRoute)
	secured.Delete("/routes/:id", s.routeHandler.DeleteRoute)
	secured.Patch("/routes/:id/segments/:segmentId", s.routeHandler.UpdateSegment)
	secured.Delete("/routes/:id/segments/:segmentId", s.routeHandler.DeleteSegment)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			if code == fiber.StatusNotFound {
				errCode = "NOT_FOUND"
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errCode,
				"message": err.Error(),
			},
		})
	}
}
