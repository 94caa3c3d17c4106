package router

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/onsil/backend/internal/handlers"
	"github.com/onsil/backend/internal/metrics"
	"github.com/onsil/backend/internal/middleware"
	"github.com/onsil/backend/internal/repositories"
	"github.com/onsil/backend/internal/services"
	"github.com/onsil/backend/pkg/blobstore"
	"github.com/onsil/backend/pkg/config"
	"github.com/onsil/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Dependencies are the long-lived clients the routes are built from
type Dependencies struct {
	Config   *config.Config
	Postgres *gorm.DB
	Mongo    *mongo.Database          // nil disables the location routes
	Blobs    blobstore.Store          // nil disables image uploads
	Firebase middleware.TokenVerifier // nil unless Firebase is configured
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(metrics.Middleware())
	e.Use(eMiddleware.CORS())
	logger.Log.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	if err := repositories.Migrate(deps.Postgres); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Log.Info("PostgreSQL auto-migrations completed.")

	cfg := deps.Config

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories and Services ---
	store := repositories.NewPostgresStore(deps.Postgres)
	memberRepo := repositories.NewPostgresMemberRepository(deps.Postgres)
	limits := services.PageLimits{
		DefaultSize: cfg.App.Pagination.DefaultSize,
		MaxSize:     cfg.App.Pagination.MaxSize,
	}

	var images services.ImageRemover
	var uploader *handlers.ImageUploader
	if deps.Blobs != nil {
		images = deps.Blobs
		uploader = handlers.NewImageUploader(deps.Blobs, cfg.App.Upload.MaxImageBytes, cfg.App.Upload.AllowedImageTypes)
	}
	boardService := services.NewBoardService(store, images, limits)
	commentService := services.NewCommentService(store)

	authMiddleware, err := identityMiddleware(cfg, deps.Firebase)
	if err != nil {
		return err
	}

	// --- Unprotected routes ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(memberRepo, deps.Firebase, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// protected routes take authMiddleware per route so unknown paths stay 404
	api := e.Group("/api/v1")
	logger.Log.Infof("%s authentication applied to protected /api/v1 routes.", cfg.AuthProvider)

	boardHandler := handlers.NewBoardHandler(boardService, uploader)
	boardHandler.RegisterPublicRoutes(api)
	boardHandler.RegisterBoardRoutes(api, authMiddleware)

	recommendHandler := handlers.NewRecommendHandler(boardService)
	recommendHandler.RegisterPublicRoutes(api)
	recommendHandler.RegisterRecommendRoutes(api, authMiddleware)

	commentHandler := handlers.NewCommentHandler(commentService)
	commentHandler.RegisterPublicRoutes(api)
	commentHandler.RegisterCommentRoutes(api, authMiddleware)

	memberHandler := handlers.NewMemberHandler(memberRepo)
	memberHandler.RegisterProfileRoutes(api, authMiddleware)

	if deps.Mongo != nil {
		locationRepo := repositories.NewMongoLocationRepository(deps.Mongo)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := locationRepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("location indexes: %w", err)
		}
		locationHandler := handlers.NewLocationHandler(services.NewLocationService(locationRepo))
		locationHandler.RegisterPublicRoutes(api)
		locationHandler.RegisterLocationRoutes(api, authMiddleware)
		logger.Log.Info("Location routes configured.")
	}

	logger.Log.Info("All routes configured.")
	return nil
}

func identityMiddleware(cfg *config.Config, verifier middleware.TokenVerifier) (echo.MiddlewareFunc, error) {
	if cfg.AuthProvider == config.AuthProviderFirebase {
		if verifier == nil {
			return nil, fmt.Errorf("AUTH_PROVIDER=firebase needs an initialized Firebase app")
		}
		return middleware.FirebaseAuthMiddleware(verifier), nil
	}
	return middleware.JWTAuthMiddleware(cfg.JWTSecret), nil
}
