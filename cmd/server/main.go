package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/metrics"
	"github.com/onsil/backend/internal/router"
	"github.com/onsil/backend/internal/validators"
	"github.com/onsil/backend/pkg/blobstore"
	"github.com/onsil/backend/pkg/config"
	"github.com/onsil/backend/pkg/firebase"
	"github.com/onsil/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.Errorf("Failed to initialize databases: %v", err)
		os.Exit(1)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	ctx := context.Background()
	deps := router.Dependencies{Config: cfg, Postgres: db.Postgres}
	if db.Mongo != nil {
		deps.Mongo = db.Mongo.Database(cfg.MongoDatabase)
	}

	// Initialize Firebase when any component or the login route can use it
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			if cfg.NeedsFirebase() {
				logger.Log.Errorf("Failed to initialize Firebase: %v", err)
				os.Exit(1)
			}
			logger.Log.Warnf("Firebase unavailable, firebase login disabled: %v", err)
		} else {
			deps.Firebase = firebaseApp.AuthClient
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	blobs, err := newBlobStore(ctx, cfg, firebaseApp, e)
	if err != nil {
		logger.Log.Errorf("Failed to initialize blob store: %v", err)
		os.Exit(1)
	}
	deps.Blobs = blobs

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, deps); err != nil {
		logger.Log.Errorf("Failed to set up routes: %v", err)
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("Server stopped: %v", err)
			os.Exit(1)
		}
	}()
	logger.Log.Infof("Server listening on :%s (metrics on :%s)", cfg.Port, cfg.MetricsPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server shutdown failed: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Metrics server shutdown failed: %v", err)
	}
	logger.Log.Info("Server stopped")
}

func newBlobStore(ctx context.Context, cfg *config.Config, app *firebase.App, e *echo.Echo) (blobstore.Store, error) {
	if cfg.BlobBackend == config.BlobBackendFirebase {
		bucket, err := app.Bucket(ctx, cfg.FirebaseStorageBucket)
		if err != nil {
			return nil, err
		}
		return blobstore.NewFirebaseStore(bucket, cfg.FirebaseStorageBucket), nil
	}

	local, err := blobstore.NewLocalStore(cfg.MediaDir, "/media")
	if err != nil {
		return nil, err
	}
	e.Static("/media", local.Root())
	return local, nil
}
