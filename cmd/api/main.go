package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mini-crm/internal/application/service"
	"github.com/sangkips/mini-crm/internal/config"
	"github.com/sangkips/mini-crm/internal/infrastructure/database"
	"github.com/sangkips/mini-crm/internal/infrastructure/logger"
	"github.com/sangkips/mini-crm/internal/infrastructure/repository"
	"github.com/sangkips/mini-crm/internal/presentation/http/handler"
	"github.com/sangkips/mini-crm/internal/presentation/http/routes"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// The connection is opened lazily; a failed warm-up is retried on the first request
	provider := database.NewProvider(&cfg.Database, zapLogger)
	if _, err := provider.Acquire(); err != nil {
		zapLogger.Warn("Database not reachable at startup", zap.Error(err))
	}
	defer provider.Reset()

	customerRepo := repository.NewCustomerRepository(provider)
	customerService := service.NewCustomerService(customerRepo, zapLogger)

	handlers := &routes.Handlers{
		Customer: handler.NewCustomerHandler(
			customerService,
			cfg.App.ItemsPerPage,
			cfg.App.ShowErrorDetail(),
			cfg.App.Location(),
			zapLogger,
		),
		Health: handler.NewHealthHandler(provider, cfg.App.Name),
	}

	router, err := routes.Setup(handlers, &routes.Deps{
		Cfg:    cfg,
		Logger: zapLogger,
		DB:     provider,
	})
	if err != nil {
		zapLogger.Fatal("Failed to set up routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:        ":" + cfg.App.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		zapLogger.Info("Server starting",
			zap.String("service", cfg.App.Name),
			zap.String("env", cfg.App.Env),
			zap.String("port", cfg.App.Port),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}
