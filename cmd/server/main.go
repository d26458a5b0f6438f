package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kupe-dashboard/analytics-engine/internal/api"
	"github.com/kupe-dashboard/analytics-engine/internal/config"
	"github.com/kupe-dashboard/analytics-engine/internal/generators"
	"github.com/kupe-dashboard/analytics-engine/internal/reports"
	"github.com/kupe-dashboard/analytics-engine/internal/scheduler"
	"github.com/kupe-dashboard/analytics-engine/internal/schema"
	"github.com/kupe-dashboard/analytics-engine/internal/storage"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting KUPE Analytics Engine")

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("db_host", cfg.Database.Host),
		zap.String("s3_bucket", cfg.S3.Bucket))

	// Initialize database
	db, err := storage.OpenPostgres(cfg.DatabaseDSN(), cfg.Database.MaxConnections, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis cache (best effort, the service runs without it)
	cache := storage.NewCache(&cfg.Redis, logger)
	defer cache.Close()

	// Initialize export storage
	exportStore, err := storage.NewExportStore(&cfg.S3, logger)
	if err != nil {
		logger.Fatal("Failed to initialize export storage", zap.Error(err))
	}

	// Initialize report engine
	inspector := schema.NewInspector(db, logger)
	engine := reports.NewEngine(db, inspector, logger,
		cfg.Reports.Currency, cfg.Reports.SpecialCity)

	// Initialize export pipeline
	excelGen := generators.NewExcelGenerator(logger)
	csvGen := generators.NewCSVGenerator(db, logger)
	exporter := reports.NewExporter(engine, excelGen, csvGen, exportStore, logger)

	// Initialize scheduler
	jobs := scheduler.New(engine, cache, exportStore,
		cfg.Scheduler.ExportRetentionDays, logger)

	if cfg.Scheduler.Enabled {
		if err := jobs.Start(context.Background()); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// Initialize HTTP server
	router := mux.NewRouter()

	handler := api.NewDashboardHandler(db, engine, exporter, cache, logger)
	handler.RegisterRoutes(router)

	// Add middleware
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")

	if cfg.Scheduler.Enabled {
		jobs.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func loadConfig() (*config.Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		// Try to load from default locations
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
		// If no config file found, Load will use defaults from Viper
	}

	return config.Load(configPath)
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			logger.Info("HTTP request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
