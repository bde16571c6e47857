package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/docutag/interlinker"
	"github.com/docutag/interlinker/api"
	"github.com/docutag/interlinker/db"
	"github.com/docutag/interlinker/metrics"
	"github.com/docutag/interlinker/storage"
	"github.com/docutag/interlinker/tracing"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// dbConfigFromEnv selects the database from DB_DRIVER/DB_DSN, or builds a
// PostgreSQL DSN from DB_HOST and friends
func dbConfigFromEnv(logger *slog.Logger) db.Config {
	if dsn := getEnv("DB_DSN", ""); dsn != "" {
		return db.Config{Driver: getEnv("DB_DRIVER", "postgres"), DSN: dsn}
	}

	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		path := getEnv("DB_PATH", "interlinker.db")
		logger.Info("using SQLite database", "path", path)
		return db.Config{Driver: "sqlite", DSN: path}
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "docutag")
	dbPassword := getEnv("DB_PASSWORD", "docutag_dev_pass")
	dbName := getEnv("DB_NAME", "docutag")
	logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)

	return db.Config{
		Driver: "postgres",
		DSN:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	}
}

// storeFromEnv returns an S3 store when S3_BUCKET is set, nil otherwise
func storeFromEnv(logger *slog.Logger) (storage.Store, error) {
	bucket := getEnv("S3_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}

	store, err := storage.NewS3Storage(context.Background(), storage.S3Config{
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "us-east-1"),
		Bucket:          bucket,
		Prefix:          getEnv("S3_PREFIX", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		UsePathStyle:    getEnv("S3_USE_PATH_STYLE", "") == "true",
	})
	if err != nil {
		return nil, err
	}
	logger.Info("using S3 storage", "bucket", bucket)
	return store, nil
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	logger.Info("interlinker service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("docutag-interlinker")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultStoragePath := getEnv("STORAGE_BASE_PATH", "./storage")
	defaultConfigPath := getEnv("INTERLINK_CONFIG", "")
	defaultHeuristicsPath := getEnv("INTERLINK_HEURISTICS", "")
	defaultTotalLinks := getEnv("TOTAL_TARGET_LINKS", "")

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	configPath := flag.String("config", defaultConfigPath, "YAML engine configuration file")
	heuristicsPath := flag.String("heuristics", defaultHeuristicsPath, "YAML scoring heuristics file")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	sanitize := flag.Bool("sanitize", getEnv("SANITIZE_INPUT", "") == "true", "Sanitize input HTML before injection")
	flag.Parse()

	engineConfig := interlinker.DefaultConfig()
	if *configPath != "" {
		engineConfig, err = interlinker.LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load engine config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if defaultTotalLinks != "" {
		total, err := strconv.Atoi(defaultTotalLinks)
		if err != nil || total < 1 {
			logger.Warn("invalid TOTAL_TARGET_LINKS value, using default",
				"provided", defaultTotalLinks,
				"default", engineConfig.TotalTargetLinks,
			)
		} else {
			engineConfig.TotalTargetLinks = total
		}
	}

	var heuristics *interlinker.Heuristics
	if *heuristicsPath != "" {
		heuristics, err = interlinker.LoadHeuristics(*heuristicsPath)
		if err != nil {
			logger.Error("failed to load heuristics", "path", *heuristicsPath, "error", err)
			os.Exit(1)
		}
	}

	store, err := storeFromEnv(logger)
	if err != nil {
		logger.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Create server configuration
	config := api.Config{
		Addr:         ":" + *port,
		DBConfig:     dbConfigFromEnv(logger),
		StoragePath:  defaultStoragePath,
		Store:        store,
		EngineConfig: engineConfig,
		Heuristics:   heuristics,
		CORSEnabled:  !*disableCORS,
		Sanitize:     *sanitize,
		Logger:       logger,
		Registry:     registry,
	}

	// Create server
	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Initialize database metrics
	dbMetrics := metrics.NewDatabaseMetrics("interlinker", registry)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(server.DB().DB())
		}
	}()
	logger.Info("database metrics initialized")

	// Start server in a goroutine
	go func() {
		logger.Info("interlinker service starting",
			"port", *port,
			"database_driver", config.DBConfig.Driver,
			"storage_path", defaultStoragePath,
			"s3_storage", store != nil,
			"total_target_links", engineConfig.TotalTargetLinks,
			"sanitize", *sanitize,
		)

		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
