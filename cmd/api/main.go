package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"praktika/internal/api"
	"praktika/internal/config"
	"praktika/internal/database"
	"praktika/internal/domain"
	"praktika/internal/events"
	"praktika/internal/google"
	"praktika/internal/logging"
	"praktika/internal/metrics"
	"praktika/internal/models"
	"praktika/internal/notify"
	"praktika/internal/repository"
	"praktika/internal/service"
	"praktika/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	loc, err := cfg.Practice.Location()
	if err != nil {
		return fmt.Errorf("load practice timezone: %w", err)
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	reportStore := initReportStore(cfg, redisClient, &logger)
	eventBus := events.NewEventBus()

	syncWorker := initSyncWorker(cfg, db, redisClient, loc, &logger)

	availabilityService := service.NewAvailabilityService(db, reportStore, cfg.Practice, loc, &logger)
	bookingService := service.NewBookingService(
		db, eventBus, asSyncWorker(syncWorker), loc,
		cfg.Practice.MaxBookingDays, cfg.Practice.DefaultDurationMinutes, cfg.Practice.SnapshotBufferDays,
		&logger,
	)

	initNotifier(cfg, db, eventBus, loc, &logger)

	httpServer := api.NewHTTPServer(cfg.API, availabilityService, bookingService, loc, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if syncWorker != nil {
		go syncWorker.Start(ctx)
	}
	startMetrics(ctx, cfg, &logger)

	return serveHTTP(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// practiceResources is the shape of configs/practice.yaml.
type practiceResources struct {
	Staff    []models.Staff   `yaml:"staff"`
	Rooms    []models.Room    `yaml:"rooms"`
	Services []models.Service `yaml:"services"`
}

func loadResources(logger *zerolog.Logger) (*practiceResources, error) {
	resourcesPath := os.Getenv("RESOURCES_PATH")
	if resourcesPath == "" {
		resourcesPath = "configs/practice.yaml"
	}
	data, err := os.ReadFile(resourcesPath)
	if err != nil {
		logger.Error().Err(err).Str("resources_path", resourcesPath).Msg("read practice resources")
		return nil, err
	}

	var resources practiceResources
	if err := yaml.Unmarshal(data, &resources); err != nil {
		logger.Error().Err(err).Str("resources_path", resourcesPath).Msg("parse practice resources")
		return nil, err
	}

	if err := config.ValidateResources(resources.Staff, resources.Rooms, resources.Services); err != nil {
		return nil, fmt.Errorf("validate practice resources: %w", err)
	}
	return &resources, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	resources, err := loadResources(logger)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	db.SetResources(resources.Staff, resources.Rooms, resources.Services)
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initReportStore(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.ReportStore {
	ttl := time.Duration(cfg.Practice.ReportTTLSeconds) * time.Second
	memory := repository.NewMemoryReportStore(ttl)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverReportStore(repository.NewRedisReportStore(redisClient, ttl), memory, logger)
}

func initSyncWorker(cfg *config.Config, db *database.DB, redisClient *redis.Client, loc *time.Location, logger *zerolog.Logger) *worker.ScheduleSyncWorker {
	if !cfg.Google.Enabled {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		context.Background(),
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.ScheduleSpreadsheetID,
		loc,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without schedule mirror")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return worker.NewScheduleSyncWorker(db, sheetsService, redisClient, worker.DefaultRetryPolicy(), loc, logger)
}

// asSyncWorker avoids handing a typed nil to the booking service.
func asSyncWorker(w *worker.ScheduleSyncWorker) domain.SyncWorker {
	if w == nil {
		return nil
	}
	return w
}

func initNotifier(cfg *config.Config, db *database.DB, bus *events.EventBus, loc *time.Location, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled {
		return
	}

	bot, err := notify.NewBotAPI(cfg.Telegram)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}

	notifier := notify.New(bot, db, cfg.Telegram, loc, logger)
	notifier.SubscribeOverrideAlerts(bus)
	notifier.StartDigest(context.Background())
	logger.Info().Msg("telegram notifier started")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serveHTTP(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("availability api started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("availability api stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
