// Package app wires configuration into the stores, adapters and services
// shared by the API server and the cron runner.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"tourbooking-backend/internal/cache"
	"tourbooking-backend/internal/clock"
	"tourbooking-backend/internal/config"
	"tourbooking-backend/internal/jobs"
	"tourbooking-backend/internal/lease"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/mailer"
	"tourbooking-backend/internal/metrics"
	"tourbooking-backend/internal/queue"
	"tourbooking-backend/internal/repository/postgres"
	"tourbooking-backend/internal/security"
	"tourbooking-backend/internal/service"
	"tourbooking-backend/internal/weather"
)

const leasePrefix = "tourbooking:lease:"

type App struct {
	Config *config.Config
	Clock  clock.Clock

	DB     *sql.DB
	Store  *postgres.Store
	Redis  *redis.Client
	Locker lease.Locker
	Events queue.Publisher

	Mail     mailer.Transport
	Renderer *mailer.Renderer
	Weather  weather.Provider

	Notifications service.NotificationService
	Tours         service.TourService
	Bookings      service.BookingService
	AddOns        service.AddOnService
	Reviews       service.ReviewService
	Completion    service.CompletionService

	// Tokens is nil when no JWT secret is configured.
	Tokens security.TokenManager
}

// New connects to PostgreSQL and the optional Redis and RabbitMQ backends
// and builds the services. Missing optional backends degrade to in-process
// leases, no forecast cache and dropped integration events.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Clock: clock.Real()}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")
	a.DB = db
	a.Store = postgres.NewStore(db)

	a.Redis, err = cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.Redis != nil {
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
		a.Locker = lease.NewRedisLocker(a.Redis, leasePrefix)
	} else {
		logger.Info("Redis not configured, using in-process job leases")
		a.Locker = lease.NewLocalLocker()
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := queue.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("RabbitMQ publisher ready", "exchange", cfg.RabbitMQ.Exchange)
		a.Events = publisher
	} else {
		logger.Info("RabbitMQ not configured, integration events are dropped")
		a.Events = queue.Noop{}
	}

	a.Mail, err = mailer.NewTransport(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("Mail transport configured", "transport", a.Mail.Name())
	a.Renderer, err = mailer.NewRenderer()
	if err != nil {
		a.Close()
		return nil, err
	}

	var provider weather.Provider = weather.NewOpenWeatherClient(weather.Config{
		BaseURL: cfg.Weather.BaseURL,
		APIKey:  cfg.Weather.APIKey,
		Timeout: cfg.Weather.Timeout,
	})
	if cfg.Weather.APIKey == "" {
		logger.Warn("Weather API key not set, forecasts will be empty")
	}
	if a.Redis != nil && cfg.Weather.CacheTTL > 0 {
		provider = weather.NewCachedProvider(provider, a.Redis, cfg.Weather.CacheTTL)
	}
	a.Weather = provider

	if cfg.Auth.JWTSecret != "" {
		a.Tokens = security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, a.Clock)
	} else {
		logger.Warn("JWT secret not set, trusting the user id header")
	}

	s := a.Store
	a.Notifications = service.NewNotificationService(s.OutboxRepository, a.Clock)
	a.Tours = service.NewTourService(s.TourRepository, s.BookingRepository, s.UserRepository, a.Notifications, a.Events, a.Clock)
	a.Bookings = service.NewBookingService(s.BookingRepository, s.TourRepository, s.AddOnRepository, s.UserRepository, a.Notifications, a.Events, a.Clock)
	a.AddOns = service.NewAddOnService(s.AddOnRepository, s.TourRepository)
	a.Reviews = service.NewReviewService(s.ReviewRepository, s.BookingRepository, s.TourRepository, a.Clock)
	a.Completion = service.NewCompletionService(s.TourRepository, s.BookingRepository, s.UserRepository, a.Notifications)

	return a, nil
}

// JobRunner builds the sweep runner over the app's stores and adapters.
func (a *App) JobRunner() *jobs.JobRunner {
	s := a.Store
	return jobs.NewJobRunner(
		jobs.Repositories{
			Users:     s.UserRepository,
			Tours:     s.TourRepository,
			Bookings:  s.BookingRepository,
			Snapshots: s.WeatherSnapshotRepository,
			Outbox:    s.OutboxRepository,
			EmailLogs: s.EmailLogRepository,
		},
		&jobs.Services{
			Notifications: a.Notifications,
			Completion:    a.Completion,
		},
		jobs.Integrations{
			Weather:  a.Weather,
			Mail:     a.Mail,
			Renderer: a.Renderer,
			Events:   a.Events,
		},
		a.Locker,
		a.Clock,
		a.Config,
	)
}

// Close releases every backend that was opened.
func (a *App) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			logger.Warn("Failed to close event publisher", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("Failed to close Redis client", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}

// ServeMetrics exposes /metrics on its own listener in the background.
func ServeMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Metrics server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", "error", err)
		}
	}()
	return srv
}
