package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"student-records/internal/config"
	"student-records/internal/db"
	"student-records/internal/db/migrations"
	"student-records/internal/events"
	"student-records/internal/health"
	"student-records/internal/kafka"
	"student-records/internal/messaging"
	"student-records/internal/metrics"
	"student-records/internal/middleware"
	"student-records/internal/student"
	"student-records/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	publisher events.Publisher
	telemetry *telemetry.Telemetry
}

// New connects the store, applies migrations and wires every handler.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing application", "env", cfg.Env, "version", Version)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, cfg.Env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Up(ctx, database); err != nil {
		db.Close(database)
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	meter := otel.Meter(ServiceName)
	if err := tel.Metrics.Database.RegisterDB(database.DB, meter); err != nil {
		logger.Warn("failed to register database pool metrics", "error", err)
	}
	if err := tel.Metrics.Health.RegisterDependencies(meter, "database"); err != nil {
		logger.Warn("failed to register dependency metrics", "error", err)
	}

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    logger,
		db:        database,
		publisher: newPublisher(cfg.Events, tel.Metrics.Messaging, logger),
		telemetry: tel,
	}
	app.routes(tel.Metrics)

	logger.Info("application initialized successfully")
	return app, nil
}

func (a *App) routes(m *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	a.router.Use(chimw.RequestID)
	a.router.Use(chimw.RealIP)
	a.router.Use(middleware.Logger(a.logger))
	a.router.Use(chimw.Recoverer)
	a.router.Use(httpMetrics.Handler)
	a.router.Use(middleware.CORS(a.config.Server.CORSOrigins))

	health.NewHandler(a.db, m.Health, a.logger).RegisterRoutes(a.router)
	a.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	repo := student.NewRepository(a.db, m)
	service := student.NewService(repo, student.NewValidator(), a.publisher, a.logger, m)
	student.NewHandler(service, a.logger).RegisterRoutes(a.router)
}

// newPublisher falls back to dropping events when the broker is unreachable.
func newPublisher(cfg config.EventsConfig, m *metrics.MessagingMetrics, logger *slog.Logger) events.Publisher {
	switch cfg.Driver {
	case "nats":
		producer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, logger, m)
		if err != nil {
			logger.Warn("failed to initialize NATS producer, events disabled", "error", err)
			return events.NoopPublisher{}
		}
		return producer
	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger, m)
		if err != nil {
			logger.Warn("failed to initialize kafka producer, events disabled", "error", err)
			return events.NoopPublisher{}
		}
		return producer
	default:
		return events.NoopPublisher{}
	}
}

// Handler is the full HTTP stack including tracing.
func (a *App) Handler() http.Handler {
	return otelhttp.NewHandler(a.router, ServiceName)
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.Handler(),
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, then releases the broker, the store and telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event publisher: %w", err))
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
