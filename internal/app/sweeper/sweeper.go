// Package sweeper содержит процесс периодической очистки истёкших подписок.
//
// Расписание задаётся cron-выражением. Несколько экземпляров процесса могут
// работать одновременно: очистку выполняет тот, кто взял аренду в Redis.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/magabrotheeeer/entitlements/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	profileservice "github.com/magabrotheeeer/entitlements/internal/services/profiles"
	sweepservice "github.com/magabrotheeeer/entitlements/internal/services/sweep"
	"github.com/magabrotheeeer/entitlements/internal/storage/repository"
)

// App представляет приложение очистки.
type App struct {
	sweeper    *sweepservice.Sweeper
	cron       *cron.Cron
	schedule   string
	runOnStart bool
	metrics    *http.Server
	db         *repository.Storage
	cache      *cache.Cache
	conn       *amqp.Connection
	ch         *amqp.Channel
	logger     *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения очистки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.Schedule, err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	app := &App{
		cron:       cron.New(),
		schedule:   cfg.Schedule,
		runOnStart: cfg.RunOnStart,
		db:         db,
		cache:      cacheRedis,
		logger:     logger,
	}

	var events sweepservice.Publisher = rabbitmq.Discard{}
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetEventQueues())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		events = rabbitmq.NewPublisher(app.ch)
	}

	profiles := profileservice.NewLoader(db, cacheRedis, cfg.ProfileTTL, logger)
	app.sweeper = sweepservice.NewSweeper(db, cacheRedis, cfg.LeaseTTL, cfg.BatchSize, profiles, events, logger)

	if cfg.MetricsAddress != "" {
		router := chi.NewRouter()
		router.Handle("/metrics", promhttp.Handler())
		app.metrics = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return app, nil
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

func (a *App) sweep(ctx context.Context) {
	if _, err := a.sweeper.Sweep(ctx, time.Now().UTC()); err != nil {
		a.logger.Error("scheduled sweep failed", sl.Err(err))
	}
}

// Run запускает расписание и работает до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.cron.AddFunc(a.schedule, func() { a.sweep(ctx) }); err != nil {
		a.closeResources()
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	if a.metrics != nil {
		go func() {
			a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", sl.Err(err))
			}
		}()
	}

	if a.runOnStart {
		a.sweep(ctx)
	}
	a.cron.Start()
	a.logger.Info("sweeper started", slog.String("schedule", a.schedule))

	<-ctx.Done()

	a.logger.Info("shutting down sweeper")
	// Stop не прерывает текущий запуск, дожидаемся его завершения.
	<-a.cron.Stop().Done()

	if a.metrics != nil {
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(timeoutCtx); err != nil {
			a.logger.Error("failed to stop metrics server", sl.Err(err))
		}
	}
	a.closeResources()
	return nil
}
