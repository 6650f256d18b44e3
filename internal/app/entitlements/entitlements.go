package entitlements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/config"
	"github.com/magabrotheeeer/entitlements/internal/entitlement"
	"github.com/magabrotheeeer/entitlements/internal/lib/jwt"
	"github.com/magabrotheeeer/entitlements/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/migrations"
	contentservice "github.com/magabrotheeeer/entitlements/internal/services/content"
	guardservice "github.com/magabrotheeeer/entitlements/internal/services/guard"
	ledgerservice "github.com/magabrotheeeer/entitlements/internal/services/ledger"
	profileservice "github.com/magabrotheeeer/entitlements/internal/services/profiles"
	subservice "github.com/magabrotheeeer/entitlements/internal/services/subscription"
	userservice "github.com/magabrotheeeer/entitlements/internal/services/users"
	"github.com/magabrotheeeer/entitlements/internal/storage/repository"
)

// App — HTTP-приложение движка доступа.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New поднимает хранилище, кеш и брокер и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var events subservice.Publisher = rabbitmq.Discard{}
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
	} else {
		logger.Warn("rabbitmq url is empty, domain events are discarded")
	}

	profiles := profileservice.NewLoader(db, cacheRedis, cfg.ProfileTTL, logger)
	services := Services{
		Tokens:        jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		DB:            db.DB,
		Profiles:      profiles,
		Users:         userservice.NewUserService(db, profiles, logger),
		Subscriptions: subservice.NewSubscriptionService(db, profiles, events, logger),
		Content:       contentservice.NewService(db, profiles, entitlement.NewGate(cfg.PremiumCategories...), logger),
		Ledger:        ledgerservice.NewService(db, profiles, events, logger),
		Guard:         guardservice.NewGuard(profiles, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.RateLimit, services)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
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

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}
