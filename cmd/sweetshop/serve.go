package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/sweetshop/inventory-api/internal/api"
	"github.com/sweetshop/inventory-api/internal/api/handler"
	"github.com/sweetshop/inventory-api/internal/core/ports"
	"github.com/sweetshop/inventory-api/internal/core/service"
	"github.com/sweetshop/inventory-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/inventory-api/internal/infrastructure/messaging/rabbitmq"
	"github.com/sweetshop/inventory-api/internal/infrastructure/queue"
	"github.com/sweetshop/inventory-api/internal/infrastructure/token"
)

const (
	shutdownTimeout = 5 * time.Second
	// devJWTSecret is only used when ENV=development and JWT_SECRET is unset.
	devJWTSecret = "sweetshop-development-secret"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	// --- Stores ---
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()
	if err := st.migrate(ctx); err != nil {
		return err
	}
	checks := map[string]handler.Check{"store": st.ping}

	// --- Stock events ---
	var publisher ports.StockEventPublisher = queue.LogPublisher{Log: log}
	if cfg.AMQP.URL != "" {
		conn, ch, err := rabbitmq.Connect(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()
		publisher = rabbitmq.NewPublisher(ch, cfg.AMQP.Exchange)
		checks["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	dispatcher := queue.NewDispatcher(cfg.Stock.EventWorkers, publisher, log)
	// Workers outlive the signal so Close can drain queued events.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	itemOpts := []service.ItemOption{service.WithStockEvents(dispatcher, cfg.Stock.LowStockThreshold)}

	// --- Optional Redis cache and replay guard ---
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		itemOpts = append(itemOpts,
			service.WithCatalogCache(redis.NewCatalogCache(rdb, cfg.Redis.CacheTTL)),
			service.WithReplayGuard(redis.NewReplayGuard(rdb)),
		)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// --- Services ---
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	tokens := token.NewJWTIssuer(secret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(st.users, tokens, log, service.WithBcryptCost(cfg.Auth.BcryptCost))
	itemService := service.NewItemService(st.items, log, itemOpts...)

	e := api.NewRouter(api.Deps{
		Auth:          authService,
		Items:         itemService,
		Tokens:        tokens,
		Logger:        log,
		Checks:        checks,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		AuthRateLimit: rate.Limit(cfg.HTTP.AuthRateLimit),
		AuthRateBurst: cfg.HTTP.AuthRateBurst,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
