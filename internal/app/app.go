// Package app wires configuration, storage, domain services and the HTTP
// server of the Fzokart API.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/domain/address"
	"github.com/xenking/fzokart/internal/domain/auth"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/order"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/review"
	"github.com/xenking/fzokart/internal/domain/user"
	"github.com/xenking/fzokart/internal/events"
	"github.com/xenking/fzokart/internal/handler"
	"github.com/xenking/fzokart/internal/storage/postgres"
	"github.com/xenking/fzokart/internal/storage/redis"
	"github.com/xenking/fzokart/pkg/health"
	"github.com/xenking/fzokart/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New(health.WithLogger(lg.Named("health")))
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second), health.WithThresholds(5, 1))

	// Repositories.
	var products product.Repository = postgres.NewProductRepository(pool)
	users := postgres.NewUserRepository(pool)

	// Optional Redis: product cache and shared rate limiter.
	var limiter httpmiddleware.Limiter
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, redis.Config{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				lg.Warn("Redis close error", zap.Error(err))
			}
		}()

		products = redis.NewProductCache(products, redis.NewStore(rdb), cfg.Redis.TTL)
		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(redisPinger(rdb)))
		if cfg.RateLimit.Backend == "redis" {
			limiter = redis.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)
		}
		lg.Info("Redis enabled", zap.Duration("cache_ttl", cfg.Redis.TTL), zap.String("rate_limit", cfg.RateLimit.Backend))
	}

	// Optional Kafka: order events.
	var publisher order.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewPublisher(events.NewKafkaWriter(events.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, lg.Named("kafka")), cfg.Kafka.WriteTimeout)
		defer func() {
			if err := pub.Close(); err != nil {
				lg.Warn("Kafka close error", zap.Error(err))
			}
		}()
		publisher = pub
		lg.Info("Order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// Domain services.
	tokens := auth.NewTokens(auth.TokenConfig{
		Secret:        []byte(cfg.JWT.Secret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		TTL:           cfg.JWT.TTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	addresses := postgres.NewAddressRepository(pool)
	cartService := cart.NewService(postgres.NewCartRepository(pool), products)

	h := handler.NewHandler(handler.Services{
		Users:     user.NewService(users, tokens, cfg.BcryptCost),
		Products:  product.NewService(products),
		Carts:     cartService,
		Addresses: address.NewService(addresses),
		Orders:    order.NewService(postgres.NewOrderRepository(pool), cartService, addresses, users, publisher),
		Reviews:   review.NewService(postgres.NewReviewRepository(pool), products),
		Tokens:    tokens,
		Accounts:  users,
	})

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Router: health endpoints + API routes on one server.
	mux := h.Routes()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		// RequestID and InjectLogger come first so Recovery and every later
		// middleware log with the request-scoped logger.
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.SecureHeaders(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				ExposeHeaders:    []string{"X-Request-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				Limiter: limiter,
			}),
			httpmiddleware.Instrument("fzokart-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func redisPinger(c goredis.UniversalClient) health.PingFunc {
	return func(ctx context.Context) error {
		return c.Ping(ctx).Err()
	}
}
