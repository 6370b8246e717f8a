package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chris/skymiles/pkg/api"
	"github.com/chris/skymiles/pkg/booking"
	"github.com/chris/skymiles/pkg/cache"
	"github.com/chris/skymiles/pkg/config"
	"github.com/chris/skymiles/pkg/events"
	"github.com/chris/skymiles/pkg/handlers"
	"github.com/chris/skymiles/pkg/identity"
	"github.com/chris/skymiles/pkg/loyalty"
	"github.com/chris/skymiles/pkg/middleware"
	"github.com/chris/skymiles/pkg/search"
	"github.com/chris/skymiles/pkg/settlement"
	"github.com/chris/skymiles/pkg/storage"
	dydbstore "github.com/chris/skymiles/pkg/storage/dynamodb"
	"github.com/chris/skymiles/pkg/storage/memory"
	"github.com/chris/skymiles/pkg/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// AWS Session. Every client shares the standard retryer.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = cfg.AWS.MaxAttempts
			o.MaxBackoff = cfg.AWS.MaxBackoff
		})
	}))
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	store, closeStore, err := newStore(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	searchCache, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, closePublisher := newPublisher(ctx, cfg, awsCfg, logger)
	defer closePublisher()

	provider := newIdentityProvider(cfg, awsCfg, logger)

	bookingSvc := booking.NewService(store, publisher, booking.WithLogger(logger))
	searchSvc := search.NewService(store, searchCache, cfg.Cache.TTL, logger)
	loyaltySvc := loyalty.NewService(store, provider, publisher, loyalty.WithLogger(logger))

	if cfg.Settlement.Enabled {
		settler := settlement.NewSettler(store, publisher,
			settlement.WithLogger(logger),
			settlement.WithGraceWindow(cfg.Settlement.GraceWindow),
		)
		scheduler := settlement.NewScheduler(settler, logger)
		scheduler.Interval = cfg.Settlement.Interval
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	handler := handlers.NewApiHandler(bookingSvc, searchSvc, loyaltySvc, logger)
	api.HandlerFromMux(handler, router)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "storage", cfg.Storage.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (storage.Storage, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.New(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case config.BackendMemory:
		return memory.New(), func() {}, nil
	default:
		client := dynamodb.NewFromConfig(awsCfg)
		store := dydbstore.New(client, cfg.Storage.FlightsTableName, cfg.Storage.AccountsTableName, cfg.Storage.PurchasesTableName)
		return store, func() {}, nil
	}
}

func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Cache, func(), error) {
	if cfg.Cache.Addr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory search cache")
		return cache.NewInMemoryCache(), func() {}, nil
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	if errors.Is(err, cache.ErrUnreachable) {
		logger.Warn("redis unreachable, searches read the store until it recovers", "error", err)
	} else if err != nil {
		return nil, nil, err
	}
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

// newPublisher connects to SQS when events are enabled. A failed first connect
// is not fatal: the publisher keeps reconnecting with backoff on later publishes.
func newPublisher(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (events.Publisher, func()) {
	if !cfg.Events.Enabled {
		return &events.LogPublisher{Logger: logger}, func() {}
	}

	queues := map[events.EventType]string{
		events.PurchaseCompleted: cfg.Events.PurchaseQueue,
		events.MilesCredited:     cfg.Events.MilesQueue,
		events.AccountRegistered: cfg.Events.AccountQueue,
	}
	publisher := events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), queues, events.WithLogger(logger))
	if err := publisher.Connect(ctx); err != nil {
		logger.Warn("event publisher not ready, will retry", "error", err)
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}
}

func newIdentityProvider(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) identity.Provider {
	if cfg.Identity.CognitoClientID == "" {
		logger.Warn("COGNITO_CLIENT_ID not set, using in-memory identity provider")
		return identity.NewMemoryProvider()
	}
	logger.Info("using cognito identity provider", "user_pool_id", cfg.Identity.CognitoUserPoolID)
	return identity.NewCognitoProvider(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.Identity.CognitoClientID)
}
