package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"orderledger/internal/auth"
	"orderledger/internal/config"
	"orderledger/internal/db"
	"orderledger/internal/httpserver"
	"orderledger/internal/logging"
	customerrepo "orderledger/internal/repository/customer"
	orderrepo "orderledger/internal/repository/order"
	sessionrepo "orderledger/internal/repository/session"
	customersvc "orderledger/internal/service/customer"
	ordersvc "orderledger/internal/service/order"
	searchsvc "orderledger/internal/service/search"
	"orderledger/internal/storage"
)

func main() {
	// A missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger))
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), cfg.Location)

	deps := httpserver.Deps{
		CustomerSvc: customerService,
		OrderSvc:    orderService,
		SearchSvc:   searchsvc.New(customerService, orderService),
		Auth:        buildAuth(ctx, cfg, sessionrepo.NewPostgres(dbpool), logger),
		RequireAuth: cfg.Auth.RequireAPI,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Location:    cfg.Location,
	}
	if store := buildStorage(ctx, cfg, logger); store != nil {
		deps.Uploads = store
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr), zap.String("timezone", cfg.Location.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// buildAuth chains database sessions (optionally cached in redis) with
// bearer tokens when a JWT secret is configured.
func buildAuth(ctx context.Context, cfg config.Config, sessions auth.SessionLookup, logger *zap.Logger) auth.Provider {
	var cache auth.IdentityCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, session cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rdb.Close()
		} else {
			cache = auth.NewRedisCache(rdb)
		}
	}

	chain := auth.Chain{auth.NewSessionProvider(sessions, cache, cfg.Auth.SessionCacheTTL)}
	if cfg.Auth.JWTSecret != "" {
		chain = append(chain, auth.NewJWTProvider(cfg.Auth.JWTSecret))
	}
	return chain
}

func buildStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) *storage.Store {
	store, err := storage.NewMinIO(cfg.MinIO, cfg.FileURLHost)
	if errors.Is(err, storage.ErrStorageDisabled) {
		logger.Info("object storage not configured, uploads disabled")
		return nil
	}
	if err != nil {
		logger.Warn("object storage unavailable, uploads disabled", zap.Error(err))
		return nil
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.EnsureBucket(bucketCtx); err != nil {
		logger.Warn("object storage unavailable, uploads disabled", zap.Error(err))
		return nil
	}
	return store
}
