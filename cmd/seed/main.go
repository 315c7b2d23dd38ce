package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"orderledger/internal/auth"
	"orderledger/internal/config"
	"orderledger/internal/db"
	"orderledger/internal/logging"
	"orderledger/internal/migrate"
	"orderledger/internal/seed"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.ApplyLogged(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	res, err := seed.Apply(ctx, pool, logger, cfg.Location, time.Now())
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
	logger.Info("seed applied",
		zap.Int("customers", res.Customers),
		zap.Int("orders", res.Orders),
		zap.Bool("skipped_demo_data", res.Skipped),
		zap.String("session_cookie", auth.SessionCookie+"="+seed.DemoSessionToken),
	)
}
