package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"orderledger/internal/config"
	"orderledger/internal/db"
	"orderledger/internal/importer"
	"orderledger/internal/logging"
	customerrepo "orderledger/internal/repository/customer"
	customersvc "orderledger/internal/service/customer"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to customer CSV (name, phone, email, address, visiting card)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.Named("importer")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.String("file", filePath), zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, customersvc.New(customerrepo.NewPostgres(pool, logger)))

	start := time.Now()
	sum, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("customers_imported", sum.Customers), zap.Error(err))
	}

	fmt.Printf("Imported %d customers with %d visiting cards in %s\n", sum.Customers, sum.VisitingCards, time.Since(start).Truncate(time.Millisecond))
}
