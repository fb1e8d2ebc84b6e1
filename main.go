package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/restomarket/restomarket/gateway"
	"github.com/restomarket/restomarket/store"
	"github.com/restomarket/restomarket/supplier"
)

var logrusLogger = logrus.New()

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrusLogger.Fatalf("error loading config: %v", err)
	}
	configureLogger(cfg)

	db, err := store.Open(cfg.DatabaseURL, cfg.DatabasePath, cfg.DatabaseDriver)
	if err != nil {
		logrusLogger.Fatalf("error in connecting to db: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := store.Migrate(migrateCtx, db); err != nil {
		logrusLogger.Fatalf("error in migrations: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	auth := &gateway.JWTAuth{Key: []byte(cfg.JWTKey)}
	svc := &supplier.Service{
		Store:  store.New(db),
		Config: cfg,
		Logger: logrusLogger,
		Auth:   auth,
		Redis:  redisClient,
	}

	engine := GetMainEngine(cfg, svc)
	logrusLogger.Printf("listening on %s", cfg.Port)
	if err := engine.Run(cfg.Port); err != nil {
		logrusLogger.Fatalf("server stopped: %v", err)
	}
}
