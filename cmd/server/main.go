package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickorder/internal/auth"
	"quickorder/internal/cart"
	"quickorder/internal/catalog"
	"quickorder/internal/checkout"
	"quickorder/internal/config"
	"quickorder/internal/docstore"
	"quickorder/internal/infrastructure/logger"
	mongoinfra "quickorder/internal/infrastructure/mongo"
	"quickorder/internal/infrastructure/mysql"
	redisinfra "quickorder/internal/infrastructure/redis"
	"quickorder/internal/metrics"
	"quickorder/internal/order"
	"quickorder/internal/server"
	"quickorder/internal/session"
	"quickorder/internal/storage"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()
	var checks []server.HealthCheck

	var store storage.Store
	switch cfg.Store.Driver {
	case config.DriverRedis:
		rdb, err := redisinfra.NewClient(ctx, cfg.Store)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer rdb.Close()
		store = storage.NewRedisStore(rdb, cfg.Store.RedisPrefix)
		checks = append(checks, server.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		zapLogger.Info("redis connected", zap.String("addr", cfg.Store.RedisAddr))
	default:
		store = storage.NewMemoryStore()
		zapLogger.Warn("using in-memory key-value store; state is lost on restart")
	}

	var docs docstore.Store
	switch cfg.DocStore.Driver {
	case config.DriverMySQL:
		db, err := mysql.NewConnection(cfg.Database)
		if err != nil {
			zapLogger.Fatal("connecting to database", zap.Error(err))
		}
		defer db.Close()
		if err := mysql.EnsureSchema(ctx, db); err != nil {
			zapLogger.Fatal("preparing document schema", zap.Error(err))
		}
		docs = docstore.NewMySQLStore(db)
		checks = append(checks, sqlCheck(db))
		zapLogger.Info("database connected")
	case config.DriverMongo:
		client, err := mongoinfra.NewConnection(ctx, cfg.Mongo)
		if err != nil {
			zapLogger.Fatal("connecting to mongo", zap.Error(err))
		}
		defer client.Disconnect(context.Background())
		docs = docstore.NewMongoStore(client.Database(cfg.Mongo.Database))
		checks = append(checks, mongoCheck(client))
		zapLogger.Info("mongo connected", zap.String("database", cfg.Mongo.Database))
	default:
		docs = docstore.NewMemoryStore()
		zapLogger.Warn("using in-memory document store; the catalog will serve the built-in menu")
	}

	m := metrics.New()

	provider, authCtrl := auth.NewModule(store, cfg.Auth, m, zapLogger)
	sessionMW, sessionCtrl := session.NewModule(store, provider, zapLogger)
	orderModule := order.NewModule(store, m, zapLogger)
	cartSvc, cartCtrl := cart.NewModule(store, orderModule.Repository, cfg.Cart, m, zapLogger)
	checkoutCtrl := checkout.NewModule(cartSvc, orderModule.Repository, docs, store, cfg.Payment, m, zapLogger)
	catalogCtrl := catalog.NewModule(docs, m, zapLogger)

	router := server.NewRouter(server.Deps{
		Session:      sessionMW,
		SessionCtrl:  sessionCtrl,
		Auth:         authCtrl,
		Catalog:      catalogCtrl,
		Cart:         cartCtrl,
		Checkout:     checkoutCtrl,
		Orders:       orderModule,
		Metrics:      m,
		HealthChecks: checks,
	}, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func sqlCheck(db *sql.DB) server.HealthCheck {
	return server.HealthCheck{Name: "mysql", Check: db.PingContext}
}

func mongoCheck(client *mongo.Client) server.HealthCheck {
	return server.HealthCheck{
		Name:  "mongo",
		Check: func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}
}
