package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/ascend-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/ascend-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/ascend-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/ascend-engine/internal/config"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
	"github.com/comitanigiacomo/ascend-engine/internal/core/services"
	"github.com/comitanigiacomo/ascend-engine/internal/core/workers"
)

// @title                      Ascend Engine API
// @version                    1.0
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	startTime := time.Now()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Critical: invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Critical: Failed to apply schema: %v", err)
	}

	log.Println("Database connected successfully.")

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = cache.NewRedisClient(ctx, cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[CACHE] Redis unavailable, running without it: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
			log.Println("Redis connected successfully.")
		}
	}

	router, worker := newServer(cfg, db, rdb, startTime)
	worker.Start(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Ascend Engine running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown error: %v", err)
		os.Exit(1)
	}

	log.Println("Server stopped gracefully.")
}

// newServer wires repositories, services and handlers. rdb may be nil, in
// which case caching falls back to process memory and rate limiting is off.
func newServer(cfg config.Config, db *sqlx.DB, rdb *redis.Client, startTime time.Time) (*gin.Engine, *workers.SnapshotWorker) {
	var sessionRepo domain.SessionRepository = repository.NewPostgresSessionRepository(db)
	var snapshots domain.SnapshotStore = cache.NewMemorySnapshotStore()

	if rdb != nil {
		sessionRepo = repository.NewCachedSessionRepository(sessionRepo, rdb, cfg.SnapshotTTL)
		snapshots = cache.NewRedisSnapshotStore(rdb, cfg.SnapshotTTL)
	}

	worker := workers.NewSnapshotWorker(sessionRepo, snapshots, cfg.SnapshotQueueSize)

	sessionService := services.NewSessionService(sessionRepo, snapshots, worker)
	analyticsService := services.NewAnalyticsService(sessionRepo, snapshots)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		SessionHandler:   adapterHTTP.NewSessionHandler(sessionService),
		AnalyticsHandler: adapterHTTP.NewAnalyticsHandler(analyticsService),
		Tokens:           tokenService,
		DB:               db,
		Redis:            rdb,
		RateLimit:        cfg.RateLimit,
		RateWindow:       cfg.RateWindow,
		StartTime:        startTime,
	})

	return router, worker
}
