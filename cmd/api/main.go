package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloodlink-api-server/config"
	"bloodlink-api-server/internal/api/routes"
	"bloodlink-api-server/internal/cache"
	"bloodlink-api-server/internal/database"
	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/jobs"
	"bloodlink-api-server/internal/notify"
	"bloodlink-api-server/internal/s3"
	"bloodlink-api-server/internal/socket"
	"bloodlink-api-server/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatal("could not load config", zap.Error(err))
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// MongoDB
	client, db, err := database.Connect(cfg.Mongo)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatal("failed to ensure indexes", zap.Error(err))
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		if err := database.SeedAdmin(ctx, db, adminEmail, adminPassword, log); err != nil {
			cancel()
			log.Fatal("failed to seed admin", zap.Error(err))
		}
	}
	cancel()

	// Redis feed cache. Optional: without an address the feed is served
	// straight from MongoDB.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unavailable, feed cache disabled", zap.Error(err))
			rdb = nil
		}
	}
	feed := cache.NewFeedCache(rdb, log)

	// S3 uploader for request attachments. Optional as well.
	var uploader *s3.Uploader
	if cfg.S3.Bucket != "" {
		uploader, err = s3.NewUploader(cfg.S3)
		if err != nil {
			log.Fatal("failed to initialize S3 uploader", zap.Error(err))
		}
	}

	stores := store.NewStores(db)

	hub := socket.NewHub(log)
	dispatcher := notify.NewDispatcher(stores.Notifications, hub, log)
	dispatcher.Start()
	defer dispatcher.Stop()

	eng := engine.New(stores.Requests, stores.Inventory, stores.Users, stores.Collections, dispatcher, log)

	sweepInterval, err := time.ParseDuration(cfg.Jobs.ExpirySweepInterval)
	if err != nil {
		sweepInterval = time.Hour
	}
	scheduler, err := jobs.NewScheduler(eng, feed, sweepInterval, log)
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := routes.SetupRouter(cfg, eng, stores, feed, uploader, hub, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("starting API server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
