package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"livelink-telematics-backend/config"
	"livelink-telematics-backend/internal/api"
	"livelink-telematics-backend/internal/db"
	"livelink-telematics-backend/internal/notification"
	"livelink-telematics-backend/internal/poller"
	"livelink-telematics-backend/internal/store"
	"livelink-telematics-backend/internal/tags"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "livelinkd ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	// Tag sink: in-memory store, optionally mirrored to MQTT
	tagStore := tags.NewStore()
	var sink tags.Sink = tagStore
	if cfg.Sink.MQTT.Enabled {
		mqttSink, err := tags.NewMQTTSink(&cfg.Sink.MQTT)
		if err != nil {
			logger.Fatalf("failed to connect MQTT sink: %v", err)
		}
		sink = tags.NewFanout(tagStore, mqttSink)
		logger.Printf("MQTT sink enabled, mirroring tags to %s:%d", cfg.Sink.MQTT.Broker, cfg.Sink.MQTT.Port)
	}

	// Alert notifications need VAPID keys; without them the pool stays off.
	var webpushOptions *webpush.Options
	var workerPool *notification.WorkerPool
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
	} else {
		logger.Println("VAPID keys not configured; alert notifications are disabled")
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and run the poller in the background
	pollSvc := poller.NewService(cfg, appStore, sink, workerPool)
	go pollSvc.Run(ctx)

	// Initialize router
	router := api.NewRouter(appStore, tagStore, pollSvc, webpushOptions, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
