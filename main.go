package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/menprac-cloud/menPrac-backend/ai"
	"github.com/menprac-cloud/menPrac-backend/api"
	"github.com/menprac-cloud/menPrac-backend/auth"
	"github.com/menprac-cloud/menPrac-backend/broker"
	"github.com/menprac-cloud/menPrac-backend/config"
	"github.com/menprac-cloud/menPrac-backend/metrics"
	"github.com/menprac-cloud/menPrac-backend/presence"
	"github.com/menprac-cloud/menPrac-backend/realtime"
	"github.com/menprac-cloud/menPrac-backend/services"
	"github.com/menprac-cloud/menPrac-backend/store"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	if err := config.Initialize(env); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.Get()

	serverID := uuid.New().String()
	log.Printf("Starting server instance %s (env=%s)", serverID, env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := services.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer services.CloseRedisClient(redisClient)

	pool, err := services.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	dataStore := store.New(pool)
	if cfg.Database.BootstrapSchema {
		if err := dataStore.Bootstrap(ctx); err != nil {
			log.Fatalf("Schema bootstrap failed: %v", err)
		}
	}

	presenceStore := presence.NewRedisStore(redisClient, time.Duration(cfg.WebSocket.PresenceTTL)*time.Second)
	registry := realtime.NewRegistry(presenceStore, serverID)

	var eventBroker broker.MessageBroker
	switch cfg.Broker.Type {
	case "redis":
		eventBroker = broker.NewRedisBroker(redisClient)
	case "kafka":
		eventBroker, err = broker.NewKafkaBroker(cfg.Broker.Kafka.Brokers, cfg.Broker.Kafka.GroupID)
		if err != nil {
			log.Fatalf("Failed to connect to Kafka: %v", err)
		}
	default:
		// Single-instance deployment, no cross-instance mirroring.
	}
	if eventBroker != nil {
		defer eventBroker.Close()
	}

	dispatcher := realtime.NewDispatcher(registry, eventBroker, cfg.Broker.Topic, serverID)
	if eventBroker != nil {
		go dispatcher.ListenForRemoteEvents(ctx)
	}

	tokens := auth.NewTokenManager(&cfg.Auth, redisClient)
	noteClient := ai.NewClient(&cfg.AI)

	wsHandler := realtime.NewHandler(registry, dispatcher, tokens, cfg)

	app := api.New(dataStore, tokens, dispatcher, noteClient, cfg)
	limiter := api.NewRateLimiterFromConfig(&cfg.RateLimit, redisClient)
	server := api.NewServer(&cfg.Server, app.Router(wsHandler, limiter))

	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	go server.Start()
	log.Printf("Server listening on port %d", cfg.Server.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received, draining connections...")
	cancel()
	registry.CloseAll("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
