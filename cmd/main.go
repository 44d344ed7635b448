package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chatterbox/backend/internal/api/handler"
	"chatterbox/backend/internal/audit"
	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/observability"
	"chatterbox/backend/internal/realtime"
	"chatterbox/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const shutdownTimeout = 10 * time.Second

func setupRedis(ctx context.Context, cfg config.Config) *redis.Client {
	rdb, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	switch {
	case err != nil && cfg.RealtimeBackend == "redis":
		log.Fatalf("Failed to connect Redis: %v", err)
	case rdb == nil && cfg.RealtimeBackend == "redis":
		log.Fatal("REDIS_ADDR is required for the redis realtime backend")
	case err != nil:
		log.Printf("Warning: Redis unavailable, storage cache disabled: %v", err)
	}
	return rdb
}

func setupBroker(cfg config.Config, rdb *redis.Client) (realtime.Broker, func()) {
	switch cfg.RealtimeBackend {
	case "redis":
		return realtime.NewRedisBroker(rdb), func() {}
	case "nats":
		nb, err := realtime.NewNatsBroker(cfg.NatsURL)
		if err != nil {
			log.Fatalf("Failed to connect NATS: %v", err)
		}
		return nb, nb.Close
	case "memory":
		log.Println("Warning: in-process realtime broker, sessions on other instances will not see each other")
		return realtime.NewMemoryBroker(), func() {}
	default:
		log.Fatalf("Unknown REALTIME_BACKEND %q", cfg.RealtimeBackend)
		return nil, nil
	}
}

func main() {
	log.Println("Starting ChatterBox Backend...")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	// 1. Dependencies
	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	rdb := setupRedis(ctx, cfg)
	store := storage.NewStorageService(db, rdb)

	broker, closeBroker := setupBroker(cfg, rdb)
	log.Printf("Realtime backend %s on topic %s", cfg.RealtimeBackend, cfg.Topic)

	publisher := audit.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	log.Printf("Audit publisher mode: %s", audit.Mode(publisher))

	// 2. Chat hub
	hub := chathub.NewManagerService(store, func() chathub.Channel {
		return realtime.NewChannel(broker, cfg.Topic)
	})
	hub.SetAuditor(audit.NewEmitter(publisher, cfg.ServiceName, cfg.Environment))

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	// 3. HTTP
	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(observability.HTTPMetricsMiddleware())

	h := handler.NewHandler(hub, store, cfg.JWTSecret)
	h.Register(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	// closing the hub untracks every session before the broker goes away
	stopHub()
	<-hubDone
	closeBroker()

	if err := publisher.Close(); err != nil {
		log.Printf("Audit publisher close error: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
	log.Println("Stopped.")
}
