package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/medisync/medisync/internal/api"
	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/config"
	"github.com/medisync/medisync/internal/db"
	"github.com/medisync/medisync/internal/event"
	"github.com/medisync/medisync/internal/notification"
	"github.com/medisync/medisync/internal/push"
	redisclient "github.com/medisync/medisync/internal/redis"
)

// The notifier is the delivery side of the pipeline: it consumes appointment
// events into stored notifications, serves the notification API and pushes
// realtime copies over WebSocket.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()
	cache := redisclient.NewCache(rdb)

	repo := notification.NewPgRepository(pool)
	fanout := notification.NewFanout(repo, cache, notification.NewRedisBroadcaster(rdb))

	consumer := event.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, fanout)
	defer consumer.Close()

	consumerDone := make(chan error, 1)
	go func() {
		log.Printf("consuming %s as group %s", event.Topic, cfg.KafkaGroupID)
		consumerDone <- consumer.Run(ctx)
	}()

	verifier := auth.NewVerifier(cfg.JWTSecret)
	gateway := push.NewGateway(push.NewHub(), verifier)
	go func() {
		if err := gateway.Run(ctx, rdb); err != nil {
			log.Fatalf("broadcast subscription: %v", err)
		}
	}()

	router := api.NewNotifierRouter(
		api.NewNotificationHandler(notification.NewService(repo, cache, cfg.NotificationCacheTTL)),
		gateway,
		api.NewHealthHandler(pool, rdb, cfg.KafkaBrokers),
		verifier,
	)

	server := &http.Server{
		Addr:              ":" + cfg.NotifierPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("notifier listening on %s env=%s", server.Addr, cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down notifier")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	if err := <-consumerDone; err != nil {
		log.Printf("consumer stopped: %v", err)
	}
	log.Println("notifier stopped")
}
