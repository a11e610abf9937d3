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
	"github.com/medisync/medisync/internal/appointment"
	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/config"
	"github.com/medisync/medisync/internal/db"
	"github.com/medisync/medisync/internal/directory"
	"github.com/medisync/medisync/internal/event"
	redisclient "github.com/medisync/medisync/internal/redis"
)

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

	producer := event.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryTimeout, cache, cfg.DirectoryCacheTTL)

	repo := appointment.NewPgRepository(pool)
	svc := appointment.NewService(repo, dir, cache, producer, cfg.AppointmentCacheTTL, cfg.AdminCacheTTL)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	router := api.NewRouter(
		api.NewAppointmentHandler(svc),
		api.NewHealthHandler(pool, rdb, cfg.KafkaBrokers),
		verifier,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("api-server listening on %s env=%s", server.Addr, cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Println("api-server stopped")
}
