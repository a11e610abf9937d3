package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// HealthHandler exposes liveness and readiness probes. Readiness checks each
// configured backend; any nil dependency is skipped so the notifier can reuse
// the handler without a broker check.
type HealthHandler struct {
	pool    *pgxpool.Pool
	redis   *redis.Client
	brokers []string
}

func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, brokers []string) *HealthHandler {
	return &HealthHandler{pool: pool, redis: rdb, brokers: brokers}
}

func (h *HealthHandler) live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if len(h.brokers) > 0 {
		if err := h.dialBroker(ctx); err != nil {
			checks["kafka"] = err.Error()
			healthy = false
		} else {
			checks["kafka"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"status": statusWord(healthy), "checks": checks})
}

func (h *HealthHandler) dialBroker(ctx context.Context) error {
	var err error
	for _, broker := range h.brokers {
		var conn *kafka.Conn
		conn, err = kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return err
}

func statusWord(healthy bool) string {
	if healthy {
		return "ready"
	}
	return "degraded"
}
