package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// HealthHandler reports liveness and per-dependency readiness. The ledger
// store must answer before the service accepts writes; the replay store is
// checked too since idempotent retries depend on it.
type HealthHandler struct {
	ledgerStore *pgxpool.Pool
	replayStore *redis.Client
}

func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{ledgerStore: pool, replayStore: redisClient}
}

// Liveness answers 200 as long as the process serves requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings each configured dependency and names the one that fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	components := map[string]string{}

	if h.ledgerStore != nil {
		if err := h.ledgerStore.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "ledger store unavailable", err.Error())
			return
		}
		components["ledger_store"] = "ok"
	}

	if h.replayStore != nil {
		if err := h.replayStore.Ping(ctx).Err(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "replay store unavailable", err.Error())
			return
		}
		components["replay_store"] = "ok"
	}

	components["status"] = "ready"
	writeJSON(w, http.StatusOK, components)
}
