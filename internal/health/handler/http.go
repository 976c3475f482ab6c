// Package handler serves liveness and readiness probes for Kubernetes, load
// balancers, and CI.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports backing-store reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler answers health probes. A nil pinger skips the DB check, which keeps
// the probe useful in tests and in deployments without a database.
type Handler struct {
	db Pinger
}

// NewHandler returns a health Handler checking the given pinger.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

type healthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HandleHealthz responds 200 when the service can reach its dependencies and
// 503 otherwise. A failed ping is a degraded response, not an error.
func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			writeHealth(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Detail: "database unreachable"})
			return
		}
	}
	writeHealth(w, http.StatusOK, healthResponse{Status: "ok"})
}

func writeHealth(w http.ResponseWriter, code int, v healthResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
