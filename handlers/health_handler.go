package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB. The memory driver has nothing to ping.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	driver  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewHealthHandler(db Pinger, driver string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{db: db, driver: driver, timeout: 2 * time.Second, logger: logger}
}

func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "health check: storage ping failed", slog.Any("error", err))
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}

	if err := writeJSON(w, code, jsonResponse{"status": status, "storage": h.driver}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}
