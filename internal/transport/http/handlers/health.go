package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/eprocure-portal/internal/logger"
	"github.com/baechuer/eprocure-portal/internal/transport/http/response"
)

const readyTimeout = 2 * time.Second

// Check is one readiness dependency. Optional backends that are not
// configured are simply not registered.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var failed []string
	for _, c := range h.checks {
		if c.Ping == nil {
			continue
		}
		if err := c.Ping(ctx); err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Str("check", c.Name).Msg("readiness check failed")
			failed = append(failed, c.Name)
		}
	}

	if len(failed) > 0 {
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"failed": failed,
		})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
