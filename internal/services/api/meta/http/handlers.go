// Package http provides the probe and build endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"prtimeline/internal/core/version"
	"prtimeline/internal/modkit/httpkit"
	"prtimeline/internal/platform/logger"
)

// Pinger is satisfied by store backends that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies. A nil backend is reported as skipped
type Deps struct {
	ServiceName  string
	StartedAt    time.Time
	PG           any
	CH           any
	ReadyTimeout time.Duration
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d}

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)
	httpkit.Get(r, "/version", h.version)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyCheck is one backend check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped unknown
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok fail
	Checks []ReadyCheck `json:"checks"`
	Uptime int64        `json:"uptime_seconds"`
	Now    string       `json:"now"`
}

// health is unenveloped so probes can match the body exactly
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	httpkit.JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		p, ok := c.(Pinger)
		if !ok {
			return ReadyCheck{Name: name, Status: "unknown"}
		}
		if err := p.Ping(ctx); err != nil {
			logger.C(ctx).Warn().Err(err).Str("backend", name).Msg("readiness check failed")
			return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
		}
		return ReadyCheck{Name: name, Status: "ok"}
	}

	resp := ReadyResponse{
		Status: "ok",
		Checks: []ReadyCheck{check("pg", h.deps.PG), check("ch", h.deps.CH)},
		Uptime: int64(time.Since(h.deps.StartedAt) / time.Second),
		Now:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	for _, c := range resp.Checks {
		if c.Status == "fail" {
			resp.Status = "fail"
			status = http.StatusServiceUnavailable
		}
	}
	httpkit.JSON(w, status, resp)
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}
