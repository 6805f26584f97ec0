package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const probeTimeout = 3 * time.Second

// pinger is the minimal interface for dependency health checks.
type pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to a health check.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type component struct {
	name     string
	check    pinger
	required bool
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	components []component
	version    string
}

// NewHealthHandler creates a HealthHandler that requires db to be reachable.
func NewHealthHandler(db pinger, version string) *HealthHandler {
	return &HealthHandler{
		components: []component{{name: "database", check: db, required: true}},
		version:    version,
	}
}

// WithOptional adds a component that is reported by /health but never
// makes the service unready. The redis cache is one: lookups fall back
// to the database when it is down.
func (h *HealthHandler) WithOptional(name string, check pinger) *HealthHandler {
	h.components = append(h.components, component{name: name, check: check})
	return h
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: 200 if every required component answers, 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	for _, c := range h.components {
		if !c.required {
			continue
		}
		if err := c.check.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:    "down",
				Timestamp: time.Now(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health is the full health check. It pings every component with latency
// measurement and includes the version. An optional component that is
// down degrades the status without failing the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	components := make(map[string]CompStatus, len(h.components))
	overallStatus := "ok"

	for _, c := range h.components {
		start := time.Now()
		err := c.check.Ping(ctx)
		latency := time.Since(start)

		if err != nil {
			components[c.name] = CompStatus{Status: "down"}
			switch {
			case c.required:
				overallStatus = "down"
			case overallStatus == "ok":
				overallStatus = "degraded"
			}
			continue
		}
		components[c.name] = CompStatus{
			Status:  "ok",
			Latency: latency.String(),
		}
	}

	status := http.StatusOK
	if overallStatus == "down" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overallStatus,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
