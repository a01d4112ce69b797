package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// pinger is a dependency the ledger cannot serve without.
type pinger interface {
	Ping(ctx context.Context) error
}

type component struct {
	name string
	p    pinger
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	components []component
	version    string
}

// NewHealthHandler creates a HealthHandler checking the database.
func NewHealthHandler(db pinger, version string) *HealthHandler {
	return &HealthHandler{
		components: []component{{name: "database", p: db}},
		version:    version,
	}
}

// WithComponent adds another dependency to the readiness and health checks.
func (h *HealthHandler) WithComponent(name string, p pinger) *HealthHandler {
	h.components = append(h.components, component{name: name, p: p})
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

const probeTimeout = 3 * time.Second

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// Ready is the readiness probe: 200 if every component answers, 503 if not.
// A failing response names the components that are down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	components, ok := h.check(r.Context(), false)
	if !ok {
		down := make(map[string]CompStatus)
		for name, c := range components {
			if c.Status != "ok" {
				down[name] = c
			}
		}
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:     "down",
			Components: down,
			Timestamp:  time.Now().UTC(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// Health is the full health check with per-component latency and version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components, ok := h.check(r.Context(), true)

	resp := HealthResponse{
		Status:     "ok",
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
	status := http.StatusOK
	if !ok {
		resp.Status = "down"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// check pings every component under one deadline.
func (h *HealthHandler) check(ctx context.Context, withLatency bool) (map[string]CompStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	components := make(map[string]CompStatus, len(h.components))
	ok := true
	for _, c := range h.components {
		start := time.Now()
		if err := c.p.Ping(ctx); err != nil {
			components[c.name] = CompStatus{Status: "down"}
			ok = false
			continue
		}
		st := CompStatus{Status: "ok"}
		if withLatency {
			st.Latency = time.Since(start).String()
		}
		components[c.name] = st
	}
	return components, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
