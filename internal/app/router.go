package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emissioncoresupport/evidence-ledger/internal/auth"
	"github.com/emissioncoresupport/evidence-ledger/internal/config"
	"github.com/emissioncoresupport/evidence-ledger/internal/metrics"
	"github.com/emissioncoresupport/evidence-ledger/internal/transport/middleware"
	"github.com/emissioncoresupport/evidence-ledger/internal/transport/rest"
)

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	health   *rest.HealthHandler
	evidence *rest.EvidenceHandler
	tokens   *auth.JWTManager
	limiter  *middleware.RateLimiter
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

// newRouter assembles the HTTP surface. Probes and metrics are public; every
// /v1 route requires a tenant-bearing token.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.logger, d.metrics))
	r.Use(middleware.Recovery(d.logger))
	r.Use(middleware.CORS(d.cfg.CORS))
	r.Use(maxBody(d.cfg.Server.MaxBodyBytes))

	r.Get("/live", d.health.Live)
	r.Get("/ready", d.health.Ready)
	r.Get("/health", d.health.Health)

	if d.cfg.Metrics.Enabled() {
		r.Handle(d.cfg.Metrics.Path, promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Tenant(d.tokens))
		r.Use(d.limiter.Limit(d.cfg.Server.RateLimit))
		r.Mount("/v1", d.evidence.Routes())
	})

	return r
}

// maxBody caps request bodies; oversized bodies fail decoding with 413.
func maxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
