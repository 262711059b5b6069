package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	platformlogging "github.com/ruidolp/newposter-sub002/platform/go/logging"
	"github.com/ruidolp/newposter-sub002/platform/go/problem"
)

const readinessTimeout = 2 * time.Second

// pinger reports whether a backing service is reachable.
type pinger func(ctx context.Context) error

// opsHandler serves liveness, readiness and metrics outside the API tree.
type opsHandler struct {
	checks   map[string]pinger
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func (o *opsHandler) mount(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", o.ready)
	r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (o *opsHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	body := readiness{Status: "ok", Checks: make(map[string]string, len(o.checks))}
	status := http.StatusOK
	for name, ping := range o.checks {
		if err := ping(ctx); err != nil {
			platformlogging.FromContextOr(ctx, o.logger).Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			body.Checks[name] = "unavailable"
			body.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body.Checks[name] = "ok"
	}
	problem.WriteJSON(w, status, body)
}
