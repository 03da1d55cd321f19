package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dbservice/internal/platform/metrics"
	"dbservice/internal/platform/middleware"
	"dbservice/internal/status"
	"dbservice/pkg/platform/httputil"
	"dbservice/pkg/platform/middleware/botfilter"
	"dbservice/pkg/platform/middleware/metadata"
	"dbservice/pkg/platform/middleware/requesttime"
	"dbservice/pkg/requestcontext"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "DB Service PK API"

// Registrar mounts a group of endpoints.
type Registrar interface {
	Register(r chi.Router)
}

// StatusChecker is satisfied by *status.Checker.
type StatusChecker interface {
	Check(ctx context.Context) status.Report
}

// Config lists everything the router mounts. Nil optional fields leave their
// routes out.
type Config struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Lookup    Registrar
	CallerID  Registrar
	Status    StatusChecker
	UI        http.Handler
	BotFilter []botfilter.Option
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// NewRouter wires the public endpoints. Lookup, caller-ID and export routes
// sit behind the bot filter; health, status, metrics and the UI do not.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS)

	r.Get("/api/health", handleHealth)
	if cfg.Status != nil {
		r.Get("/api/status", handleStatus(cfg.Status))
	}

	r.Group(func(r chi.Router) {
		r.Use(botfilter.Require(cfg.Logger, cfg.BotFilter...))
		if cfg.Lookup != nil {
			cfg.Lookup.Register(r)
		}
		if cfg.CallerID != nil {
			cfg.CallerID.Register(r)
		}
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.UI != nil {
		r.Handle("/*", cfg.UI)
	}
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: requestcontext.Now(r.Context()).UTC().Format(time.RFC3339),
		Service:   ServiceName,
	})
}

func handleStatus(checker StatusChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, checker.Check(r.Context()))
	}
}
