package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dbservice/internal/callerid"
	"dbservice/pkg/platform/httputil"
	"dbservice/pkg/requestcontext"
)

// Service defines the caller-ID operation the handler needs.
type Service interface {
	Lookup(ctx context.Context, number string) (*callerid.Result, error)
}

// Handler wires the caller-ID endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a caller-ID handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the caller-ID endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/truecaller", h.HandleLookup)
}

// HandleLookup handles GET /api/truecaller?number=<digits>.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	res, err := h.service.Lookup(ctx, r.URL.Query().Get("number"))
	if err != nil {
		h.logger.ErrorContext(ctx, "caller-id lookup failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "caller-id lookup served",
		"request_id", requestID,
		"success", res.Success,
		"source", res.Source,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}
