package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dbservice/internal/export"
	"dbservice/internal/lookup"
	dErrors "dbservice/pkg/domain-errors"
	"dbservice/pkg/platform/httputil"
	"dbservice/pkg/requestcontext"
)

// Service defines the lookup operations the handler needs.
type Service interface {
	Lookup(ctx context.Context, q lookup.Query) (*lookup.Result, error)
	Raw(ctx context.Context, q lookup.Query) (json.RawMessage, error)
}

// Handler wires registry lookup and export endpoints to the lookup service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a lookup handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts lookup endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/lookup", h.HandleLookup)
	r.Get("/api/lookup/export", h.HandleExport)
}

// HandleLookup handles GET /api/lookup?query=<digits>[&raw=true].
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	if raw, _ := strconv.ParseBool(r.URL.Query().Get("raw")); raw {
		body, err := h.service.Raw(ctx, q)
		if err != nil {
			h.logFailure(ctx, requestID, "raw registry lookup failed", err)
			httputil.WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	res, err := h.service.Lookup(ctx, q)
	if err != nil {
		h.logFailure(ctx, requestID, "registry lookup failed", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registry lookup served",
		"request_id", requestID,
		"results", res.ResultsCount,
		"registered_after_2022", res.RegisteredAfter2022,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleExport handles GET /api/lookup/export?query=<digits>&format=csv|text.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatCSV
	}
	if !export.ValidFormat(format) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "format must be csv or text"))
		return
	}

	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	res, err := h.service.Lookup(ctx, q)
	if err != nil {
		h.logFailure(ctx, requestID, "export lookup failed", err)
		httputil.WriteError(w, err)
		return
	}

	at := requestcontext.Now(ctx)
	if format == export.FormatText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(export.Text(res.Results, at)))
		return
	}

	body, err := export.CSV(res.Results)
	if err != nil {
		h.logFailure(ctx, requestID, "csv export failed", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "export failed"))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(format, at)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) parseQuery(w http.ResponseWriter, r *http.Request) (lookup.Query, bool) {
	q, err := lookup.NewQuery(r.URL.Query().Get("query"))
	if err != nil {
		h.logger.InfoContext(r.Context(), "rejected lookup query",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return lookup.Query{}, false
	}
	return q, true
}

func (h *Handler) logFailure(ctx context.Context, requestID, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestID,
		"error", err,
	)
}
