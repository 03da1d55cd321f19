// Package lookup answers SIM/CNIC registry queries: validation, the upstream
// call, post-2022 sentinel filtering and record normalization.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"dbservice/internal/platform/metrics"
	"dbservice/internal/upstream"
	"dbservice/pkg/platform/sentinel"
)

// Cache stores normalized results between identical queries.
type Cache interface {
	Find(ctx context.Context, q Query) (*Result, error)
	Save(ctx context.Context, q Query, res *Result) error
}

// Service coordinates registry lookups.
type Service struct {
	client  RegistryClient
	cache   Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics records upstream and cache metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New constructs a lookup service.
func New(client RegistryClient, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("registry client is required")
	}
	s := &Service{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Lookup returns the normalized registry answer for q. A payload holding only
// the post-2022 sentinel yields an empty result with RegisteredAfter2022 set.
func (s *Service) Lookup(ctx context.Context, q Query) (*Result, error) {
	if q.IsZero() {
		return nil, errQueryRequired
	}
	if cached, ok := s.fromCache(ctx, q); ok {
		return cached, nil
	}

	body, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	res := Normalize(q, body)
	if res.RegisteredAfter2022 {
		s.metrics.IncrementSentinel()
	}
	if s.cache != nil {
		if err := s.cache.Save(ctx, q, res); err != nil {
			s.logger.WarnContext(ctx, "lookup cache write failed", "error", err)
		}
	}
	return res, nil
}

// Raw returns the registry payload verbatim. It bypasses the cache.
func (s *Service) Raw(ctx context.Context, q Query) (json.RawMessage, error) {
	body, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (s *Service) fromCache(ctx context.Context, q Query) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	res, err := s.cache.Find(ctx, q)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "lookup cache read failed", "error", err)
		}
		s.metrics.RecordCache(false)
		return nil, false
	}
	s.metrics.RecordCache(true)
	return res, true
}

func (s *Service) fetch(ctx context.Context, q Query) ([]byte, error) {
	if q.IsZero() {
		return nil, errQueryRequired
	}
	start := time.Now()
	body, err := s.client.Fetch(ctx, q)
	if err != nil {
		s.metrics.ObserveUpstream(ProviderRegistry, metrics.OutcomeFailure, time.Since(start))
		s.logger.WarnContext(ctx, "registry lookup failed",
			"category", upstream.GetCategory(err),
			"retryable", upstream.IsRetryable(err),
			"error", err,
		)
		return nil, upstream.ToDomainError(err)
	}
	s.metrics.ObserveUpstream(ProviderRegistry, metrics.OutcomeSuccess, time.Since(start))
	return body, nil
}
