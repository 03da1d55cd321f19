// Package callerid resolves the subscriber name and network for a phone
// number through a primary caller-ID API with a single backup fallback.
package callerid

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"dbservice/internal/platform/metrics"
	"dbservice/internal/upstream"
	dErrors "dbservice/pkg/domain-errors"
	"dbservice/pkg/platform/circuit"
	"dbservice/pkg/platform/sentinel"
)

// Service performs caller-ID lookups.
type Service struct {
	primary     Provider
	backup      Provider
	breaker     *circuit.Breaker
	countryCode string
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBackup sets the provider tried once when the primary fails.
func WithBackup(p Provider) Option {
	return func(s *Service) { s.backup = p }
}

// WithBreaker guards the primary with a circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

// WithCountryCode overrides DefaultCountryCode.
func WithCountryCode(cc string) Option {
	return func(s *Service) {
		if cc != "" {
			s.countryCode = cc
		}
	}
}

// WithMetrics records upstream and fallback metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New constructs a caller-ID service.
func New(primary Provider, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, errors.New("primary provider is required")
	}
	s := &Service{
		primary:     primary,
		countryCode: DefaultCountryCode,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Lookup normalizes number and asks the primary provider, falling back to
// the backup exactly once when the primary fails or its circuit is open.
func (s *Service) Lookup(ctx context.Context, number string) (*Result, error) {
	if strings.TrimSpace(number) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "number parameter is required")
	}
	normalized := Normalize(number, s.countryCode)
	if len(normalized) < minNormalized {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid phone number: expected 10 or 11 digits")
	}

	answer, err := s.callPrimary(ctx, normalized)
	if err == nil {
		return s.result(answer, SourcePrimary, normalized), nil
	}

	s.metrics.IncrementFallbacks()
	if s.backup == nil {
		s.logger.ErrorContext(ctx, "primary caller-id failed, no backup configured",
			"category", upstream.GetCategory(err),
			"error", err,
		)
		return nil, dErrors.Wrap(errors.Join(err, sentinel.ErrNotConfigured), dErrors.CodeUpstream, fallbackMessage)
	}
	s.logger.WarnContext(ctx, "primary caller-id failed, trying backup",
		"category", upstream.GetCategory(err),
		"retryable", upstream.IsRetryable(err),
		"error", err,
	)

	answer, backupErr := s.call(ctx, s.backup, normalized)
	if backupErr != nil {
		s.logger.ErrorContext(ctx, "backup caller-id failed",
			"category", upstream.GetCategory(backupErr),
			"error", backupErr,
		)
		return nil, dErrors.Wrap(errors.Join(err, backupErr), dErrors.CodeUpstream, fallbackMessage)
	}
	return s.result(answer, SourceBackup, normalized), nil
}

func (s *Service) callPrimary(ctx context.Context, number string) (Answer, error) {
	if s.breaker == nil {
		return s.call(ctx, s.primary, number)
	}
	if !s.breaker.Allow() {
		s.metrics.ObserveUpstream(s.primary.ID(), metrics.OutcomeSkipped, 0)
		return Answer{}, upstream.NewProviderError(upstream.ErrorCircuitOpen, s.primary.ID(), "circuit open", nil)
	}

	answer, err := s.call(ctx, s.primary, number)
	if err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "caller-id primary circuit opened", "breaker", s.breaker.Name())
		}
		return Answer{}, err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "caller-id primary circuit closed", "breaker", s.breaker.Name())
	}
	return answer, nil
}

func (s *Service) call(ctx context.Context, p Provider, number string) (Answer, error) {
	start := time.Now()
	answer, err := p.Lookup(ctx, number)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	s.metrics.ObserveUpstream(p.ID(), outcome, time.Since(start))
	return answer, err
}

func (s *Service) result(a Answer, source, normalized string) *Result {
	res := &Result{Source: source, Number: E164(normalized)}
	if strings.TrimSpace(a.Name) == "" {
		res.Message = noDataMessage
		return res
	}
	res.Success = true
	res.Name = a.Name
	res.Sim = a.Sim
	if res.Sim == "" {
		res.Sim = Carrier(normalized)
	}
	if res.Sim == "" {
		res.Sim = unknownSim
	}
	return res
}
