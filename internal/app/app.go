// Package app builds the lookup services from configuration. The server and
// the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"dbservice/internal/callerid"
	"dbservice/internal/lookup"
	"dbservice/internal/lookup/store"
	"dbservice/internal/platform/config"
	"dbservice/internal/platform/metrics"
	platformredis "dbservice/internal/platform/redis"
	"dbservice/internal/status"
	"dbservice/pkg/platform/circuit"
)

// App holds the wired services.
type App struct {
	Lookup   *lookup.Service
	CallerID *callerid.Service
	Status   *status.Checker
	Breaker  *circuit.Breaker

	redis *redis.Client
}

// New wires every service. m may be nil. A configured but unreachable Redis
// is a startup error.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger, m *metrics.Metrics) (*App, error) {
	httpClient := &http.Client{}
	a := &App{}

	var cache lookup.Cache = store.NewInMemoryCache(cfg.Cache.TTL)
	rc, err := platformredis.Dial(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		a.redis = rc
		cache = store.NewRedisCache(rc, cfg.Cache.TTL)
		logger.InfoContext(ctx, "lookup cache backed by redis")
	}

	a.Lookup, err = lookup.New(
		lookup.NewHTTPClient(cfg.Registry.URL, cfg.Registry.Timeout, httpClient),
		lookup.WithCache(cache),
		lookup.WithMetrics(m),
		lookup.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	a.Breaker = circuit.New(callerid.ProviderPrimary,
		circuit.WithFailureThreshold(cfg.CallerID.BreakerFailures),
		circuit.WithSuccessThreshold(cfg.CallerID.BreakerSuccesses),
		circuit.WithOpenTimeout(cfg.CallerID.BreakerOpenTimeout),
	)
	opts := []callerid.Option{
		callerid.WithBreaker(a.Breaker),
		callerid.WithCountryCode(cfg.CallerID.CountryCode),
		callerid.WithMetrics(m),
		callerid.WithLogger(logger),
	}
	if cfg.CallerID.BackupURL == "" {
		logger.WarnContext(ctx, "caller-id backup not configured, primary failures are returned as upstream errors",
			"primary_url", cfg.CallerID.PrimaryURL,
		)
	} else {
		opts = append(opts, callerid.WithBackup(callerid.NewHTTPProvider(
			callerid.ProviderBackup, cfg.CallerID.BackupURL, cfg.CallerID.BackupTimeout,
			callerid.WithAPIKey(cfg.CallerID.APIKeyHeader, cfg.CallerID.APIKey),
			callerid.WithDoer(httpClient),
		)))
	}
	a.CallerID, err = callerid.New(
		callerid.NewHTTPProvider(
			callerid.ProviderPrimary, cfg.CallerID.PrimaryURL, cfg.CallerID.PrimaryTimeout,
			callerid.WithAPIKey(cfg.CallerID.APIKeyHeader, cfg.CallerID.APIKey),
			callerid.WithDoer(httpClient),
		),
		opts...,
	)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	a.Status = status.NewChecker(a.Lookup, a.CallerID)
	return a, nil
}

// Close releases the Redis connection, if any.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}
