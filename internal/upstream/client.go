// Package upstream performs the outbound HTTP calls to third-party lookup
// APIs and classifies their failures.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dbservice/internal/platform/tracing"
)

const (
	maxBodyBytes = 1 << 20
	userAgent    = "dbservice/1.0"
	tracerName   = "dbservice/upstream"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one GET against a provider.
type Request struct {
	ProviderID string
	BaseURL    string
	Query      url.Values
	Headers    http.Header
	Timeout    time.Duration
}

// Fetch issues req and returns the JSON body of a 2xx answer. Every failure
// is a *ProviderError; the call is bounded by req.Timeout on top of ctx.
func Fetch(ctx context.Context, doer HTTPDoer, req Request) ([]byte, error) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "upstream."+req.ProviderID)
	defer span.End()
	span.SetAttributes(attribute.String("upstream.provider", req.ProviderID))

	body, err := fetch(ctx, doer, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(GetCategory(err)))
		return nil, err
	}
	return body, nil
}

func fetch(ctx context.Context, doer HTTPDoer, req Request) ([]byte, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	target, err := url.Parse(req.BaseURL)
	if err != nil {
		return nil, NewProviderError(ErrorInternal, req.ProviderID, "invalid provider url", err)
	}
	q := target.Query()
	for k, vs := range req.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	target.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, NewProviderError(ErrorInternal, req.ProviderID, "build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := doer.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, NewProviderError(ErrorTimeout, req.ProviderID, "request timed out", err)
		}
		return nil, NewProviderError(ErrorProviderOutage, req.ProviderID, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewProviderError(ErrorTimeout, req.ProviderID, "reading response timed out", err)
		}
		return nil, NewProviderError(ErrorProviderOutage, req.ProviderID, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pe := NewProviderError(categoryForStatus(resp.StatusCode), req.ProviderID,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
		pe.StatusCode = resp.StatusCode
		return nil, pe
	}
	if !gjson.ValidBytes(body) {
		return nil, NewProviderError(ErrorBadData, req.ProviderID, "upstream returned invalid JSON", nil)
	}
	return body, nil
}

func categoryForStatus(status int) ErrorCategory {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorRateLimited
	case status == http.StatusNotFound:
		return ErrorNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorAuthentication
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTimeout
	case status >= 500:
		return ErrorProviderOutage
	default:
		return ErrorBadData
	}
}
