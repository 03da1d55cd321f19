package lookup

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks RegistryClient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"dbservice/internal/upstream"
)

// ProviderRegistry identifies the SIM/CNIC registry in metrics, spans and
// provider errors.
const ProviderRegistry = "registry"

// RegistryClient fetches the raw registry payload for a query.
type RegistryClient interface {
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

// HTTPClient calls the registry over HTTP: GET {base}?query={digits}.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	doer    upstream.HTTPDoer
}

// NewHTTPClient builds a registry client. A nil doer uses a default
// *http.Client; the per-call timeout is applied through the request context.
func NewHTTPClient(baseURL string, timeout time.Duration, doer upstream.HTTPDoer) *HTTPClient {
	if doer == nil {
		doer = &http.Client{}
	}
	return &HTTPClient{baseURL: baseURL, timeout: timeout, doer: doer}
}

// Fetch returns the registry JSON for q or a *upstream.ProviderError.
func (c *HTTPClient) Fetch(ctx context.Context, q Query) ([]byte, error) {
	return upstream.Fetch(ctx, c.doer, upstream.Request{
		ProviderID: ProviderRegistry,
		BaseURL:    c.baseURL,
		Query:      url.Values{"query": {q.String()}},
		Timeout:    c.timeout,
	})
}
