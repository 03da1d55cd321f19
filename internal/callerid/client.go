package callerid

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"dbservice/internal/upstream"
)

// Provider identifiers used in metrics, spans and errors.
const (
	ProviderPrimary = "callerid_primary"
	ProviderBackup  = "callerid_backup"
)

var (
	namePaths = []string{"name", "data.name", "result.name", "data.0.name"}
	simPaths  = []string{"sim", "carrier", "data.sim", "data.carrier", "result.carrier", "data.0.carrier"}
)

// Provider answers caller-ID queries for a normalized number.
type Provider interface {
	ID() string
	Lookup(ctx context.Context, number string) (Answer, error)
}

// HTTPProvider calls a caller-ID API: GET {base}?number={normalized}.
type HTTPProvider struct {
	id      string
	baseURL string
	timeout time.Duration
	headers http.Header
	doer    upstream.HTTPDoer
}

// ProviderOption configures an HTTPProvider.
type ProviderOption func(*HTTPProvider)

// WithAPIKey sends key in header on every call. Empty keys are ignored.
func WithAPIKey(header, key string) ProviderOption {
	return func(p *HTTPProvider) {
		if header != "" && key != "" {
			p.headers.Set(header, key)
		}
	}
}

// WithDoer replaces the HTTP client.
func WithDoer(doer upstream.HTTPDoer) ProviderOption {
	return func(p *HTTPProvider) {
		if doer != nil {
			p.doer = doer
		}
	}
}

// NewHTTPProvider constructs a caller-ID provider.
func NewHTTPProvider(id, baseURL string, timeout time.Duration, opts ...ProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		id:      id,
		baseURL: baseURL,
		timeout: timeout,
		headers: http.Header{},
		doer:    &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *HTTPProvider) ID() string {
	return p.id
}

// Lookup returns the provider's answer. A 2xx body without a name is a valid
// empty answer, not an error.
func (p *HTTPProvider) Lookup(ctx context.Context, number string) (Answer, error) {
	body, err := upstream.Fetch(ctx, p.doer, upstream.Request{
		ProviderID: p.id,
		BaseURL:    p.baseURL,
		Query:      url.Values{"number": {number}},
		Headers:    p.headers,
		Timeout:    p.timeout,
	})
	if err != nil {
		return Answer{}, err
	}
	doc := gjson.ParseBytes(body)
	return Answer{
		Name: firstString(doc, namePaths),
		Sim:  firstString(doc, simPaths),
	}, nil
}

func firstString(doc gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(doc.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}
