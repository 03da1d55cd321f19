// Package botfilter rejects requests that did not come from the bundled UI
// (or a client imitating it) and requests from self-declared crawlers.
package botfilter

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	dErrors "dbservice/pkg/domain-errors"
	"dbservice/pkg/platform/httputil"
	"dbservice/pkg/requestcontext"
)

// HeaderRequestedWith must be present on every proxied lookup.
const HeaderRequestedWith = "X-Requested-With"

// Option configures the filter.
type Option func(*filter)

type filter struct {
	blockCrawlers bool
}

// WithCrawlerBlocking toggles User-Agent based crawler rejection.
func WithCrawlerBlocking(enabled bool) Option {
	return func(f *filter) {
		f.blockCrawlers = enabled
	}
}

// Require returns middleware that answers 403 when the x-requested-with
// header is missing or the User-Agent identifies a crawler.
func Require(logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	f := &filter{blockCrawlers: true}
	for _, opt := range opts {
		opt(f)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if strings.TrimSpace(r.Header.Get(HeaderRequestedWith)) == "" {
				logger.WarnContext(ctx, "rejected request without x-requested-with",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "x-requested-with header required"))
				return
			}
			if f.blockCrawlers && isCrawler(r.UserAgent()) {
				logger.WarnContext(ctx, "rejected crawler request",
					"request_id", requestcontext.RequestID(ctx),
					"user_agent", r.UserAgent(),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "automated clients are not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isCrawler(ua string) bool {
	if ua == "" {
		return false
	}
	return useragent.New(ua).Bot()
}
