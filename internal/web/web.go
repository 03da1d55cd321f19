// Package web serves the embedded browser UI.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"dbservice/internal/platform/config"
)

//go:embed static
var assets embed.FS

// ClientMargin is added to the server-side upstream budget so the page never
// aborts a request the server is still allowed to answer.
const ClientMargin = 5 * time.Second

// Budget is how long the server may spend on one request to each endpoint.
type Budget struct {
	Lookup   time.Duration
	CallerID time.Duration
}

// NewBudget derives the budget from the upstream timeouts. A caller-ID
// request may run the primary and then the backup.
func NewBudget(cfg config.Server) Budget {
	callerID := cfg.CallerID.PrimaryTimeout
	if cfg.CallerID.BackupURL != "" {
		callerID += cfg.CallerID.BackupTimeout
	}
	return Budget{Lookup: cfg.Registry.Timeout, CallerID: callerID}
}

// ClientConfig is published to the page as window.DBSERVICE_CONFIG.
type ClientConfig struct {
	LookupTimeoutMS int64 `json:"lookupTimeoutMs"`
	CallerTimeoutMS int64 `json:"callerTimeoutMs"`
}

// ClientConfigFor adds ClientMargin to each budget.
func ClientConfigFor(b Budget) ClientConfig {
	return ClientConfig{
		LookupTimeoutMS: (b.Lookup + ClientMargin).Milliseconds(),
		CallerTimeoutMS: (b.CallerID + ClientMargin).Milliseconds(),
	}
}

// Handler serves index.html at /, the generated config.js, and the remaining
// assets by name.
func Handler(b Budget) http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	data, err := json.Marshal(ClientConfigFor(b))
	if err != nil {
		panic(err)
	}
	script := []byte("window.DBSERVICE_CONFIG = " + string(data) + ";\n")

	files := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "/config.js" {
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
			_, _ = w.Write(script)
			return
		}
		files.ServeHTTP(w, r)
	})
}
