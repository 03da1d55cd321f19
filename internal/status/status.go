// Package status probes both upstream APIs with known test numbers.
package status

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"dbservice/internal/callerid"
	"dbservice/internal/lookup"
)

// Probe numbers known to exist upstream.
const (
	RegistryProbeNumber = "03001234567"
	CallerIDProbeNumber = "923001234567"
)

const probeTimeout = 5 * time.Second

// RegistryProber is satisfied by *lookup.Service.
type RegistryProber interface {
	Raw(ctx context.Context, q lookup.Query) (json.RawMessage, error)
}

// CallerIDProber is satisfied by *callerid.Service.
type CallerIDProber interface {
	Lookup(ctx context.Context, number string) (*callerid.Result, error)
}

// Upstream reports one probe.
type Upstream struct {
	Active    bool   `json:"active"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Report is the outcome of one Check.
type Report struct {
	Registry  Upstream  `json:"registry"`
	CallerID  Upstream  `json:"caller_id"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs the probes.
type Checker struct {
	registry RegistryProber
	callerID CallerIDProber
	timeout  time.Duration
	now      func() time.Time
}

// NewChecker constructs a Checker with the default 5s probe budget.
func NewChecker(registry RegistryProber, callerID CallerIDProber) *Checker {
	return &Checker{registry: registry, callerID: callerID, timeout: probeTimeout, now: time.Now}
}

// Check probes both upstreams concurrently. A failing probe marks its
// upstream inactive and never cancels the other one.
func (c *Checker) Check(ctx context.Context) Report {
	report := Report{CheckedAt: c.now().UTC()}
	q := lookup.MustQuery(RegistryProbeNumber)

	var g errgroup.Group
	g.Go(func() error {
		report.Registry = c.probe(ctx, func(ctx context.Context) error {
			_, err := c.registry.Raw(ctx, q)
			return err
		})
		return nil
	})
	g.Go(func() error {
		report.CallerID = c.probe(ctx, func(ctx context.Context) error {
			_, err := c.callerID.Lookup(ctx, CallerIDProbeNumber)
			return err
		})
		return nil
	})
	_ = g.Wait()

	return report
}

func (c *Checker) probe(ctx context.Context, fn func(context.Context) error) Upstream {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	up := Upstream{Active: err == nil, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		up.Error = err.Error()
	}
	return up
}
