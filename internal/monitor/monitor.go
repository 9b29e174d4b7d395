package monitor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"openentropy/internal/entropy/pool"
	"openentropy/internal/metrics"
)

// Config controls the refresh loop's appearance and cadence.
type Config struct {
	Interval time.Duration
	NoColor  bool
	Writer   io.Writer
	Metrics  *metrics.OpenEntropyMetrics
}

// Monitor repaints a terminal dashboard of a Pool's live health on a
// fixed interval until its context is canceled.
type Monitor struct {
	pool    *pool.Pool
	out     io.Writer
	c       colors
	tick    time.Duration
	metrics *metrics.OpenEntropyMetrics
}

// New builds a Monitor bound to p. A nil or non-positive Interval
// defaults to one second; a nil Writer defaults to os.Stdout.
func New(p *pool.Pool, cfg Config) *Monitor {
	tick := cfg.Interval
	if tick <= 0 {
		tick = time.Second
	}
	out := cfg.Writer
	if out == nil {
		out = os.Stdout
	}
	return &Monitor{
		pool:    p,
		out:     out,
		c:       newColors(cfg.NoColor),
		tick:    tick,
		metrics: cfg.Metrics,
	}
}

// Run paints the dashboard once per tick until ctx is canceled, then
// restores the cursor and returns.
func (m *Monitor) Run(ctx context.Context) error {
	fmt.Fprint(m.out, ansiHideCursor)
	defer fmt.Fprint(m.out, ansiShowCursor)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	m.paint()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.paint()
		}
	}
}

func (m *Monitor) paint() {
	report := m.pool.HealthReport()
	fmt.Fprint(m.out, ansiClearScreen+ansiHome)
	m.paintHeader(report)
	m.paintMetrics()
	m.paintSources(report)
}

func (m *Monitor) paintHeader(r pool.HealthReport) {
	status := m.c.Green + "HEALTHY" + m.c.Reset
	if r.IsDegraded() {
		status = m.c.Red + "DEGRADED" + m.c.Reset
	}
	fmt.Fprintf(m.out, "%sopenentropy%s  pool %s  uptime %s\n",
		m.c.Bold+m.c.Cyan, m.c.Reset, m.pool.ID(), m.pool.Uptime().Round(time.Second))
	fmt.Fprintf(m.out, "status %s  sources %d/%d healthy  raw %d B  output %d B\n",
		status, r.HealthyCount, r.TotalCount, r.RawBytesCumulative, r.OutputBytesCumulative)
}

// paintMetrics prints a line summarizing the collection-round metrics
// tracked by the pool's attached OpenEntropyMetrics, when one is set.
// For a bare Monitor with no metrics sink it prints only a blank
// separator line.
func (m *Monitor) paintMetrics() {
	if m.metrics == nil {
		fmt.Fprintln(m.out)
		return
	}
	fmt.Fprintf(m.out, "bytes collected %d  avg collect %.1fms  timeouts %d  shannon %d/1000 bits/B\n\n",
		m.metrics.BytesCollectedTotal.Value(), m.metrics.CollectDuration.Mean()*1000,
		m.metrics.CollectTimeoutsTotal.Value(), m.metrics.ShannonEntropy.Value())
}

func (m *Monitor) paintSources(r pool.HealthReport) {
	sources := append([]pool.SourceHealth(nil), r.Sources...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })

	fmt.Fprintf(m.out, "%-28s %-8s %12s %10s %9s\n", "SOURCE", "STATUS", "BYTES", "SHANNON", "FAILS")
	for _, s := range sources {
		statusLabel := m.c.Green + "up" + m.c.Reset
		if !s.Healthy {
			statusLabel = m.c.Yellow + "down" + m.c.Reset
		}
		fmt.Fprintf(m.out, "%-28s %-8s %12d %10.3f %9d\n",
			s.ID, statusLabel, s.BytesCumulative, s.LastShannon, s.FailuresCumulative)
	}
	if len(sources) == 0 {
		fmt.Fprintf(m.out, "%s(no sources registered)%s\n", m.c.Dim, m.c.Reset)
	}
}
