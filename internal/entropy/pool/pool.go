// Package pool implements the entropy pool: the L2/L3 boundary object
// that owns a set of registered sources, their per-source state and
// ring buffers, and the hash-chain conditioning state, and exposes the
// uniform get_bytes/collect contract the CLI, HTTP server, and monitor
// all build on.
package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"openentropy/internal/entropy/conditioning"
	"openentropy/internal/entropy/source"
	"openentropy/internal/entropy/sources"
	"openentropy/internal/metrics"
)

// DefaultTimeout bounds collect_all_parallel when the caller passes a
// non-positive timeout.
const DefaultTimeout = 10 * time.Second

// Pool owns a set of registered entropy sources plus the conditioning
// hash chain used for Sha256-mode output. All exported methods are
// safe for concurrent use; per-source state carries its own lock so
// collectors never block get_bytes or health_report.
type Pool struct {
	mu      sync.RWMutex
	id      uuid.UUID
	started time.Time

	states []*source.State
	byID   map[string]*source.State

	chain       *conditioning.HashChain
	outputBytes uint64

	drbgOnce   sync.Once
	drbgStream *conditioning.AesCtrDrbgStream
	drbgSeed   []byte

	metrics *metrics.OpenEntropyMetrics
}

// SetMetrics attaches a metrics sink to the pool. Collection rounds
// (CollectAllParallel) report their duration, byte count, per-source
// timeouts, and aggregate entropy estimates to it. Nil (the default)
// disables this reporting entirely.
func (p *Pool) SetMetrics(m *metrics.OpenEntropyMetrics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = m
}

// metricsSink returns the attached metrics instance, if any, under
// lock — SetMetrics may race with a collection round in progress.
func (p *Pool) metricsSink() *metrics.OpenEntropyMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metrics
}

// New creates an empty pool, seeding its Sha256-mode hash chain from
// SHA256(seed || OS entropy || timestamp). seed may be nil.
func New(seed []byte) *Pool {
	now := conditioning.NowNanos()
	osEntropy := conditioning.OSEntropy(32)
	return &Pool{
		id:       uuid.New(),
		started:  time.Now(),
		byID:     make(map[string]*source.State),
		chain:    conditioning.NewHashChain(seed, osEntropy, now),
		drbgSeed: deriveSeed(seed, osEntropy, now),
	}
}

// Auto creates a pool seeded with no user seed and registers every
// source that reports itself available, each at weight 1.0, in
// DetectAvailableSources' deterministic order.
func Auto() *Pool {
	p := New(nil)
	for _, s := range sources.DetectAvailableSources() {
		p.AddSource(s, 1.0)
	}
	return p
}

// ID returns the pool's unique instance identifier, used to tag
// recorder sessions and log lines.
func (p *Pool) ID() string {
	return p.id.String()
}

// Uptime returns how long this pool instance has existed.
func (p *Pool) Uptime() time.Duration {
	return time.Since(p.started)
}

// AddSource registers src at the given mixing weight (defaulted to 1.0
// if <= 0). A duplicate id replaces the existing registration rather
// than appending a second copy, so repeated auto-discovery calls stay
// idempotent.
func (p *Pool) AddSource(src source.EntropySource, weight float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := src.Info().ID
	if existing, ok := p.byID[id]; ok {
		existing.Source = src
		if weight > 0 {
			existing.Weight = weight
		}
		return
	}

	st := source.NewState(src, weight)
	p.states = append(p.states, st)
	p.byID[id] = st
}

// SourceCount returns the number of registered sources.
func (p *Pool) SourceCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.states)
}

// SourceInfos returns the static metadata of every registered source,
// in registration order.
func (p *Pool) SourceInfos() []source.Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	infos := make([]source.Info, len(p.states))
	for i, st := range p.states {
		infos[i] = st.Source.Info()
	}
	return infos
}

// SourceBuffer returns the named source's current ring buffer
// contents, for callers (the recorder) that want the actual bytes
// behind a health report rather than just its aggregate counters.
func (p *Pool) SourceBuffer(id string) ([]byte, bool) {
	st, ok := p.stateByName(id)
	if !ok {
		return nil, false
	}
	return st.BufferBytes(), true
}

// statesSnapshot returns a stable slice of the registered states for
// iteration without holding the pool lock across per-source work.
func (p *Pool) statesSnapshot() []*source.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*source.State, len(p.states))
	copy(out, p.states)
	return out
}

func (p *Pool) stateByName(name string) (*source.State, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.byID[name]
	return st, ok
}

func (p *Pool) addOutputBytes(n int) {
	atomic.AddUint64(&p.outputBytes, uint64(n))
}

func (p *Pool) totalOutputBytes() uint64 {
	return atomic.LoadUint64(&p.outputBytes)
}
