// internal/refresh/engine.go

// Package refresh drives the polling loops that keep the mirror in
// step with the backend. Each subscribed key gets an immediate fetch
// plus a recurring tick at its kind's interval, with at most one
// request in flight per key at any time.
package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/config"
	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/feed"
	"github.com/marketdeck/marketdeck/internal/metrics"
	"github.com/marketdeck/marketdeck/internal/mirror"
)

// keyState tracks one key's polling lifecycle. It outlives the last
// unsubscribe so retention can expire the mirrored entry later.
type keyState struct {
	refs      int
	gen       uint64
	inflight  bool
	applied   uint64
	cancel    context.CancelFunc
	refresh   chan struct{}
	idleSince time.Time
}

// Engine owns the per-key poll workers and the retention sweeper.
type Engine struct {
	cfg      config.RefreshConfig
	source   feed.Source
	fallback feed.Fallback
	store    *mirror.Store
	logger   *zap.Logger
	metrics  *metrics.Registry

	mu     sync.Mutex
	keys   map[core.Key]*keyState
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	seq atomic.Uint64
	now func() time.Time
}

// New creates an engine. fallback may be nil, in which case failed
// fetches mark the entry failed instead of substituting synthetic data.
func New(cfg config.RefreshConfig, source feed.Source, fallback feed.Fallback, store *mirror.Store, logger *zap.Logger, reg *metrics.Registry) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:      cfg,
		source:   source,
		fallback: fallback,
		store:    store,
		logger:   logger,
		metrics:  reg,
		keys:     make(map[core.Key]*keyState),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}

	if cfg.RetainFor > 0 {
		e.wg.Add(1)
		go e.janitor(sweepInterval(cfg.RetainFor))
	}
	return e
}

// Subscribe registers interest in a key and returns a release function.
// The first subscriber starts the poll worker with an immediate fetch;
// further subscribers share it. Releasing the last subscriber stops the
// worker, and any fetch still in flight is discarded on completion.
func (e *Engine) Subscribe(key core.Key) func() {
	if key.Kind == core.KindWatchlist {
		e.logger.Warn("watchlist entries are not polled", zap.String("key", key.String()))
		return func() {}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return func() {}
	}

	st, ok := e.keys[key]
	if !ok {
		st = &keyState{refresh: make(chan struct{}, 1)}
		e.keys[key] = st
	}
	st.refs++
	if st.refs == 1 {
		st.gen++
		st.inflight = false
		st.idleSince = time.Time{}

		wctx, cancel := context.WithCancel(e.ctx)
		st.cancel = cancel

		e.wg.Add(1)
		go e.worker(wctx, key, st.gen, e.interval(key.Kind), st.refresh)
	}
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.release(key) })
	}
}

// Refresh requests an immediate fetch for a subscribed key. Like a
// timer tick, the request is dropped when a fetch is already in flight.
// It reports whether the request was queued.
func (e *Engine) Refresh(key core.Key) bool {
	e.mu.Lock()
	st, ok := e.keys[key]
	if !ok || st.refs == 0 {
		e.mu.Unlock()
		return false
	}
	refresh := st.refresh
	e.mu.Unlock()

	select {
	case refresh <- struct{}{}:
		return true
	default:
		return false
	}
}

// Active returns the number of keys with live subscriptions.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, st := range e.keys {
		if st.refs > 0 {
			n++
		}
	}
	return n
}

// Close stops all workers and waits for in-flight fetches to finish.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) release(key core.Key) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.keys[key]
	if !ok || st.refs == 0 {
		return
	}
	st.refs--
	if st.refs == 0 {
		st.cancel()
		st.cancel = nil
		st.idleSince = e.now()
	}
}

func (e *Engine) interval(kind core.Kind) time.Duration {
	if d := e.cfg.Interval(kind); d > 0 {
		return d
	}
	return 30 * time.Second
}

func (e *Engine) worker(ctx context.Context, key core.Key, gen uint64, interval time.Duration, refresh <-chan struct{}) {
	defer e.wg.Done()

	// Fetch immediately on mount so the view fills without waiting a
	// full interval.
	e.maybeFetch(ctx, key, gen)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.maybeFetch(ctx, key, gen)
		case <-refresh:
			e.maybeFetch(ctx, key, gen)
		}
	}
}

// maybeFetch starts a fetch unless one is already in flight for the
// key. Ticks that land mid-fetch are skipped, not queued.
func (e *Engine) maybeFetch(ctx context.Context, key core.Key, gen uint64) bool {
	e.mu.Lock()
	st, ok := e.keys[key]
	if !ok || st.gen != gen || st.refs == 0 || st.inflight {
		e.mu.Unlock()
		return false
	}
	st.inflight = true
	e.mu.Unlock()

	seq := e.seq.Add(1)
	e.wg.Add(1)
	go e.fetch(ctx, key, gen, seq)
	return true
}

func (e *Engine) fetch(ctx context.Context, key core.Key, gen, seq uint64) {
	defer e.wg.Done()

	e.store.MarkLoading(key)
	e.metrics.InFlightInc()
	start := e.now()
	value, err := feed.Fetch(ctx, e.source, key)
	duration := e.now().Sub(start).Seconds()
	e.metrics.InFlightDec()

	e.apply(key, gen, seq, value, err, duration)
}

// apply writes a fetch result into the mirror, unless the subscription
// ended or a newer fetch already landed.
func (e *Engine) apply(key core.Key, gen, seq uint64, value any, err error, duration float64) {
	e.mu.Lock()
	st, ok := e.keys[key]
	if !ok || st.gen != gen {
		e.mu.Unlock()
		e.logger.Debug("discarding completion for ended subscription",
			zap.String("key", key.String()))
		return
	}
	st.inflight = false
	if st.refs == 0 {
		e.mu.Unlock()
		e.logger.Debug("discarding completion after unsubscribe",
			zap.String("key", key.String()))
		return
	}
	if err != nil && errors.Is(err, context.Canceled) {
		e.mu.Unlock()
		return
	}
	if seq <= st.applied {
		e.mu.Unlock()
		e.logger.Debug("discarding out-of-order completion",
			zap.String("key", key.String()),
			zap.Uint64("seq", seq))
		return
	}
	st.applied = seq
	e.mu.Unlock()

	switch {
	case err == nil:
		e.store.SetReady(key, value)
		e.metrics.RecordFetch(string(key.Kind), e.source.Name(), "ready", duration)

	case e.fallback != nil:
		prev := e.store.Get(key)
		synthetic := feed.Generate(e.fallback, key, prev.Value)
		if synthetic != nil {
			e.store.SetDegraded(key, synthetic, err)
			e.logger.Warn("fetch failed, serving synthetic data",
				zap.String("key", key.String()),
				zap.Error(err))
			e.metrics.RecordFetch(string(key.Kind), e.source.Name(), "degraded", duration)
			break
		}
		fallthrough

	default:
		e.store.SetFailed(key, err)
		e.logger.Error("fetch failed",
			zap.String("key", key.String()),
			zap.Error(err))
		e.metrics.RecordFetch(string(key.Kind), e.source.Name(), "failed", duration)
	}

	e.updateGauges()
}

func (e *Engine) updateGauges() {
	if e.metrics == nil {
		return
	}
	snap := e.store.Snapshot()
	degraded := 0
	for _, en := range snap {
		if en.Status == mirror.StatusDegraded {
			degraded++
		}
	}
	e.metrics.SetMirrorEntries(len(snap))
	e.metrics.SetDegradedEntries(degraded)
}

func (e *Engine) janitor(interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.sweep()
		}
	}
}

// sweep evicts mirror entries whose last subscriber left more than
// retain_for ago. Keeping them that long lets a remount reuse warm
// data instead of flashing an empty view.
func (e *Engine) sweep() {
	now := e.now()

	e.mu.Lock()
	var expired []core.Key
	for key, st := range e.keys {
		if st.refs == 0 && !st.inflight && !st.idleSince.IsZero() &&
			now.Sub(st.idleSince) >= e.cfg.RetainFor {
			delete(e.keys, key)
			expired = append(expired, key)
		}
	}
	e.mu.Unlock()

	for _, key := range expired {
		e.store.Evict(key)
		e.metrics.RecordEviction()
		e.logger.Debug("evicted expired entry", zap.String("key", key.String()))
	}
	if len(expired) > 0 {
		e.updateGauges()
	}
}

// sweepInterval picks a janitor cadence proportional to the retention
// window, clamped to the 10ms..1m range.
func sweepInterval(retain time.Duration) time.Duration {
	d := retain / 2
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	if d > time.Minute {
		d = time.Minute
	}
	return d
}
