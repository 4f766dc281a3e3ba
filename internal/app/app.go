// internal/app/app.go
//
// Package app wires the feed, mirror, refresh engine, watchlist and
// optional stream into one process and drives the terminal dashboard.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/analysis"
	"github.com/marketdeck/marketdeck/internal/config"
	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/dashboard"
	"github.com/marketdeck/marketdeck/internal/feed"
	"github.com/marketdeck/marketdeck/internal/feed/mock"
	"github.com/marketdeck/marketdeck/internal/llm/factory"
	"github.com/marketdeck/marketdeck/internal/metrics"
	"github.com/marketdeck/marketdeck/internal/mirror"
	"github.com/marketdeck/marketdeck/internal/refresh"
	"github.com/marketdeck/marketdeck/internal/storage/document"
	"github.com/marketdeck/marketdeck/internal/stream"
	"github.com/marketdeck/marketdeck/internal/watchlist"
)

const (
	snapshotPrefix = "snapshots/"
	moversTopN     = 5

	// Streamed signals accumulate per symbol; keep the tail only.
	maxStreamedSignals = 20
)

// App is the composition root shared by every command.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry

	source    feed.Source
	fallback  feed.Fallback
	mockFeed  *mock.Feed
	docs      document.Store
	store     *mirror.Store
	engine    *refresh.Engine
	watchlist *watchlist.Store
	stream    *stream.Client

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	releases map[core.Key]func()
}

// New builds the application from configuration. The feed mode decides
// the source: "live" polls the backend with no synthetic fallback,
// "mock" runs entirely offline, and "auto" polls the backend but fills
// gaps with synthetic values.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := metrics.NewRegistry()

	docs, err := newDocumentStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	mockFeed := mock.New()
	var source feed.Source
	var fallback feed.Fallback
	switch cfg.Feed.Mode {
	case "mock":
		source = mockFeed
		fallback = mockFeed
	case "live":
		source = feed.NewClient(feed.Options{
			BaseURL: cfg.Feed.BaseURL,
			Timeout: cfg.Feed.Timeout,
			MaxRPS:  cfg.Feed.MaxRPS,
			Logger:  logger,
		})
	case "auto", "":
		source = feed.NewClient(feed.Options{
			BaseURL: cfg.Feed.BaseURL,
			Timeout: cfg.Feed.Timeout,
			MaxRPS:  cfg.Feed.MaxRPS,
			Logger:  logger,
		})
		fallback = mockFeed
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown feed mode %q", cfg.Feed.Mode))
	}

	store := mirror.NewStore(logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		metrics:   reg,
		source:    source,
		fallback:  fallback,
		mockFeed:  mockFeed,
		docs:      docs,
		store:     store,
		engine:    refresh.New(cfg.Refresh, source, fallback, store, logger, reg),
		watchlist: watchlist.New(docs, cfg.Watchlist.Document, logger, reg),
		releases:  make(map[core.Key]func()),
	}

	if cfg.Stream.Enabled {
		a.stream = stream.NewClient(cfg.Feed.WSURL, cfg.Stream, a.applyFrame, logger, reg)
	}

	a.watchlist.OnChange(a.onWatchlistChange)

	logger.Info("marketdeck ready",
		zap.String("source", source.Name()),
		zap.String("mode", cfg.Feed.Mode),
		zap.Int("watchlist", a.watchlist.Len()),
		zap.Bool("stream", a.stream != nil))

	return a, nil
}

func newDocumentStore(cfg config.StorageConfig) (document.Store, error) {
	switch cfg.Type {
	case "s3":
		return document.NewS3(document.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return document.NewLocalFS(cfg.Path)
	}
}

// Mirror exposes the local state store.
func (a *App) Mirror() *mirror.Store {
	return a.store
}

// Watchlist exposes the persisted watchlist.
func (a *App) Watchlist() *watchlist.Store {
	return a.watchlist
}

// SourceName reports which data source is active.
func (a *App) SourceName() string {
	return a.source.Name()
}

// Close releases the refresh engine and its workers.
func (a *App) Close() {
	a.engine.Close()
}

// FetchOnce resolves one resource immediately, outside the scheduler,
// applying the same ready/degraded/failed semantics. Used by the
// one-shot commands.
func (a *App) FetchOnce(ctx context.Context, key core.Key) mirror.Entry {
	value, err := feed.Fetch(ctx, a.source, key)
	if err == nil {
		return a.store.SetReady(key, value)
	}
	if a.fallback != nil {
		prev := a.store.Get(key).Value
		if synthetic := feed.Generate(a.fallback, key, prev); synthetic != nil {
			a.logger.Warn("fetch failed, serving synthetic data",
				zap.String("key", key.String()),
				zap.Error(err))
			return a.store.SetDegraded(key, synthetic, err)
		}
	}
	a.logger.Error("fetch failed",
		zap.String("key", key.String()),
		zap.Error(err))
	return a.store.SetFailed(key, err)
}

// RefreshAll fetches market data and signals once for every watchlist
// symbol, populating the mirror for snapshot and movers commands.
func (a *App) RefreshAll(ctx context.Context) {
	for _, item := range a.watchlist.Items() {
		if ctx.Err() != nil {
			return
		}
		a.FetchOnce(ctx, core.MarketDataKey(item.Symbol))
		a.FetchOnce(ctx, core.SignalsKey(item.Symbol))
	}
}

// SearchInstruments queries the backend, falling back to the synthetic
// instrument universe when it is unreachable. The second return value
// reports whether results are offline fallbacks.
func (a *App) SearchInstruments(ctx context.Context, query string, limit int) ([]core.Instrument, bool, error) {
	results, err := a.source.Search(ctx, query, limit)
	if err == nil {
		return results, false, nil
	}
	if a.fallback != nil {
		offline, merr := a.mockFeed.Search(ctx, query, limit)
		if merr == nil {
			a.logger.Warn("search failed, serving offline universe", zap.Error(err))
			return offline, true, nil
		}
	}
	return nil, false, err
}

// Health asks the backend how it is doing.
func (a *App) Health(ctx context.Context) (*core.Health, error) {
	return a.source.Health(ctx)
}

// Analyze gathers everything known about a symbol and asks the
// configured LLM provider for a written note.
func (a *App) Analyze(ctx context.Context, symbol string) (*analysis.Result, error) {
	if a.cfg.LLM.Provider == "" {
		return nil, core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("llm provider not configured"))
	}
	provider, err := factory.New(a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	analyst := analysis.NewAnalyst(provider, a.logger)

	req := analysis.Request{Symbol: symbol}
	if e := a.FetchOnce(ctx, core.MarketDataKey(symbol)); e.HasValue() {
		if q, ok := e.Value.(core.Quote); ok {
			req.Quote = &q
		}
		if e.Status == mirror.StatusDegraded {
			req.Degraded = append(req.Degraded, core.KindMarketData)
		}
	}
	if e := a.FetchOnce(ctx, core.SignalsKey(symbol)); e.HasValue() {
		if sigs, ok := e.Value.([]core.Signal); ok {
			req.Signals = sigs
		}
		if e.Status == mirror.StatusDegraded {
			req.Degraded = append(req.Degraded, core.KindSignals)
		}
	}
	if e := a.FetchOnce(ctx, core.CandlesKey(symbol, core.DefaultTimeframe)); e.HasValue() {
		if candles, ok := e.Value.([]core.Candle); ok {
			req.Candles = candles
		}
		if e.Status == mirror.StatusDegraded {
			req.Degraded = append(req.Degraded, core.KindCandles)
		}
	}

	return analyst.Analyze(ctx, req)
}

// snapshotDocument is the persisted form of one mirror snapshot.
type snapshotDocument struct {
	SchemaVersion int             `json:"schema_version"`
	TakenAt       time.Time       `json:"taken_at"`
	Source        string          `json:"source"`
	Entries       []snapshotEntry `json:"entries"`
}

type snapshotEntry struct {
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Error     string    `json:"error,omitempty"`
	Value     any       `json:"value,omitempty"`
}

// SaveSnapshot persists the current mirror state as a JSON document
// and returns the document name.
func (a *App) SaveSnapshot(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = time.Now().UTC().Format("20060102-150405")
	}

	doc := snapshotDocument{
		SchemaVersion: 1,
		TakenAt:       time.Now().UTC(),
		Source:        a.source.Name(),
	}
	for _, e := range a.store.Snapshot() {
		se := snapshotEntry{
			Key:    e.Key.String(),
			Status: string(e.Status),
			Value:  e.Value,
		}
		if !e.LastUpdated.IsZero() {
			se.UpdatedAt = e.LastUpdated
		}
		if e.Err != nil {
			se.Error = e.Err.Error()
		}
		doc.Entries = append(doc.Entries, se)
	}

	full := snapshotPrefix + name + ".json"
	if err := document.SaveJSON(ctx, a.docs, full, doc); err != nil {
		return "", err
	}
	a.logger.Info("snapshot saved",
		zap.String("document", full),
		zap.Int("entries", len(doc.Entries)))
	return full, nil
}

// ListSnapshots returns the names of all saved snapshots.
func (a *App) ListSnapshots(ctx context.Context) ([]string, error) {
	names, err := a.docs.List(ctx, snapshotPrefix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, core.WrapError(core.ErrStorage, err)
	}
	return names, nil
}

// Watch runs the live dashboard: it subscribes every watchlist symbol,
// starts the stream when enabled, and re-renders the mirror to w until
// ctx is canceled.
func (a *App) Watch(ctx context.Context, w io.Writer, interval time.Duration) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("watch already running")
	}
	a.running = true
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	items := a.watchlist.Items()
	a.store.SetReady(core.WatchlistKey(), items)
	a.reconcile(items)

	if a.stream != nil {
		a.stream.UpdateSymbols(symbolsOf(items))
		go a.stream.Run(ctx)
	}

	var metricsSrv *metrics.Server
	if a.cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(a.cfg.Metrics.Addr, a.cfg.Metrics.Path, a.metrics, a.logger)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	if interval <= 0 {
		interval = 2 * time.Second
	}

	a.logger.Info("watch started",
		zap.Int("symbols", len(items)),
		zap.Duration("render_interval", interval))

	a.render(w)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.releaseAll()
			if metricsSrv != nil {
				sctx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
				metricsSrv.Shutdown(sctx)
				scancel()
			}
			a.logger.Info("watch stopped")
			return ctx.Err()
		case <-ticker.C:
			a.render(w)
		}
	}
}

// Stop cancels a running watch loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) render(w io.Writer) {
	now := time.Now()
	snapshot := a.store.Snapshot()

	fmt.Fprint(w, "\033[H\033[2J")
	dashboard.RenderHeader(w, now, a.watchlist.Len(), a.stream != nil)

	dashboard.RenderSection(w, "QUOTES")
	dashboard.RenderQuotes(w, dashboard.QuoteRows(snapshot, now))

	dashboard.RenderSection(w, "MOVERS")
	dashboard.RenderMovers(w, dashboard.TopMovers(dashboard.Quotes(snapshot), moversTopN))

	dashboard.RenderSection(w, "SIGNALS")
	rendered := false
	for _, e := range snapshot {
		if e.Key.Kind != core.KindSignals {
			continue
		}
		sigs, ok := e.Value.([]core.Signal)
		if !ok || len(sigs) == 0 {
			continue
		}
		dashboard.RenderSignals(w, sigs, dashboard.EntryMarker(e))
		rendered = true
	}
	if !rendered {
		fmt.Fprintln(w, "    none")
	}
}

// onWatchlistChange mirrors watchlist mutations and retargets the
// scheduler and stream subscriptions.
func (a *App) onWatchlistChange(items []watchlist.Entry) {
	a.store.SetReady(core.WatchlistKey(), items)
	a.reconcile(items)
	if a.stream != nil {
		a.stream.UpdateSymbols(symbolsOf(items))
	}
}

// reconcile aligns engine subscriptions with the watchlist. Only a
// running watch holds subscriptions; one-shot commands fetch directly.
func (a *App) reconcile(items []watchlist.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}

	want := make(map[core.Key]bool, len(items)*2)
	for _, item := range items {
		want[core.MarketDataKey(item.Symbol)] = true
		want[core.SignalsKey(item.Symbol)] = true
	}

	for key, release := range a.releases {
		if !want[key] {
			release()
			delete(a.releases, key)
		}
	}
	for key := range want {
		if _, ok := a.releases[key]; !ok {
			a.releases[key] = a.engine.Subscribe(key)
		}
	}
}

func (a *App) releaseAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, release := range a.releases {
		release()
		delete(a.releases, key)
	}
}

func (a *App) subscribed(key core.Key) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.releases[key]
	return ok
}

// applyFrame folds one stream frame into the mirror. Frames for
// symbols no longer subscribed are dropped so unsubscribe stays final.
func (a *App) applyFrame(f stream.Frame) {
	switch f.Type {
	case stream.FrameMarketData:
		q, err := f.Quote()
		if err != nil {
			a.logger.Debug("dropping stream quote", zap.Error(err))
			return
		}
		key := core.MarketDataKey(q.Symbol)
		if !a.subscribed(key) {
			return
		}
		a.store.SetReady(key, q)
	case stream.FrameTradingSignal:
		s, err := f.Signal()
		if err != nil {
			a.logger.Debug("dropping stream signal", zap.Error(err))
			return
		}
		key := core.SignalsKey(s.Symbol)
		if !a.subscribed(key) {
			return
		}
		now := time.Now()
		a.store.Update(key, func(e *mirror.Entry) {
			sigs, _ := e.Value.([]core.Signal)
			sigs = append(sigs, s)
			if len(sigs) > maxStreamedSignals {
				sigs = sigs[len(sigs)-maxStreamedSignals:]
			}
			e.Value = sigs
			e.Status = mirror.StatusReady
			e.LastUpdated = now
			e.Err = nil
		})
	}
}

func symbolsOf(items []watchlist.Entry) []string {
	symbols := make([]string, len(items))
	for i, item := range items {
		symbols[i] = item.Symbol
	}
	return symbols
}
