package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
//
// Methods tolerate a nil receiver so one-shot commands can run without
// a metrics server and still share the instrumented code paths.
type Registry struct {
	*prometheus.Registry

	// Fetch pipeline metrics
	fetchesTotal    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchesInFlight prometheus.Gauge

	// Mirror metrics
	mirrorEntries   prometheus.Gauge
	degradedEntries prometheus.Gauge
	evictionsTotal  prometheus.Counter

	// Watchlist and stream metrics
	watchlistSymbols prometheus.Gauge
	streamFrames     *prometheus.CounterVec
	streamReconnects prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdeck_fetches_total",
				Help: "Total number of resource fetches by kind, data source and outcome",
			},
			[]string{"kind", "source", "status"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketdeck_fetch_duration_seconds",
				Help:    "Resource fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		fetchesInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketdeck_fetches_in_flight",
				Help: "Number of fetches currently in flight",
			},
		),
	}

	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.fetchesInFlight)

	// Mirror metrics
	r.mirrorEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketdeck_mirror_entries",
			Help: "Number of entries held in the local mirror",
		},
	)
	r.degradedEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketdeck_degraded_entries",
			Help: "Number of mirror entries currently serving synthetic data",
		},
	)
	r.evictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketdeck_evictions_total",
			Help: "Total number of mirror entries evicted after retention expiry",
		},
	)

	// Watchlist and stream metrics
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketdeck_watchlist_symbols",
			Help: "Number of symbols in the watchlist",
		},
	)
	r.streamFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketdeck_stream_frames_total",
			Help: "Total number of streaming frames received by type",
		},
		[]string{"type"},
	)
	r.streamReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketdeck_stream_reconnects_total",
			Help: "Total number of streaming reconnect attempts",
		},
	)

	reg.MustRegister(r.mirrorEntries)
	reg.MustRegister(r.degradedEntries)
	reg.MustRegister(r.evictionsTotal)
	reg.MustRegister(r.watchlistSymbols)
	reg.MustRegister(r.streamFrames)
	reg.MustRegister(r.streamReconnects)

	return r
}

// RecordFetch records a completed fetch with its outcome.
func (r *Registry) RecordFetch(kind, source, status string, duration float64) {
	if r == nil {
		return
	}
	r.fetchesTotal.WithLabelValues(kind, source, status).Inc()
	r.fetchDuration.WithLabelValues(kind).Observe(duration)
}

// InFlightInc increments in-flight fetches.
func (r *Registry) InFlightInc() {
	if r == nil {
		return
	}
	r.fetchesInFlight.Inc()
}

// InFlightDec decrements in-flight fetches.
func (r *Registry) InFlightDec() {
	if r == nil {
		return
	}
	r.fetchesInFlight.Dec()
}

// SetMirrorEntries sets the mirror entry count.
func (r *Registry) SetMirrorEntries(count int) {
	if r == nil {
		return
	}
	r.mirrorEntries.Set(float64(count))
}

// SetDegradedEntries sets the number of entries on synthetic data.
func (r *Registry) SetDegradedEntries(count int) {
	if r == nil {
		return
	}
	r.degradedEntries.Set(float64(count))
}

// RecordEviction records a retention eviction.
func (r *Registry) RecordEviction() {
	if r == nil {
		return
	}
	r.evictionsTotal.Inc()
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	if r == nil {
		return
	}
	r.watchlistSymbols.Set(float64(size))
}

// RecordStreamFrame records a received streaming frame.
func (r *Registry) RecordStreamFrame(frameType string) {
	if r == nil {
		return
	}
	r.streamFrames.WithLabelValues(frameType).Inc()
}

// RecordStreamReconnect records a streaming reconnect attempt.
func (r *Registry) RecordStreamReconnect() {
	if r == nil {
		return
	}
	r.streamReconnects.Inc()
}
