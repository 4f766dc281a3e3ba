// internal/feed/mock/mock.go
package mock

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/feed"
)

const (
	// maxStepPct bounds a single walk step.
	maxStepPct = 0.01
	// maxDriftPct bounds total drift away from the base price.
	maxDriftPct = 0.05
	// signalCount is the fixed number of synthetic signals per symbol.
	signalCount = 3
)

// candleCounts and candleSteps size the synthetic chart series per timeframe.
var candleCounts = map[core.Timeframe]int{
	core.Timeframe1m:  120,
	core.Timeframe5m:  78,
	core.Timeframe15m: 26,
	core.Timeframe1h:  42,
	core.Timeframe1d:  90,
	core.Timeframe1w:  52,
}

var candleSteps = map[core.Timeframe]time.Duration{
	core.Timeframe1m:  time.Minute,
	core.Timeframe5m:  5 * time.Minute,
	core.Timeframe15m: 15 * time.Minute,
	core.Timeframe1h:  time.Hour,
	core.Timeframe1d:  24 * time.Hour,
	core.Timeframe1w:  7 * 24 * time.Hour,
}

// Feed generates schema-shaped synthetic market data. It serves as the
// offline data source in mock mode and as the fallback generator when
// the live backend fails. Every call succeeds.
type Feed struct {
	mu   sync.Mutex
	last map[string]float64 // walk memory per symbol
	rng  *rand.Rand
	now  func() time.Time
}

// New creates a synthetic feed.
func New() *Feed {
	return &Feed{
		last: make(map[string]float64),
		rng:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d61726b65746465)),
		now:  time.Now,
	}
}

func (f *Feed) Name() string {
	return "mock"
}

// FallbackQuote walks the price one bounded step from the previous
// value, or from the base price on first call, and clamps the result
// to a few percent around the base.
func (f *Feed) FallbackQuote(symbol string, prev *core.Quote) core.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := basePrice(symbol)
	ref := base
	if prev != nil && prev.Price > 0 {
		ref = prev.Price
	} else if last, ok := f.last[symbol]; ok {
		ref = last
	}

	price := ref * (1 + (f.rng.Float64()*2-1)*maxStepPct)
	price = math.Min(price, base*(1+maxDriftPct))
	price = math.Max(price, base*(1-maxDriftPct))
	price = round2(price)
	f.last[symbol] = price

	open := round2(base * (1 + (f.rng.Float64()*2-1)*0.004))
	high := round2(math.Max(open, price) * (1 + f.rng.Float64()*0.004))
	low := round2(math.Min(open, price) * (1 - f.rng.Float64()*0.004))
	change := round2(price - base)

	return core.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: round2(change / base * 100),
		Open:          open,
		High:          high,
		Low:           low,
		Volume:        50_000 + f.rng.Int64N(5_000_000),
		Time:          f.now(),
		Source:        f.Name(),
	}
}

// FallbackSignals produces a fixed-size batch of synthetic signals.
func (f *Feed) FallbackSignals(symbol string) []core.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()

	price := f.last[symbol]
	if price == 0 {
		price = basePrice(symbol)
	}

	signals := make([]core.Signal, 0, signalCount)
	for i := 0; i < signalCount; i++ {
		st := signalTypes[f.rng.IntN(len(signalTypes))]
		reasons := signalReasons[st]
		sig := core.Signal{
			Symbol:      symbol,
			Type:        st,
			Confidence:  round2(0.55 + f.rng.Float64()*0.4),
			Price:       price,
			Reason:      reasons[f.rng.IntN(len(reasons))],
			GeneratedAt: f.now(),
			Source:      f.Name(),
		}
		switch st {
		case core.SignalBuy:
			sig.TargetPrice = round2(price * 1.05)
			sig.StopLoss = round2(price * 0.97)
		case core.SignalSell:
			sig.TargetPrice = round2(price * 0.95)
			sig.StopLoss = round2(price * 1.03)
		}
		signals = append(signals, sig)
	}
	return signals
}

// FallbackCandles produces an ordered OHLC series ending at the
// current walk position.
func (f *Feed) FallbackCandles(symbol string, tf core.Timeframe) []core.Candle {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tf == "" || !tf.IsValid() {
		tf = core.DefaultTimeframe
	}
	count := candleCounts[tf]
	step := candleSteps[tf]
	base := basePrice(symbol)

	candles := make([]core.Candle, 0, count)
	end := f.now().Truncate(step)
	prevClose := round2(base * (1 + (f.rng.Float64()*2-1)*0.02))

	for i := 0; i < count; i++ {
		open := prevClose
		closePrice := open * (1 + (f.rng.Float64()*2-1)*0.008)
		closePrice = math.Min(closePrice, base*1.08)
		closePrice = math.Max(closePrice, base*0.92)
		closePrice = round2(closePrice)

		high := round2(math.Max(open, closePrice) * (1 + f.rng.Float64()*0.003))
		low := round2(math.Min(open, closePrice) * (1 - f.rng.Float64()*0.003))

		candles = append(candles, core.Candle{
			Symbol:    symbol,
			Timeframe: tf,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    50_000 + f.rng.Int64N(2_000_000),
			Time:      end.Add(-time.Duration(count-1-i) * step),
		})
		prevClose = closePrice
	}
	return candles
}

// Quote implements feed.Source. It never fails.
func (f *Feed) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	q := f.FallbackQuote(symbol, nil)
	return &q, nil
}

// Signals implements feed.Source. It never fails.
func (f *Feed) Signals(ctx context.Context, symbols []string) ([]core.Signal, error) {
	var out []core.Signal
	for _, s := range symbols {
		out = append(out, f.FallbackSignals(s)...)
	}
	return out, nil
}

// Candles implements feed.Source. It never fails.
func (f *Feed) Candles(ctx context.Context, symbol string, tf core.Timeframe) ([]core.Candle, error) {
	return f.FallbackCandles(symbol, tf), nil
}

// Search matches the query case-insensitively against symbol, name and
// sector of the synthetic universe.
func (f *Feed) Search(ctx context.Context, query string, limit int) ([]core.Instrument, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var out []core.Instrument
	for _, inst := range instruments() {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(inst.Symbol), query) ||
			strings.Contains(strings.ToLower(inst.Name), query) ||
			strings.Contains(strings.ToLower(inst.Sector), query) {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Health implements feed.Source. The synthetic backend is always up.
func (f *Feed) Health(ctx context.Context) (*core.Health, error) {
	return &core.Health{
		Status:      "ok",
		Database:    "in-memory",
		Instruments: len(universe),
		CheckedAt:   f.now(),
	}, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

var (
	_ feed.Source   = (*Feed)(nil)
	_ feed.Fallback = (*Feed)(nil)
)
