// internal/feed/mock/mock_test.go
package mock

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
)

func TestBasePrice_KnownSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   float64
	}{
		{"RELIANCE", 2500},
		{"RELIANCE.NS", 2500},
		{"reliance.ns", 2500},
		{"TCS.NS", 3500},
		{"M&M.NS", 2750},
	}
	for _, tt := range tests {
		if got := basePrice(tt.symbol); got != tt.want {
			t.Errorf("basePrice(%s) = %f, want %f", tt.symbol, got, tt.want)
		}
	}
}

func TestBasePrice_UnknownSymbolStable(t *testing.T) {
	a := basePrice("ZYDUSWELL.NS")
	b := basePrice("ZYDUSWELL.NS")
	if a != b {
		t.Errorf("unknown symbol should price consistently: %f vs %f", a, b)
	}
	if a < 100 || a > 4000 {
		t.Errorf("derived price out of plausible range: %f", a)
	}
}

func TestFallbackQuote_NearBase(t *testing.T) {
	f := New()

	for i := 0; i < 50; i++ {
		q := f.FallbackQuote("RELIANCE.NS", nil)
		if q.Price < 2500*0.95 || q.Price > 2500*1.05 {
			t.Fatalf("iteration %d: price %f drifted outside 2500 ±5%%", i, q.Price)
		}
	}
}

func TestFallbackQuote_WalksFromPrevious(t *testing.T) {
	f := New()
	prev := &core.Quote{Symbol: "RELIANCE.NS", Price: 2480}

	q := f.FallbackQuote("RELIANCE.NS", prev)
	if math.Abs(q.Price-2480) > 2480*maxStepPct+0.01 {
		t.Errorf("single step too large: %f from 2480", q.Price)
	}
}

func TestFallbackQuote_Shape(t *testing.T) {
	f := New()
	q := f.FallbackQuote("TCS.NS", nil)

	if !q.IsValid() {
		t.Fatalf("expected valid quote: %+v", q)
	}
	if q.High < math.Max(q.Open, q.Price) {
		t.Errorf("high %f below max(open, price)", q.High)
	}
	if q.Low > math.Min(q.Open, q.Price) {
		t.Errorf("low %f above min(open, price)", q.Low)
	}
	if q.Volume <= 0 {
		t.Error("expected positive volume")
	}
	if q.Time.IsZero() {
		t.Error("expected timestamp")
	}
	if q.Source != "mock" {
		t.Errorf("expected source mock, got %s", q.Source)
	}
}

func TestFallbackSignals(t *testing.T) {
	f := New()
	signals := f.FallbackSignals("INFY.NS")

	if len(signals) != signalCount {
		t.Fatalf("expected %d signals, got %d", signalCount, len(signals))
	}
	for _, sig := range signals {
		if !sig.IsValid() {
			t.Errorf("invalid signal: %+v", sig)
		}
		if sig.Confidence < 0.55 || sig.Confidence > 0.95 {
			t.Errorf("confidence %f outside [0.55, 0.95]", sig.Confidence)
		}
		if sig.Reason == "" {
			t.Error("expected a reason")
		}
		switch sig.Type {
		case core.SignalBuy:
			if sig.TargetPrice <= sig.Price || sig.StopLoss >= sig.Price {
				t.Errorf("BUY levels inverted: %+v", sig)
			}
		case core.SignalSell:
			if sig.TargetPrice >= sig.Price || sig.StopLoss <= sig.Price {
				t.Errorf("SELL levels inverted: %+v", sig)
			}
		}
	}
}

func TestFallbackCandles(t *testing.T) {
	f := New()
	candles := f.FallbackCandles("RELIANCE.NS", core.Timeframe1d)

	if len(candles) != candleCounts[core.Timeframe1d] {
		t.Fatalf("expected %d candles, got %d", candleCounts[core.Timeframe1d], len(candles))
	}

	for i, c := range candles {
		if !c.IsValid() {
			t.Errorf("candle %d invalid: %+v", i, c)
		}
		if c.Close < 2500*0.92-0.01 || c.Close > 2500*1.08+0.01 {
			t.Errorf("candle %d close %f outside band", i, c.Close)
		}
		if i > 0 {
			if !candles[i-1].Time.Before(c.Time) {
				t.Errorf("candle %d not after its predecessor", i)
			}
			if c.Open != candles[i-1].Close {
				t.Errorf("candle %d open %f does not continue close %f", i, c.Open, candles[i-1].Close)
			}
		}
	}
}

func TestFallbackCandles_DefaultsBadTimeframe(t *testing.T) {
	f := New()
	candles := f.FallbackCandles("RELIANCE.NS", "4h")
	if len(candles) != candleCounts[core.DefaultTimeframe] {
		t.Errorf("expected default timeframe sizing, got %d candles", len(candles))
	}
}

func TestQuote_NeverFails(t *testing.T) {
	f := New()
	q, err := f.Quote(context.Background(), "ANYTHINGATALL")
	if err != nil {
		t.Fatalf("mock quote should never fail: %v", err)
	}
	if q.Price <= 0 {
		t.Errorf("expected positive price, got %f", q.Price)
	}
}

func TestSignals_PerSymbol(t *testing.T) {
	f := New()
	signals, err := f.Signals(context.Background(), []string{"RELIANCE.NS", "TCS.NS"})
	if err != nil {
		t.Fatalf("Signals: %v", err)
	}
	if len(signals) != 2*signalCount {
		t.Errorf("expected %d signals, got %d", 2*signalCount, len(signals))
	}
}

func TestSearch(t *testing.T) {
	f := New()
	ctx := context.Background()

	tata, err := f.Search(ctx, "tata", 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(tata) < 3 {
		t.Errorf("expected tata to match several listings, got %d", len(tata))
	}

	banking, _ := f.Search(ctx, "banking", 2)
	if len(banking) != 2 {
		t.Errorf("expected limit to cap results, got %d", len(banking))
	}

	none, _ := f.Search(ctx, "", 20)
	if none != nil {
		t.Errorf("empty query should return nothing, got %v", none)
	}
}

func TestHealth_AlwaysUp(t *testing.T) {
	f := New()
	h, err := f.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !h.OK() {
		t.Errorf("mock backend should report healthy, got %s", h.Status)
	}
	if h.Instruments != len(universe) {
		t.Errorf("expected %d instruments, got %d", len(universe), h.Instruments)
	}
}

func TestFeed_InjectedClock(t *testing.T) {
	f := New()
	fixed := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	q := f.FallbackQuote("RELIANCE.NS", nil)
	if !q.Time.Equal(fixed) {
		t.Errorf("expected injected clock time, got %s", q.Time)
	}
}
