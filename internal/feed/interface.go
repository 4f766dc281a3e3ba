package feed

import (
	"context"
	"fmt"

	"github.com/marketdeck/marketdeck/internal/core"
)

// Source defines the interface for dashboard data providers
type Source interface {
	// Metadata
	Name() string

	// Data fetching
	Quote(ctx context.Context, symbol string) (*core.Quote, error)
	Signals(ctx context.Context, symbols []string) ([]core.Signal, error)
	Candles(ctx context.Context, symbol string, tf core.Timeframe) ([]core.Candle, error)
	Search(ctx context.Context, query string, limit int) ([]core.Instrument, error)
	Health(ctx context.Context) (*core.Health, error)
}

// Fallback produces synthetic substitutes when a Source call fails.
// Implementations never fail and never block on the network.
type Fallback interface {
	FallbackQuote(symbol string, prev *core.Quote) core.Quote
	FallbackSignals(symbol string) []core.Signal
	FallbackCandles(symbol string, tf core.Timeframe) []core.Candle
}

// Fetch resolves a resource key against a source. Quote values are
// returned by value so store entries never alias source-owned memory.
func Fetch(ctx context.Context, s Source, key core.Key) (any, error) {
	switch key.Kind {
	case core.KindMarketData:
		q, err := s.Quote(ctx, key.Symbol)
		if err != nil {
			return nil, err
		}
		return *q, nil
	case core.KindSignals:
		sigs, err := s.Signals(ctx, []string{key.Symbol})
		if err != nil {
			return nil, err
		}
		return sigs, nil
	case core.KindCandles:
		candles, err := s.Candles(ctx, key.Symbol, key.Timeframe)
		if err != nil {
			return nil, err
		}
		return candles, nil
	default:
		return nil, fmt.Errorf("kind %q is not fetchable", key.Kind)
	}
}

// Generate resolves a resource key against a fallback generator,
// seeding it with the previous value when one exists.
func Generate(f Fallback, key core.Key, prev any) any {
	switch key.Kind {
	case core.KindMarketData:
		var p *core.Quote
		if q, ok := prev.(core.Quote); ok {
			p = &q
		}
		return f.FallbackQuote(key.Symbol, p)
	case core.KindSignals:
		return f.FallbackSignals(key.Symbol)
	case core.KindCandles:
		return f.FallbackCandles(key.Symbol, key.Timeframe)
	default:
		return nil
	}
}
