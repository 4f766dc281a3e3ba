// internal/dashboard/movers_test.go
package dashboard

import (
	"testing"

	"github.com/marketdeck/marketdeck/internal/core"
)

func TestTopMovers_SplitsAndSorts(t *testing.T) {
	quotes := []core.Quote{
		{Symbol: "INFY.NS", ChangePercent: 0.5},
		{Symbol: "WIPRO.NS", ChangePercent: -1.8},
		{Symbol: "RELIANCE.NS", ChangePercent: 2.1},
		{Symbol: "HDFC.NS", ChangePercent: 0},
		{Symbol: "TCS.NS", ChangePercent: -0.2},
	}

	m := TopMovers(quotes, 10)

	if len(m.Gainers) != 2 {
		t.Fatalf("expected 2 gainers, got %d", len(m.Gainers))
	}
	if m.Gainers[0].Symbol != "RELIANCE.NS" || m.Gainers[1].Symbol != "INFY.NS" {
		t.Errorf("gainers out of order: %v, %v", m.Gainers[0].Symbol, m.Gainers[1].Symbol)
	}

	if len(m.Losers) != 2 {
		t.Fatalf("expected 2 losers, got %d", len(m.Losers))
	}
	if m.Losers[0].Symbol != "WIPRO.NS" || m.Losers[1].Symbol != "TCS.NS" {
		t.Errorf("losers out of order: %v, %v", m.Losers[0].Symbol, m.Losers[1].Symbol)
	}
}

func TestTopMovers_UnchangedExcluded(t *testing.T) {
	m := TopMovers([]core.Quote{{Symbol: "FLAT.NS", ChangePercent: 0}}, 5)
	if len(m.Gainers) != 0 || len(m.Losers) != 0 {
		t.Errorf("flat symbol must not appear as a mover: %+v", m)
	}
}

func TestTopMovers_CapsEachSide(t *testing.T) {
	quotes := []core.Quote{
		{Symbol: "A", ChangePercent: 1},
		{Symbol: "B", ChangePercent: 2},
		{Symbol: "C", ChangePercent: 3},
		{Symbol: "D", ChangePercent: -1},
		{Symbol: "E", ChangePercent: -2},
		{Symbol: "F", ChangePercent: -3},
	}

	m := TopMovers(quotes, 2)

	if len(m.Gainers) != 2 || len(m.Losers) != 2 {
		t.Fatalf("expected 2 per side, got %d gainers %d losers", len(m.Gainers), len(m.Losers))
	}
	if m.Gainers[0].Symbol != "C" {
		t.Errorf("expected C as top gainer, got %s", m.Gainers[0].Symbol)
	}
	if m.Losers[0].Symbol != "F" {
		t.Errorf("expected F as top loser, got %s", m.Losers[0].Symbol)
	}
}

func TestTopMovers_TieBreaksBySymbol(t *testing.T) {
	quotes := []core.Quote{
		{Symbol: "ZEE.NS", ChangePercent: 1.5},
		{Symbol: "ACC.NS", ChangePercent: 1.5},
	}

	m := TopMovers(quotes, 10)

	if m.Gainers[0].Symbol != "ACC.NS" {
		t.Errorf("equal movers must sort by symbol, got %s first", m.Gainers[0].Symbol)
	}
}

func TestTopMovers_Empty(t *testing.T) {
	m := TopMovers(nil, 5)
	if len(m.Gainers) != 0 || len(m.Losers) != 0 {
		t.Errorf("expected empty movers, got %+v", m)
	}
}
