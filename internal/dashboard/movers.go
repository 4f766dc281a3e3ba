// internal/dashboard/movers.go
package dashboard

import (
	"sort"

	"github.com/marketdeck/marketdeck/internal/core"
)

// Movers holds the day's biggest risers and fallers.
type Movers struct {
	Gainers []core.Quote
	Losers  []core.Quote
}

// TopMovers splits quotes into gainers and losers by change percent and
// keeps the top n of each. Unchanged symbols appear on neither side.
func TopMovers(quotes []core.Quote, n int) Movers {
	var m Movers
	for _, q := range quotes {
		switch {
		case q.ChangePercent > 0:
			m.Gainers = append(m.Gainers, q)
		case q.ChangePercent < 0:
			m.Losers = append(m.Losers, q)
		}
	}

	sort.Slice(m.Gainers, func(i, j int) bool {
		if m.Gainers[i].ChangePercent != m.Gainers[j].ChangePercent {
			return m.Gainers[i].ChangePercent > m.Gainers[j].ChangePercent
		}
		return m.Gainers[i].Symbol < m.Gainers[j].Symbol
	})
	sort.Slice(m.Losers, func(i, j int) bool {
		if m.Losers[i].ChangePercent != m.Losers[j].ChangePercent {
			return m.Losers[i].ChangePercent < m.Losers[j].ChangePercent
		}
		return m.Losers[i].Symbol < m.Losers[j].Symbol
	})

	if n > 0 {
		if len(m.Gainers) > n {
			m.Gainers = m.Gainers[:n]
		}
		if len(m.Losers) > n {
			m.Losers = m.Losers[:n]
		}
	}
	return m
}
