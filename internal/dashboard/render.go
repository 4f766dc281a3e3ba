// internal/dashboard/render.go
//
// Package dashboard turns mirrored market state into the fixed-width
// text blocks shown by the watch and movers commands. Rendering always
// carries the entry's state marker so synthetic or stale values are
// never mistaken for live ones.
package dashboard

import (
	"fmt"
	"io"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/mirror"
)

// State markers shown in the rightmost column.
const (
	MarkerMock     = "MOCK"
	MarkerDegraded = "DEGRADED"
	MarkerStale    = "STALE"
	MarkerFailed   = "FAILED"
	MarkerLoading  = "LOADING"
	MarkerIdle     = "-"
)

// EntryMarker names the trust level of a mirror entry's value. Live
// data renders blank; everything else is labeled.
func EntryMarker(e mirror.Entry) string {
	switch e.Status {
	case mirror.StatusReady:
		if valueSource(e.Value) == "mock" {
			return MarkerMock
		}
		return ""
	case mirror.StatusLoading:
		return MarkerLoading
	case mirror.StatusDegraded:
		return MarkerDegraded
	case mirror.StatusFailed:
		if e.HasValue() {
			return MarkerStale
		}
		return MarkerFailed
	default:
		return MarkerIdle
	}
}

func valueSource(v any) string {
	switch val := v.(type) {
	case core.Quote:
		return val.Source
	case []core.Signal:
		if len(val) > 0 {
			return val[0].Source
		}
	}
	return ""
}

// Row is one line of the quotes table.
type Row struct {
	Symbol string
	Quote  core.Quote
	Marker string
	Age    time.Duration
}

// QuoteRows extracts the market-data entries from a mirror snapshot,
// preserving snapshot order.
func QuoteRows(entries []mirror.Entry, now time.Time) []Row {
	var rows []Row
	for _, e := range entries {
		if e.Key.Kind != core.KindMarketData {
			continue
		}
		row := Row{
			Symbol: e.Key.Symbol,
			Marker: EntryMarker(e),
			Age:    -1,
		}
		if q, ok := e.Value.(core.Quote); ok {
			row.Quote = q
		}
		if !e.LastUpdated.IsZero() {
			row.Age = now.Sub(e.LastUpdated)
		}
		rows = append(rows, row)
	}
	return rows
}

// Quotes returns every quote value present in a snapshot, whatever its
// status. Used to feed the movers aggregation.
func Quotes(entries []mirror.Entry) []core.Quote {
	var quotes []core.Quote
	for _, e := range entries {
		if q, ok := e.Value.(core.Quote); ok {
			quotes = append(quotes, q)
		}
	}
	return quotes
}

// RenderHeader prints the dashboard banner line.
func RenderHeader(w io.Writer, now time.Time, symbols int, streaming bool) {
	mode := "poll"
	if streaming {
		mode = "stream+poll"
	}
	fmt.Fprintf(w, "MarketDeck %s    (%d symbols, %s)\n",
		now.Format("2006-01-02 15:04:05"), symbols, mode)
}

// RenderQuotes prints the quotes table.
func RenderQuotes(w io.Writer, rows []Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "  watchlist empty; add symbols with: marketdeck watchlist add <symbol>")
		return
	}
	fmt.Fprintf(w, "  %-14s %10s %9s %9s %10s %10s %8s %5s  %s\n",
		"SYMBOL", "PRICE", "CHANGE", "CHG%", "HIGH", "LOW", "VOLUME", "AGE", "STATE")
	for _, r := range rows {
		if r.Quote.Symbol == "" {
			fmt.Fprintf(w, "  %-14s %10s %9s %9s %10s %10s %8s %5s  %s\n",
				r.Symbol, "-", "-", "-", "-", "-", "-", "-", r.Marker)
			continue
		}
		fmt.Fprintf(w, "  %-14s %10s %9s %9s %10s %10s %8s %5s  %s\n",
			r.Symbol,
			FormatPrice(r.Quote.Price),
			FormatChange(r.Quote.Change),
			FormatPercent(r.Quote.ChangePercent),
			FormatPrice(r.Quote.High),
			FormatPrice(r.Quote.Low),
			FormatVolume(r.Quote.Volume),
			FormatAge(r.Age),
			r.Marker)
	}
}

// RenderMovers prints the gainers and losers blocks.
func RenderMovers(w io.Writer, m Movers) {
	fmt.Fprintln(w, "  GAINERS")
	if len(m.Gainers) == 0 {
		fmt.Fprintln(w, "    none")
	}
	for _, q := range m.Gainers {
		fmt.Fprintf(w, "    %-14s %9s %10s\n", q.Symbol, FormatPercent(q.ChangePercent), FormatPrice(q.Price))
	}
	fmt.Fprintln(w, "  LOSERS")
	if len(m.Losers) == 0 {
		fmt.Fprintln(w, "    none")
	}
	for _, q := range m.Losers {
		fmt.Fprintf(w, "    %-14s %9s %10s\n", q.Symbol, FormatPercent(q.ChangePercent), FormatPrice(q.Price))
	}
}

// RenderSignals prints one line per trading signal, newest first kept
// to the caller's ordering.
func RenderSignals(w io.Writer, signals []core.Signal, marker string) {
	if len(signals) == 0 {
		fmt.Fprintln(w, "    none")
		return
	}
	for _, s := range signals {
		line := fmt.Sprintf("    %-14s %-5s conf %s at %s",
			s.Symbol, s.Type, FormatConfidence(s.Confidence), FormatPrice(s.Price))
		if s.TargetPrice > 0 {
			line += fmt.Sprintf(" target %s", FormatPrice(s.TargetPrice))
		}
		if s.StopLoss > 0 {
			line += fmt.Sprintf(" stop %s", FormatPrice(s.StopLoss))
		}
		if s.Reason != "" {
			line += "  " + s.Reason
		}
		if marker != "" {
			line += "  [" + marker + "]"
		}
		fmt.Fprintln(w, line)
	}
}

// RenderHealth prints the backend health line.
func RenderHealth(w io.Writer, h core.Health) {
	state := "DOWN"
	if h.OK() {
		state = "UP"
	}
	fmt.Fprintf(w, "backend %s  status=%s database=%s instruments=%d latency=%s\n",
		state, h.Status, h.Database, h.Instruments, h.Latency)
}

// RenderSection prints a titled separator between dashboard blocks.
func RenderSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n========== %s ==========\n", title)
}
