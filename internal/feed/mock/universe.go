// internal/feed/mock/universe.go
package mock

import (
	"hash/fnv"
	"strings"

	"github.com/marketdeck/marketdeck/internal/core"
)

// universe is the synthetic NSE listing table. Base prices anchor the
// random walk so a symbol always renders near a stable, plausible level.
var universe = []struct {
	Symbol string
	Name   string
	Sector string
	ISIN   string
	Base   float64
}{
	{"RELIANCE.NS", "Reliance Industries", "Energy", "INE002A01018", 2500},
	{"TCS.NS", "Tata Consultancy Services", "IT", "INE467B01029", 3500},
	{"INFY.NS", "Infosys", "IT", "INE009A01021", 1450},
	{"HDFCBANK.NS", "HDFC Bank", "Banking", "INE040A01034", 1650},
	{"ICICIBANK.NS", "ICICI Bank", "Banking", "INE090A01021", 950},
	{"SBIN.NS", "State Bank of India", "Banking", "INE062A01020", 620},
	{"AXISBANK.NS", "Axis Bank", "Banking", "INE238A01034", 1150},
	{"BHARTIARTL.NS", "Bharti Airtel", "Telecom", "INE397D01024", 1100},
	{"ITC.NS", "ITC", "FMCG", "INE154A01025", 450},
	{"HINDUNILVR.NS", "Hindustan Unilever", "FMCG", "INE030A01027", 2400},
	{"LT.NS", "Larsen & Toubro", "Infrastructure", "INE018A01030", 3300},
	{"WIPRO.NS", "Wipro", "IT", "INE075A01022", 480},
	{"HCLTECH.NS", "HCL Technologies", "IT", "INE860A01027", 1500},
	{"ASIANPAINT.NS", "Asian Paints", "Consumer Goods", "INE021A01026", 2900},
	{"MARUTI.NS", "Maruti Suzuki", "Automobile", "INE585B01010", 11200},
	{"TATAMOTORS.NS", "Tata Motors", "Automobile", "INE155A01022", 780},
	{"TATASTEEL.NS", "Tata Steel", "Metals", "INE081A01020", 145},
	{"BAJAJ-AUTO.NS", "Bajaj Auto", "Automobile", "INE917I01010", 9100},
	{"M&M.NS", "Mahindra & Mahindra", "Automobile", "INE101A01026", 2750},
	{"SUNPHARMA.NS", "Sun Pharmaceutical", "Pharma", "INE044A01036", 1720},
}

// normalizeSymbol maps RELIANCE, reliance and RELIANCE.NS to one table key.
func normalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.TrimSuffix(s, ".NS")
}

// basePrice returns the anchor price for a symbol. Unknown symbols get
// a stable pseudo-price derived from the symbol itself, so repeated
// calls agree with each other.
func basePrice(symbol string) float64 {
	key := normalizeSymbol(symbol)
	for _, u := range universe {
		if normalizeSymbol(u.Symbol) == key {
			return u.Base
		}
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return 100 + float64(h.Sum32()%390000)/100
}

// instruments materializes the universe as search results.
func instruments() []core.Instrument {
	out := make([]core.Instrument, 0, len(universe))
	for _, u := range universe {
		out = append(out, core.Instrument{
			Symbol:   u.Symbol,
			Name:     u.Name,
			Sector:   u.Sector,
			Segment:  "EQ",
			ISIN:     u.ISIN,
			LotSize:  1,
			Exchange: "NSE",
		})
	}
	return out
}

// signalReasons provides canned rationale per recommendation.
var signalReasons = map[core.SignalType][]string{
	core.SignalBuy:   {"RSI oversold bounce", "20-day momentum breakout", "volume surge above average"},
	core.SignalSell:  {"rejection at range high", "bearish MACD crossover", "distribution volume pattern"},
	core.SignalHold:  {"consolidating in range", "awaiting earnings", "mixed momentum"},
	core.SignalWatch: {"approaching support", "sector rotation candidate", "building base above 50-day average"},
}

var signalTypes = []core.SignalType{core.SignalBuy, core.SignalSell, core.SignalHold, core.SignalWatch}
