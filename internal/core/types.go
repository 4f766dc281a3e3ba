package core

import "time"

// Kind identifies a category of remote resource mirrored locally.
type Kind string

const (
	KindMarketData Kind = "market_data"
	KindSignals    Kind = "signals"
	KindCandles    Kind = "candles"
	KindWatchlist  Kind = "watchlist"
)

// Timeframe selects the candle resolution for chart data.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// DefaultTimeframe is used when a chart subscription does not name one.
const DefaultTimeframe = Timeframe1d

// IsValid reports whether the timeframe is one of the supported resolutions.
func (tf Timeframe) IsValid() bool {
	switch tf {
	case Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe1d, Timeframe1w:
		return true
	}
	return false
}

// Key identifies one mirrored resource: a kind plus symbol, and for
// candle resources the timeframe. A timeframe change is a key change.
type Key struct {
	Kind      Kind
	Symbol    string
	Timeframe Timeframe
}

// String renders the key for logs and metric labels.
func (k Key) String() string {
	s := string(k.Kind)
	if k.Symbol != "" {
		s += ":" + k.Symbol
	}
	if k.Timeframe != "" {
		s += ":" + string(k.Timeframe)
	}
	return s
}

// MarketDataKey returns the quote resource key for a symbol.
func MarketDataKey(symbol string) Key {
	return Key{Kind: KindMarketData, Symbol: symbol}
}

// SignalsKey returns the trading-signal resource key for a symbol.
func SignalsKey(symbol string) Key {
	return Key{Kind: KindSignals, Symbol: symbol}
}

// CandlesKey returns the chart resource key for a symbol at a timeframe.
func CandlesKey(symbol string, tf Timeframe) Key {
	if tf == "" {
		tf = DefaultTimeframe
	}
	return Key{Kind: KindCandles, Symbol: symbol, Timeframe: tf}
}

// WatchlistKey returns the key under which the watchlist mirror lives.
func WatchlistKey() Key {
	return Key{Kind: KindWatchlist}
}

// Quote represents a real-time price quote
type Quote struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	Open          float64
	High          float64
	Low           float64
	Volume        int64
	Time          time.Time
	Source        string
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// SignalType represents a trading signal recommendation
type SignalType string

const (
	SignalBuy   SignalType = "BUY"
	SignalSell  SignalType = "SELL"
	SignalHold  SignalType = "HOLD"
	SignalWatch SignalType = "WATCH"
)

// IsValid reports whether the signal type is one of the known recommendations.
func (s SignalType) IsValid() bool {
	switch s {
	case SignalBuy, SignalSell, SignalHold, SignalWatch:
		return true
	}
	return false
}

// Signal represents a trading signal for a symbol
type Signal struct {
	Symbol      string
	Type        SignalType
	Confidence  float64 // 0..1
	Price       float64 // Price at signal generation
	Reason      string
	TargetPrice float64 // optional, zero when absent
	StopLoss    float64 // optional, zero when absent
	GeneratedAt time.Time
	Source      string
}

// IsValid checks the signal has an addressable symbol and sane confidence.
func (s Signal) IsValid() bool {
	return s.Symbol != "" && s.Type.IsValid() && s.Confidence >= 0 && s.Confidence <= 1
}

// Candle represents one OHLC bar of a chart series
type Candle struct {
	Symbol    string
	Timeframe Timeframe
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Time      time.Time
}

// IsValid checks OHLC consistency: High bounds the bar from above, Low from below.
func (c Candle) IsValid() bool {
	if c.Symbol == "" || c.Time.IsZero() {
		return false
	}
	if c.High < c.Open || c.High < c.Close || c.High < c.Low {
		return false
	}
	if c.Low > c.Open || c.Low > c.Close {
		return false
	}
	return true
}

// Instrument describes a tradable listing returned by instrument search.
type Instrument struct {
	Symbol   string
	Name     string
	Sector   string
	Segment  string
	ISIN     string
	LotSize  int
	Exchange string
}

// IsValid checks the instrument carries an identifier.
func (i Instrument) IsValid() bool {
	return i.Symbol != ""
}

// Health reports the backend's self-described condition.
type Health struct {
	Status      string
	Database    string
	Instruments int
	Latency     time.Duration
	CheckedAt   time.Time
}

// OK reports whether the backend considers itself healthy.
func (h Health) OK() bool {
	return h.Status == "ok" || h.Status == "healthy"
}
