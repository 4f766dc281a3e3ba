// internal/stream/frame.go
package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
)

// Frame types exchanged over the streaming endpoint.
const (
	FrameMarketData    = "market_data"
	FrameTradingSignal = "trading_signal"
	FrameSubscribe     = "subscribe"
	FramePing          = "ping"
	FramePong          = "pong"
)

// Frame is the envelope for every streamed message. Server frames
// carry Data; the client's subscribe frame carries Symbols instead.
type Frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Symbols   []string        `json:"symbols,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// quotePayload mirrors the REST market-data shape.
type quotePayload struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	Timestamp     string  `json:"timestamp"`
}

// signalPayload mirrors the REST trading-signal shape.
type signalPayload struct {
	Symbol      string  `json:"symbol"`
	SignalType  string  `json:"signalType"`
	Confidence  float64 `json:"confidence"`
	Price       float64 `json:"price"`
	Reason      string  `json:"reason"`
	TargetPrice float64 `json:"targetPrice"`
	StopLoss    float64 `json:"stopLoss"`
	Timestamp   string  `json:"timestamp"`
}

// Quote decodes a market_data frame.
func (f Frame) Quote() (core.Quote, error) {
	if f.Type != FrameMarketData {
		return core.Quote{}, fmt.Errorf("frame type %q is not %s", f.Type, FrameMarketData)
	}
	var p quotePayload
	if err := json.Unmarshal(f.Data, &p); err != nil {
		return core.Quote{}, core.WrapError(core.ErrDecode, err)
	}

	t := parseWireTime(p.Timestamp)
	if t.IsZero() {
		t = parseWireTime(f.Timestamp)
	}
	if t.IsZero() {
		t = time.Now()
	}
	return core.Quote{
		Symbol:        p.Symbol,
		Price:         p.Price,
		Change:        p.Change,
		ChangePercent: p.ChangePercent,
		Open:          p.Open,
		High:          p.High,
		Low:           p.Low,
		Volume:        p.Volume,
		Time:          t,
		Source:        "stream",
	}, nil
}

// Signal decodes a trading_signal frame.
func (f Frame) Signal() (core.Signal, error) {
	if f.Type != FrameTradingSignal {
		return core.Signal{}, fmt.Errorf("frame type %q is not %s", f.Type, FrameTradingSignal)
	}
	var p signalPayload
	if err := json.Unmarshal(f.Data, &p); err != nil {
		return core.Signal{}, core.WrapError(core.ErrDecode, err)
	}

	t := parseWireTime(p.Timestamp)
	if t.IsZero() {
		t = parseWireTime(f.Timestamp)
	}
	if t.IsZero() {
		t = time.Now()
	}
	return core.Signal{
		Symbol:      p.Symbol,
		Type:        core.SignalType(p.SignalType),
		Confidence:  p.Confidence,
		Price:       p.Price,
		Reason:      p.Reason,
		TargetPrice: p.TargetPrice,
		StopLoss:    p.StopLoss,
		GeneratedAt: t,
		Source:      "stream",
	}, nil
}

// parseWireTime accepts the timestamp formats the backend emits.
func parseWireTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
