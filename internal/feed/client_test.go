package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
)

func TestClient_ImplementsSource(t *testing.T) {
	var _ Source = (*Client)(nil)
}

func TestClient_Name(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://example.com/api"})
	if c.Name() != "live" {
		t.Errorf("expected 'live', got '%s'", c.Name())
	}
}

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol  string
		wantErr bool
	}{
		{"RELIANCE", false},
		{"TCS.NS", false},
		{"M&M", false},
		{"BAJAJ-AUTO", false},
		{"infy.ns", false},
		{"", true},
		{"NIFTY 50", true},
		{"../market-data", true},
		{"VERYLONGSYMBOLNAMEABCDEF", true},
	}

	for _, tt := range tests {
		err := validateSymbol(tt.symbol)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, core.ErrSymbolInvalid) {
			t.Errorf("validateSymbol(%q) should wrap ErrSymbolInvalid, got %v", tt.symbol, err)
		}
	}
}

func TestClient_Quote(t *testing.T) {
	var gotPath string
	var gotRequestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbol": "RELIANCE.NS",
			"price": 2512.4,
			"change": 12.4,
			"changePercent": 0.49,
			"volume": 4521000,
			"high": 2530.0,
			"low": 2488.1,
			"open": 2500.0,
			"timestamp": "2026-08-21T10:15:00+05:30"
		}`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	q, err := c.Quote(context.Background(), "RELIANCE.NS")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if gotPath != "/market-data/RELIANCE.NS" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-ID header")
	}
	if q.Price != 2512.4 {
		t.Errorf("expected price 2512.4, got %f", q.Price)
	}
	if q.ChangePercent != 0.49 {
		t.Errorf("expected changePercent 0.49, got %f", q.ChangePercent)
	}
	if q.Source != "live" {
		t.Errorf("expected source live, got %s", q.Source)
	}
	if q.Time.IsZero() {
		t.Error("expected parsed timestamp")
	}
}

func TestClient_Quote_InvalidSymbol(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://example.com/api"})
	_, err := c.Quote(context.Background(), "NIFTY 50")
	if !errors.Is(err, core.ErrSymbolInvalid) {
		t.Errorf("expected ErrSymbolInvalid, got %v", err)
	}
}

func TestClient_Quote_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	_, err := c.Quote(context.Background(), "RELIANCE.NS")
	if !errors.Is(err, core.ErrHTTP) {
		t.Fatalf("expected ErrHTTP, got %v", err)
	}
	if got := core.HTTPStatus(err); got != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", got)
	}
}

func TestClient_Quote_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol": `))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	_, err := c.Quote(context.Background(), "RELIANCE.NS")
	if !errors.Is(err, core.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestClient_Quote_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	_, err := c.Quote(context.Background(), "RELIANCE.NS")
	if !errors.Is(err, core.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_Signals(t *testing.T) {
	var gotSymbols string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbols = r.URL.Query().Get("symbols")
		w.Write([]byte(`[
			{"symbol": "TCS.NS", "signalType": "BUY", "confidence": 0.82, "price": 3480.0,
			 "reason": "momentum breakout", "timestamp": "2026-08-21T10:00:00Z",
			 "targetPrice": 3600.0, "stopLoss": 3410.0},
			{"symbol": "INFY.NS", "signalType": "HOLD", "confidence": 0.55, "price": 1450.0,
			 "reason": "range bound", "timestamp": "2026-08-21T10:00:00Z"}
		]`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	signals, err := c.Signals(context.Background(), []string{"TCS.NS", "INFY.NS"})
	if err != nil {
		t.Fatalf("Signals: %v", err)
	}

	if gotSymbols != "TCS.NS,INFY.NS" {
		t.Errorf("unexpected symbols param: %s", gotSymbols)
	}
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Type != core.SignalBuy {
		t.Errorf("expected BUY, got %s", signals[0].Type)
	}
	if signals[0].TargetPrice != 3600.0 {
		t.Errorf("expected targetPrice 3600, got %f", signals[0].TargetPrice)
	}
	if signals[1].StopLoss != 0 {
		t.Errorf("absent stopLoss should be zero, got %f", signals[1].StopLoss)
	}
}

func TestClient_Candles(t *testing.T) {
	var gotTimeframe string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTimeframe = r.URL.Query().Get("timeframe")
		w.Write([]byte(`[
			{"time": "2026-08-20T00:00:00Z", "open": 2490, "high": 2515, "low": 2480, "close": 2500},
			{"time": "2026-08-21T00:00:00Z", "open": 2500, "high": 2530, "low": 2488, "close": 2512}
		]`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	candles, err := c.Candles(context.Background(), "RELIANCE.NS", core.Timeframe1d)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}

	if gotTimeframe != "1d" {
		t.Errorf("unexpected timeframe param: %s", gotTimeframe)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Symbol != "RELIANCE.NS" {
		t.Errorf("client should stamp symbol, got %s", candles[0].Symbol)
	}
	if candles[0].Timeframe != core.Timeframe1d {
		t.Errorf("client should stamp timeframe, got %s", candles[0].Timeframe)
	}
	if !candles[1].IsValid() {
		t.Error("expected OHLC-consistent candle")
	}
}

func TestClient_Candles_InvalidTimeframe(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://example.com/api"})
	_, err := c.Candles(context.Background(), "RELIANCE.NS", "4h")
	if !errors.Is(err, core.ErrTimeframeInvalid) {
		t.Errorf("expected ErrTimeframeInvalid, got %v", err)
	}
}

func TestClient_Search(t *testing.T) {
	var gotQuery, gotLimit string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`[
			{"symbol": "TCS.NS", "name": "Tata Consultancy Services", "sector": "IT",
			 "segment": "EQ", "isin": "INE467B01029", "lotSize": 1, "exchange": "NSE"}
		]`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	instruments, err := c.Search(context.Background(), "tata", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotQuery != "tata" || gotLimit != "5" {
		t.Errorf("unexpected params: query=%s limit=%s", gotQuery, gotLimit)
	}
	if len(instruments) != 1 {
		t.Fatalf("expected 1 instrument, got %d", len(instruments))
	}
	if instruments[0].ISIN != "INE467B01029" {
		t.Errorf("unexpected ISIN: %s", instruments[0].ISIN)
	}
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	instruments, err := c.Search(context.Background(), "  ", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if instruments != nil {
		t.Errorf("expected no results, got %v", instruments)
	}
	if called {
		t.Error("empty query should not reach the backend")
	}
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "database": "connected", "instruments": 2147}`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}

	if !h.OK() {
		t.Errorf("expected healthy, got status %s", h.Status)
	}
	if h.Instruments != 2147 {
		t.Errorf("expected 2147 instruments, got %d", h.Instruments)
	}
	if h.Latency <= 0 {
		t.Error("expected positive latency")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"rfc3339", "2026-08-21T10:15:00Z", false},
		{"rfc3339 offset", "2026-08-21T10:15:00+05:30", false},
		{"naive", "2026-08-21T10:15:00", false},
		{"space separated", "2026-08-21 10:15:00", false},
		{"garbage", "yesterday", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) zero = %v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}

func TestClient_Throttle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	// Burst of 1 at 1 rps: the second call must wait roughly a second.
	c := NewClient(Options{BaseURL: server.URL, MaxRPS: 1})

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := c.Health(context.Background()); err != nil {
			t.Fatalf("Health: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("expected throttled second call, elapsed %s", elapsed)
	}
}
