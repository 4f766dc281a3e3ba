package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/marketdeck/marketdeck/internal/core"
)

// validSymbol matches NSE-style symbols like RELIANCE, TCS.NS, M&M, BAJAJ-AUTO
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9&-]{0,14}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.WrapError(core.ErrSymbolInvalid, fmt.Errorf("symbol cannot be empty"))
	}
	if len(symbol) > 20 {
		return core.WrapError(core.ErrSymbolInvalid, fmt.Errorf("symbol too long: %s", symbol))
	}
	if !validSymbol.MatchString(symbol) {
		return core.WrapError(core.ErrSymbolInvalid, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	return nil
}

// Options configures the REST client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	MaxRPS  float64 // 0 disables throttling
	Logger  *zap.Logger
}

// Client implements Source against the dashboard backend's REST API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates a REST client for the backend at opts.BaseURL.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var limiter *rate.Limiter
	if opts.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), int(math.Ceil(opts.MaxRPS)))
	}
	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log,
	}
}

func (c *Client) Name() string {
	return "live"
}

// get performs one backend call and maps each failure mode to its
// error kind: transport failures to ErrNetwork, failure statuses to
// ErrHTTP with the code, malformed bodies to ErrDecode.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return core.WrapError(core.ErrNetwork, err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return core.WrapError(core.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.HTTPError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrDecode, err)
	}
	return nil
}

// Quote fetches the real-time quote for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	var dto quoteResponse
	if err := c.get(ctx, "/market-data/"+url.PathEscape(symbol), nil, &dto); err != nil {
		return nil, fmt.Errorf("fetching quote %s: %w", symbol, err)
	}

	q := dto.toQuote()
	q.Source = c.Name()
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	return &q, nil
}

// Signals fetches trading signals for one or more symbols.
func (c *Client) Signals(ctx context.Context, symbols []string) ([]core.Signal, error) {
	for _, s := range symbols {
		if err := validateSymbol(s); err != nil {
			return nil, err
		}
	}

	query := url.Values{}
	if len(symbols) > 0 {
		query.Set("symbols", strings.Join(symbols, ","))
	}

	var dtos []signalResponse
	if err := c.get(ctx, "/trading-signals", query, &dtos); err != nil {
		return nil, fmt.Errorf("fetching signals: %w", err)
	}

	signals := make([]core.Signal, 0, len(dtos))
	for _, dto := range dtos {
		sig := dto.toSignal()
		sig.Source = c.Name()
		signals = append(signals, sig)
	}
	return signals, nil
}

// Candles fetches the chart series for a symbol at a timeframe.
func (c *Client) Candles(ctx context.Context, symbol string, tf core.Timeframe) ([]core.Candle, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	if tf == "" {
		tf = core.DefaultTimeframe
	}
	if !tf.IsValid() {
		return nil, core.WrapError(core.ErrTimeframeInvalid, fmt.Errorf("timeframe %q", tf))
	}

	query := url.Values{}
	query.Set("timeframe", string(tf))

	var dtos []candleResponse
	if err := c.get(ctx, "/chart-data/"+url.PathEscape(symbol), query, &dtos); err != nil {
		return nil, fmt.Errorf("fetching candles %s: %w", symbol, err)
	}

	candles := make([]core.Candle, 0, len(dtos))
	for _, dto := range dtos {
		candle := dto.toCandle()
		candle.Symbol = symbol
		candle.Timeframe = tf
		candles = append(candles, candle)
	}
	return candles, nil
}

// Search looks up instruments matching the query. An empty query
// returns no results without a backend call.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]core.Instrument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var dtos []instrumentResponse
	if err := c.get(ctx, "/instruments/search", params, &dtos); err != nil {
		return nil, fmt.Errorf("searching instruments: %w", err)
	}

	instruments := make([]core.Instrument, 0, len(dtos))
	for _, dto := range dtos {
		instruments = append(instruments, dto.toInstrument())
	}
	return instruments, nil
}

// Health probes the backend and reports round-trip latency.
func (c *Client) Health(ctx context.Context) (*core.Health, error) {
	var dto healthResponse
	start := time.Now()
	if err := c.get(ctx, "/health", nil, &dto); err != nil {
		return nil, fmt.Errorf("checking health: %w", err)
	}

	return &core.Health{
		Status:      dto.Status,
		Database:    dto.Database,
		Instruments: dto.Instruments,
		Latency:     time.Since(start),
		CheckedAt:   time.Now(),
	}, nil
}

// parseTimestamp accepts the timestamp formats the backend emits:
// RFC3339 with or without zone information. Unparseable values
// produce a zero time, which callers replace with local time.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Backend API response types
type quoteResponse struct {
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

func (r quoteResponse) toQuote() core.Quote {
	t := parseTimestamp(r.Timestamp)
	if t.IsZero() {
		t = time.Now()
	}
	return core.Quote{
		Symbol:        r.Symbol,
		Price:         r.Price,
		Change:        r.Change,
		ChangePercent: r.ChangePercent,
		Open:          r.Open,
		High:          r.High,
		Low:           r.Low,
		Volume:        r.Volume,
		Time:          t,
	}
}

type signalResponse struct {
	Symbol      string  `json:"symbol"`
	SignalType  string  `json:"signalType"`
	Confidence  float64 `json:"confidence"`
	Price       float64 `json:"price"`
	Reason      string  `json:"reason"`
	Timestamp   string  `json:"timestamp"`
	TargetPrice float64 `json:"targetPrice"`
	StopLoss    float64 `json:"stopLoss"`
}

func (r signalResponse) toSignal() core.Signal {
	t := parseTimestamp(r.Timestamp)
	if t.IsZero() {
		t = time.Now()
	}
	return core.Signal{
		Symbol:      r.Symbol,
		Type:        core.SignalType(r.SignalType),
		Confidence:  r.Confidence,
		Price:       r.Price,
		Reason:      r.Reason,
		TargetPrice: r.TargetPrice,
		StopLoss:    r.StopLoss,
		GeneratedAt: t,
	}
}

type candleResponse struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func (r candleResponse) toCandle() core.Candle {
	return core.Candle{
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
		Time:   parseTimestamp(r.Time),
	}
}

type instrumentResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Segment  string `json:"segment"`
	ISIN     string `json:"isin"`
	LotSize  int    `json:"lotSize"`
	Exchange string `json:"exchange"`
}

func (r instrumentResponse) toInstrument() core.Instrument {
	return core.Instrument{
		Symbol:   r.Symbol,
		Name:     r.Name,
		Sector:   r.Sector,
		Segment:  r.Segment,
		ISIN:     r.ISIN,
		LotSize:  r.LotSize,
		Exchange: r.Exchange,
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Instruments int    `json:"instruments"`
}
