// internal/stream/client.go

// Package stream maintains the WebSocket push channel: one connection,
// a subscribe frame naming the symbols of interest, JSON ping/pong
// keepalives, and exponential-backoff reconnects when the link drops.
package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/config"
	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/metrics"
)

const writeTimeout = 5 * time.Second

// Handler receives every data frame read off the stream.
type Handler func(Frame)

// Client is a reconnecting WebSocket consumer.
type Client struct {
	url     string
	cfg     config.StreamConfig
	handler Handler
	logger  *zap.Logger
	metrics *metrics.Registry

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	symbols []string
}

// NewClient creates a stream client for the given WebSocket URL.
// handler runs on the read loop goroutine and must not block.
func NewClient(url string, cfg config.StreamConfig, handler Handler, logger *zap.Logger, reg *metrics.Registry) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:     url,
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		metrics: reg,
	}
}

// UpdateSymbols replaces the subscription set. When connected, the new
// set is pushed to the server immediately; otherwise it is sent on the
// next connect.
func (c *Client) UpdateSymbols(symbols []string) {
	c.mu.Lock()
	c.symbols = append([]string(nil), symbols...)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		if err := c.writeJSON(conn, Frame{Type: FrameSubscribe, Symbols: symbols}); err != nil {
			c.logger.Warn("stream subscribe update failed", zap.Error(err))
		}
	}
}

// IsConnected reports whether a connection is currently up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run connects and keeps reconnecting until ctx is canceled. Each
// drop waits out the backoff schedule; a healthy session resets it.
func (c *Client) Run(ctx context.Context) error {
	backoff := &Backoff{
		Min:    c.cfg.MinBackoff,
		Max:    c.cfg.MaxBackoff,
		Factor: c.cfg.BackoffFactor,
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := c.session(ctx, backoff)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := backoff.Next()
		c.logger.Warn("stream disconnected, reconnecting",
			zap.Error(err),
			zap.Duration("retry_in", delay),
			zap.Int("attempt", backoff.Attempt()))
		c.metrics.RecordStreamReconnect()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one connection to completion and returns why it ended.
func (c *Client) session(ctx context.Context, backoff *Backoff) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return core.WrapError(core.ErrNetwork, err)
	}

	// Unblock ReadMessage when ctx is canceled.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	defer close(stop)
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	symbols := append([]string(nil), c.symbols...)
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	c.logger.Info("stream connected", zap.String("url", c.url))

	if len(symbols) > 0 {
		if err := c.writeJSON(conn, Frame{Type: FrameSubscribe, Symbols: symbols}); err != nil {
			return core.WrapError(core.ErrNetwork, err)
		}
	}

	stopPing := c.startPingLoop(ctx, conn)
	defer stopPing()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return core.WrapError(core.ErrStreamClosed, err)
		}
		backoff.Reset()
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg []byte) {
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		c.logger.Debug("dropping malformed frame", zap.Error(err))
		return
	}

	switch f.Type {
	case FramePong:
		// Keepalive answered.
	case FrameMarketData, FrameTradingSignal:
		c.metrics.RecordStreamFrame(f.Type)
		if c.handler != nil {
			c.handler(f)
		}
	default:
		c.logger.Debug("ignoring unknown frame type", zap.String("type", f.Type))
	}
}

// startPingLoop sends application-level ping frames so half-dead
// connections surface as write errors instead of silent stalls.
func (c *Client) startPingLoop(ctx context.Context, conn *websocket.Conn) context.CancelFunc {
	interval := c.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	pingCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				if err := c.writeJSON(conn, Frame{Type: FramePing}); err != nil {
					c.logger.Warn("stream ping failed", zap.Error(err))
					conn.Close()
					cancel()
					return
				}
			}
		}
	}()
	return cancel
}

func (c *Client) writeJSON(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
