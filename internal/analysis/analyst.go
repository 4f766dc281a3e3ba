// internal/analysis/analyst.go
//
// Package analysis turns the mirrored state of one symbol into a short
// LLM-written dashboard note. The caller assembles the inputs from the
// mirror; the analyst only builds the prompt and parses the reply.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/llm"
)

// Analyst produces written market analysis through an LLM provider.
type Analyst struct {
	llm    llm.Provider
	logger *zap.Logger
}

// NewAnalyst creates an analyst backed by the given provider.
func NewAnalyst(provider llm.Provider, logger *zap.Logger) *Analyst {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyst{
		llm:    provider,
		logger: logger,
	}
}

// Request carries everything known about one symbol. Quote, Signals and
// Candles may each be absent; Degraded names the resource kinds whose
// values are synthetic fallbacks rather than live data.
type Request struct {
	Symbol   string
	Quote    *core.Quote
	Signals  []core.Signal
	Candles  []core.Candle
	Degraded []core.Kind
}

// Result is the parsed analyst output.
type Result struct {
	Summary    string   `json:"summary"`
	Stance     string   `json:"stance"`
	Confidence float64  `json:"confidence"`
	Risks      []string `json:"risks"`
}

// Analyze asks the provider for a write-up of the given symbol.
func (a *Analyst) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.Symbol == "" {
		return nil, core.WrapError(core.ErrSymbolInvalid,
			fmt.Errorf("analysis needs a symbol"))
	}
	if req.Quote == nil && len(req.Signals) == 0 && len(req.Candles) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("nothing known about %s yet", req.Symbol))
	}

	prompt := a.buildPrompt(req)

	resp, err := a.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: analystSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1024,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("analysis complete",
		zap.String("symbol", req.Symbol),
		zap.String("provider", a.llm.Name()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))

	var result Result
	if err := json.Unmarshal([]byte(resp.Content), &result); err != nil {
		// Some models ignore JSON mode; keep the text as the summary.
		return &Result{Summary: resp.Content}, nil
	}
	return &result, nil
}

func (a *Analyst) buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Symbol: %s\n\n", req.Symbol))

	if q := req.Quote; q != nil {
		sb.WriteString("## Quote:\n")
		sb.WriteString(fmt.Sprintf("- Price: %.2f (%+.2f, %+.2f%%)\n", q.Price, q.Change, q.ChangePercent))
		sb.WriteString(fmt.Sprintf("- Day Range: %.2f - %.2f, Open %.2f\n", q.Low, q.High, q.Open))
		sb.WriteString(fmt.Sprintf("- Volume: %d\n", q.Volume))
		if !q.Time.IsZero() {
			sb.WriteString(fmt.Sprintf("- As Of: %s\n", q.Time.Format("2006-01-02 15:04:05")))
		}
		sb.WriteString("\n")
	}

	if len(req.Signals) > 0 {
		sb.WriteString("## Active Signals:\n")
		for _, s := range req.Signals {
			sb.WriteString(fmt.Sprintf("- %s (confidence %.2f)", s.Type, s.Confidence))
			if s.TargetPrice > 0 {
				sb.WriteString(fmt.Sprintf(", target %.2f", s.TargetPrice))
			}
			if s.StopLoss > 0 {
				sb.WriteString(fmt.Sprintf(", stop %.2f", s.StopLoss))
			}
			if s.Reason != "" {
				sb.WriteString(": " + s.Reason)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(req.Candles) > 0 {
		sb.WriteString(fmt.Sprintf("## Recent Bars (%s):\n", req.Candles[0].Timeframe))
		start := 0
		if len(req.Candles) > 10 {
			start = len(req.Candles) - 10
		}
		for _, c := range req.Candles[start:] {
			sb.WriteString(fmt.Sprintf("- %s O=%.2f H=%.2f L=%.2f C=%.2f V=%d\n",
				c.Time.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close, c.Volume))
		}
		sb.WriteString("\n")
	}

	if len(req.Degraded) > 0 {
		sb.WriteString("## Data Quality:\n")
		for _, kind := range req.Degraded {
			sb.WriteString(fmt.Sprintf("- %s is SYNTHETIC fallback data, not live market data\n", kind))
		}
		sb.WriteString("Treat synthetic inputs as indicative only and say so in the summary.\n\n")
	}

	sb.WriteString("## Task:\n")
	sb.WriteString("Write a short dashboard note for this symbol.\n")
	sb.WriteString("Respond with JSON containing: summary, stance, confidence, risks.\n")

	return sb.String()
}

const analystSystemPrompt = `You are a market analyst writing terse notes for a trading dashboard.

Rules:
1. Use only the numbers given to you; never invent prices or volumes
2. stance is one of BUY, SELL, HOLD, WATCH
3. confidence is a number between 0 and 1
4. risks lists at most three short bullet points
5. If any input is marked synthetic, open the summary by saying live data was unavailable

Always respond with valid JSON:
{
  "summary": "two to four sentences",
  "stance": "BUY|SELL|HOLD|WATCH",
  "confidence": 0.0,
  "risks": ["short bullet"]
}`
