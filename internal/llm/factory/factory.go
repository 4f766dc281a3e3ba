// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/marketdeck/marketdeck/internal/config"
	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/llm"
	"github.com/marketdeck/marketdeck/internal/llm/claude"
	"github.com/marketdeck/marketdeck/internal/llm/ollama"
	"github.com/marketdeck/marketdeck/internal/llm/openai"
)

// New creates the LLM provider named by the configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider %q", cfg.Provider))
	}
}
