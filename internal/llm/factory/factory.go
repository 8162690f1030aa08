package factory

import (
	"fmt"

	"github.com/jackliao/marketmood/internal/config"
	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/llm"
	"github.com/jackliao/marketmood/internal/llm/claude"
	"github.com/jackliao/marketmood/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}
