package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// NewServices creates the discovery and prompt-execution LLM services from
// configuration. Discovery always runs on Gemini (search grounding); the
// prompt-execution provider is selectable and falls back to the same Gemini
// service when configured as "gemini".
func NewServices(cfg *common.Config, logger arbor.ILogger) (discovery interfaces.LLMService, prompts interfaces.LLMService, err error) {
	gemini, err := NewGeminiService(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini service: %w", err)
	}

	switch cfg.LLM.PromptProvider {
	case common.LLMProviderGemini, "":
		return gemini, gemini, nil

	case common.LLMProviderClaude:
		claude, err := NewClaudeService(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Claude service: %w", err)
		}
		return gemini, claude, nil

	default:
		return nil, nil, fmt.Errorf("unsupported prompt provider '%s': must be 'gemini' or 'claude'", cfg.LLM.PromptProvider)
	}
}
