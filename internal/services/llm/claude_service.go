package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API. Claude has no search grounding, so it only serves ungrounded
// prompt execution (specs table generation, table-to-JSON conversion).
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// Compile-time assertion: ClaudeService implements LLMService
var _ interfaces.LLMService = (*ClaudeService)(nil)

// NewClaudeService creates a new Claude LLM service instance.
func NewClaudeService(config *common.Config, logger arbor.ILogger) (*ClaudeService, error) {
	if config.Claude.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config): %w", common.ErrMissingCredential)
	}

	if config.Claude.Model == "" {
		config.Claude.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(config.Claude.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid claude timeout duration '%s': %w", config.Claude.Timeout, err)
	}

	maxTokens := config.Claude.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(option.WithAPIKey(config.Claude.APIKey))

	service := &ClaudeService{
		config:    &config.Claude,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Info().
		Str("model", config.Claude.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized")

	return service, nil
}

// GenerateGrounded is unsupported: Claude has no web-search grounding tool.
func (s *ClaudeService) GenerateGrounded(ctx context.Context, model, prompt string) (string, error) {
	return "", interfaces.ErrGroundingUnsupported
}

// Generate runs a plain prompt at the given temperature.
func (s *ClaudeService) Generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("claude client is not initialized")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = s.config.Model
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Msg("Starting Claude generation")

	message, err := s.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(s.maxTokens),
		Temperature: anthropic.Float(float64(temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", model).
			Msg("Claude generation failed")
		return "", fmt.Errorf("claude generation failed: %w", err)
	}

	var response strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	s.logger.Debug().
		Str("model", model).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude generation completed")

	return response.String(), nil
}

// HealthCheck verifies the Claude service is operational with a minimal probe.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("claude client is not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Generate(healthCtx, "", "ping", 0)
	if err != nil {
		return fmt.Errorf("claude health check probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("claude health check probe returned empty response")
	}

	return nil
}

// Close releases resources.
func (s *ClaudeService) Close() error {
	s.logger.Info().Msg("Closing Claude LLM service")
	s.client = nil
	return nil
}
