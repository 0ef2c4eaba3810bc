package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using the Google Gemini
// API. Grounded generation enables the GoogleSearch tool so the model only
// returns URLs present in grounded search results.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// Compile-time assertion: GeminiService implements LLMService
var _ interfaces.LLMService = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini LLM service instance.
func NewGeminiService(config *common.Config, logger arbor.ILogger) (*GeminiService, error) {
	if config.Gemini.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or gemini.api_key in config): %w", common.ErrMissingCredential)
	}

	if config.Gemini.Model == "" {
		config.Gemini.Model = "gemini-2.5-flash"
	}

	timeout, err := config.GeminiTimeout()
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(config.Gemini.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid gemini rate limit duration '%s': %w", config.Gemini.RateLimit, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  &config.Gemini,
		logger:  logger,
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}

	logger.Info().
		Str("model", config.Gemini.Model).
		Dur("timeout", timeout).
		Str("rate_limit", config.Gemini.RateLimit).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// GenerateGrounded runs a prompt with the GoogleSearch grounding tool enabled.
func (s *GeminiService) GenerateGrounded(ctx context.Context, model, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}
	return s.generate(ctx, model, prompt, config)
}

// Generate runs a plain prompt at the given temperature.
func (s *GeminiService) Generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	return s.generate(ctx, model, prompt, config)
}

func (s *GeminiService) generate(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("genai client is not initialized")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = s.config.Model
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Bool("grounded", len(config.Tools) > 0).
		Msg("Starting Gemini generation")

	resp, err := s.client.Models.GenerateContent(
		timeoutCtx,
		model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", model).
			Msg("Gemini generation failed")
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	// Iterate candidates until non-empty text is found. An empty result is
	// returned to the caller as-is: discovery handles empty-response retries
	// with its own bounded policy.
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	s.logger.Debug().
		Str("model", model).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini generation completed")

	return response.String(), nil
}

// HealthCheck verifies the Gemini service is operational with a minimal
// ungrounded probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Generate(healthCtx, "", "ping", 0)
	if err != nil {
		return fmt.Errorf("gemini health check probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("gemini health check probe returned empty response")
	}

	return nil
}

// Close releases resources. The genai client does not require explicit
// cleanup beyond clearing the reference.
func (s *GeminiService) Close() error {
	s.logger.Info().Msg("Closing Gemini LLM service")
	s.client = nil
	return nil
}
