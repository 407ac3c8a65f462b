// Package llm implements the workflow generation service on top of the
// Anthropic Claude and Google Gemini APIs. One provider is active per run,
// selected by configuration; calls are rate limited, bounded by a timeout,
// and retried with backoff on rate limit errors only within a single call
// boundary.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/mozilla/circleci-to-gha/internal/common"
	"github.com/mozilla/circleci-to-gha/internal/interfaces"
	"github.com/mozilla/circleci-to-gha/internal/models"
)

var _ interfaces.GenerationService = (*Service)(nil)

// Service generates GitHub Actions workflows through the configured
// provider
type Service struct {
	llmConfig    *common.LLMConfig
	claudeConfig *common.ClaudeConfig
	geminiConfig *common.GeminiConfig
	logger       arbor.ILogger
	limiter      *rate.Limiter
	retry        *RetryConfig

	claudeClient anthropic.Client
	claudeReady  bool
	geminiClient *genai.Client
}

// NewService creates a generation service from the application config
func NewService(config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		llmConfig:    &config.LLM,
		claudeConfig: &config.Claude,
		geminiConfig: &config.Gemini,
		logger:       logger,
		// One request every few seconds keeps well under both providers'
		// per-minute quotas
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		retry:   NewDefaultRetryConfig(),
	}
}

// Provider names the active generation backend
func (s *Service) Provider() string {
	return string(s.llmConfig.DefaultProvider)
}

// GenerateWorkflows converts the analyzed config into workflow files. The
// call blocks for at most the configured provider timeout. Failures are
// returned as *models.GenerationError.
func (s *Service) GenerateWorkflows(ctx context.Context, request *models.GenerationRequest) (models.WorkflowFiles, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, models.NewGenerationError(s.Provider(), err)
	}

	prompt := buildWorkflowPrompt(request)

	s.logger.Debug().
		Str("provider", s.Provider()).
		Str("request_id", request.ID).
		Str("repo", request.RepoName).
		Int("prompt_length", len(prompt)).
		Msg("Requesting workflow generation")

	startTime := time.Now()
	text, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.Error().
			Str("provider", s.Provider()).
			Str("request_id", request.ID).
			Err(err).
			Msg("Workflow generation failed")
		return nil, models.NewGenerationError(s.Provider(), err)
	}

	files, err := ParseWorkflowFiles(text)
	if err != nil {
		return nil, models.NewGenerationError(s.Provider(), err)
	}

	s.logger.Debug().
		Str("request_id", request.ID).
		Int("files", len(files)).
		Int64("duration_ms", time.Since(startTime).Milliseconds()).
		Msg("Workflow generation complete")

	return files, nil
}

// Close releases provider clients
func (s *Service) Close() error {
	s.claudeClient = anthropic.Client{}
	s.claudeReady = false
	s.geminiClient = nil
	return nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	switch s.llmConfig.DefaultProvider {
	case common.LLMProviderGemini:
		return s.generateWithGemini(ctx, prompt)
	default:
		return s.generateWithClaude(ctx, prompt)
	}
}

// getClaudeClient returns a Claude client, creating one if necessary
func (s *Service) getClaudeClient() (anthropic.Client, error) {
	if s.claudeReady {
		return s.claudeClient, nil
	}
	if s.claudeConfig.APIKey == "" {
		return anthropic.Client{}, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config)")
	}
	s.claudeClient = anthropic.NewClient(option.WithAPIKey(s.claudeConfig.APIKey))
	s.claudeReady = true
	return s.claudeClient, nil
}

// getGeminiClient returns a Gemini client, creating one if necessary
func (s *Service) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	if s.geminiClient != nil {
		return s.geminiClient, nil
	}
	if s.geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GOOGLE_API_KEY or gemini.api_key in config)")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	s.geminiClient = client
	return client, nil
}

func (s *Service) generateWithClaude(ctx context.Context, prompt string) (string, error) {
	client, err := s.getClaudeClient()
	if err != nil {
		return "", err
	}

	timeout, _ := time.ParseDuration(s.claudeConfig.Timeout)
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.claudeConfig.Model),
		MaxTokens: int64(s.claudeConfig.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if s.claudeConfig.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.claudeConfig.Temperature))
	}

	var resp *anthropic.Message
	var apiErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		resp, apiErr = client.Messages.New(timeoutCtx, params)
		if apiErr == nil {
			break
		}
		if attempt == s.retry.MaxRetries || !IsRateLimitError(apiErr) {
			break
		}

		backoff := s.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		s.logger.Warn().
			Int("attempt", attempt+1).
			Int64("backoff_ms", backoff.Milliseconds()).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-timeoutCtx.Done():
			return "", timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}
	if apiErr != nil {
		return "", fmt.Errorf("Claude API call failed: %w", apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}
	return text.String(), nil
}

func (s *Service) generateWithGemini(ctx context.Context, prompt string) (string, error) {
	client, err := s.getGeminiClient(ctx)
	if err != nil {
		return "", err
	}

	timeout, _ := time.ParseDuration(s.geminiConfig.Timeout)
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if s.geminiConfig.Temperature > 0 {
		config.Temperature = genai.Ptr(s.geminiConfig.Temperature)
	}

	var resp *genai.GenerateContentResponse
	var apiErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(timeoutCtx, s.geminiConfig.Model, genai.Text(prompt), config)
		if apiErr == nil {
			break
		}
		if attempt == s.retry.MaxRetries || !IsRateLimitError(apiErr) {
			break
		}

		backoff := s.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		s.logger.Warn().
			Int("attempt", attempt+1).
			Int64("backoff_ms", backoff.Milliseconds()).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-timeoutCtx.Done():
			return "", timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}
	if apiErr != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return responseText, nil
}
