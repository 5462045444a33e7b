package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	openaigo "github.com/sashabaranov/go-openai"

	"storyboard-server/internal/config"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

// ErrAIGenerationFailed wraps every failure of a text generation call.
var ErrAIGenerationFailed = errors.New("AI text generation failed")

// GenerationParams carries optional sampling parameters. Pointers
// distinguish "not set" from an explicit zero.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// TextClient generates text from a system prompt and user input.
type TextClient interface {
	GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (string, error)
}

// --- OpenAI implementation ---

type openAIClient struct {
	client *openaigo.Client
	model  string
}

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}

	startTime := time.Now()
	log.Debug().Str("model", c.model).Int("system_bytes", len(systemPrompt)).Int("user_bytes", len(userInput)).Msg("Sending request to OpenAI")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openaigo.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: float32Val(params.Temperature),
			MaxTokens:   intVal(params.MaxTokens),
			TopP:        float32Val(params.TopP),
		},
	)

	duration := time.Since(startTime)

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("OpenAI API error")
		textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Error().Dur("duration", duration).Msg("OpenAI API returned an empty response")
		textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	textRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		promptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.Usage.PromptTokens))
		completionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.Usage.CompletionTokens))
	}

	generatedText := resp.Choices[0].Message.Content
	log.Debug().Dur("duration", duration).Int("chars", len(generatedText)).Msg("OpenAI response received")

	return generatedText, nil
}

// float32Val converts an optional *float64 into the float32 the OpenAI
// request expects; the API substitutes its own default for 1.0.
func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 1.0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// --- Ollama implementation ---

type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

func newOllamaClient(cfg config.AIConfig) (TextClient, error) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout(),
	}

	// api.NewClient wants the URL without a /v1 suffix
	ollamaBaseURL := strings.TrimSuffix(cfg.BaseURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL '%s': %w", ollamaBaseURL, err)
	}

	client := api.NewClient(parsedURL, httpClient)

	log.Info().Str("base_url", ollamaBaseURL).Str("model", cfg.TextModel).Dur("timeout", cfg.Timeout()).Msg("Ollama client created")

	return &ollamaClient{
		client:  client,
		model:   cfg.TextModel,
		timeout: cfg.Timeout(),
	}, nil
}

func (c *ollamaClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []api.Message{
		{Role: "system", Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   func(b bool) *bool { return &b }(false),
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	log.Debug().Str("model", c.model).Int("system_bytes", len(systemPrompt)).Int("user_bytes", len(userInput)).Msg("Sending request to Ollama")

	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})

	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error().Err(err).Dur("timeout", c.timeout).Msg("Ollama API timeout")
		} else {
			log.Error().Err(err).Dur("duration", duration).Msg("Ollama API error")
		}
		textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	if resp.Message.Content == "" {
		log.Error().Dur("duration", duration).Msg("Ollama API returned an empty response")
		textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	textRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	textRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		promptTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.PromptEvalCount))
		completionTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.EvalCount))
	}

	return resp.Message.Content, nil
}

// --- Factory ---

// NewTextClient builds a TextClient for the configured backend.
func NewTextClient(cfg config.AIConfig) (TextClient, error) {
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = cfg.BaseURL
		}
		openaiConfig.HTTPClient = &http.Client{
			Timeout: cfg.Timeout(),
		}
		client := openaigo.NewClientWithConfig(openaiConfig)
		log.Info().Str("base_url", openaiConfig.BaseURL).Str("model", cfg.TextModel).Dur("timeout", cfg.Timeout()).Msg("OpenAI client created")
		return &openAIClient{
			client: client,
			model:  cfg.TextModel,
		}, nil
	case "ollama":
		return newOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.ClientType)
	}
}
