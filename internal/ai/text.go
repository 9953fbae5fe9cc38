package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"brushquest-server/internal/config"
	"brushquest-server/internal/models"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brushquest_ai_requests_total",
			Help: "Total number of requests to the text-generation API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brushquest_ai_request_duration_seconds",
			Help:    "Histogram of text-generation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brushquest_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brushquest_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

// TextGenerator produces free-form text for a natural-language prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewTextGenerator builds a TextGenerator implementation selected by
// AI_CLIENT_TYPE. A missing API key is not an error here: the client reports
// it on the first call so the process can still serve endpoints that do not
// need the LLM.
func NewTextGenerator(cfg config.AIConfig, logger *zap.Logger) (TextGenerator, error) {
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		apiCfg := openai.DefaultConfig(cfg.APIKey)
		apiCfg.BaseURL = cfg.BaseURL
		apiCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
		logger.Info("using OpenAI-compatible text client",
			zap.String("baseURL", cfg.BaseURL), zap.String("model", cfg.Model))
		return &openAIText{
			client:      openai.NewClientWithConfig(apiCfg),
			cfg:         cfg,
			logger:      logger,
			hasKey:      cfg.APIKey != "",
			timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
			maxAttempts: maxAttempts(cfg.MaxAttempts),
		}, nil
	case "ollama":
		base := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/v1"), "/")
		parsed, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ollama base URL %q: %w", base, err)
		}
		logger.Info("using Ollama text client", zap.String("baseURL", base), zap.String("model", cfg.Model))
		return &ollamaText{
			client:      api.NewClient(parsed, &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}),
			cfg:         cfg,
			logger:      logger,
			timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
			maxAttempts: maxAttempts(cfg.MaxAttempts),
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI client type %q", cfg.ClientType)
	}
}

func maxAttempts(n int) int {
	if n <= 0 {
		return 3
	}
	return n
}

type openAIText struct {
	client      *openai.Client
	cfg         config.AIConfig
	logger      *zap.Logger
	hasKey      bool
	timeout     time.Duration
	maxAttempts int
}

func (c *openAIText) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.hasKey {
		return "", fmt.Errorf("%w: LLM_API_KEY is not set", models.ErrProvider)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", models.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.7,
			TopP:        0.95,
		})
		duration := time.Since(start)

		if err != nil {
			c.logger.Error("text generation request failed",
				zap.String("model", c.cfg.Model), zap.Int("attempt", attempt),
				zap.Duration("duration", duration), zap.Error(err))
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error"}).Inc()
			lastErr = fmt.Errorf("%w: %v", models.ErrProvider, err)
			if ctx.Err() != nil {
				return "", lastErr
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			c.logger.Warn("text generation returned empty response",
				zap.String("model", c.cfg.Model), zap.Int("attempt", attempt))
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error_empty_response"}).Inc()
			lastErr = fmt.Errorf("%w: empty response", models.ErrProvider)
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}

		text := resp.Choices[0].Message.Content
		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "success"}).Inc()
		aiRequestDuration.With(prometheus.Labels{"model": c.cfg.Model}).Observe(duration.Seconds())
		c.observeTokens(resp.Usage, prompt, text)
		c.logger.Debug("text generation completed",
			zap.String("model", c.cfg.Model), zap.Int("attempt", attempt),
			zap.Duration("duration", duration), zap.Int("responseChars", len(text)))
		return text, nil
	}

	return "", lastErr
}

// observeTokens records token metrics, estimating with tiktoken when the
// provider omits usage (OpenRouter does for some upstream models).
func (c *openAIText) observeTokens(usage openai.Usage, prompt, completion string) {
	promptTokens := usage.PromptTokens
	completionTokens := usage.CompletionTokens
	if usage.TotalTokens == 0 {
		tke, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		promptTokens = len(tke.Encode(prompt, nil, nil))
		completionTokens = len(tke.Encode(completion, nil, nil))
	}
	aiPromptTokens.With(prometheus.Labels{"model": c.cfg.Model}).Observe(float64(promptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": c.cfg.Model}).Observe(float64(completionTokens))
}

type ollamaText struct {
	client      *api.Client
	cfg         config.AIConfig
	logger      *zap.Logger
	timeout     time.Duration
	maxAttempts int
}

func (c *ollamaText) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", models.ErrValidation)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.cfg.Model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": 0.7,
			"top_p":       0.95,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		start := time.Now()
		var resp api.ChatResponse
		err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
			resp = r
			return nil
		})
		duration := time.Since(start)

		if err != nil {
			c.logger.Error("ollama chat request failed",
				zap.String("model", c.cfg.Model), zap.Int("attempt", attempt), zap.Error(err))
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error"}).Inc()
			lastErr = fmt.Errorf("%w: %v", models.ErrProvider, err)
			if ctx.Err() != nil {
				return "", lastErr
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}
		if resp.Message.Content == "" {
			aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "error_empty_response"}).Inc()
			lastErr = fmt.Errorf("%w: empty response", models.ErrProvider)
			continue
		}

		aiRequestsTotal.With(prometheus.Labels{"model": c.cfg.Model, "status": "success"}).Inc()
		aiRequestDuration.With(prometheus.Labels{"model": c.cfg.Model}).Observe(duration.Seconds())
		aiPromptTokens.With(prometheus.Labels{"model": c.cfg.Model}).Observe(float64(resp.PromptEvalCount))
		aiCompletionTokens.With(prometheus.Labels{"model": c.cfg.Model}).Observe(float64(resp.EvalCount))
		return resp.Message.Content, nil
	}

	return "", lastErr
}
