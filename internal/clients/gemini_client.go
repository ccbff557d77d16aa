package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/spacesedan/vaxpulse/config"
)

type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

type GeminiOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiClient configures generation for repeatable output: the
// configured temperature (zero by default) and no thinking budget.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, opts GeminiOptions) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("[GeminiClient] GEMINI_API_KEY is required: %w", config.ErrMissingCredentials)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: LLM_REQUEST_TIMEOUT}
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("[GeminiClient] failed to create client: %w", err)
	}

	slog.Info("[GeminiClient] Gemini client initialized",
		slog.String("model", cfg.GeminiModel),
		slog.Float64("temperature", float64(cfg.Temperature)),
		slog.Int("thinking_budget", int(cfg.ThinkingBudget)))

	return &GeminiClient{
		client: client,
		model:  cfg.GeminiModel,
		config: &genai.GenerateContentConfig{
			Temperature: genai.Ptr(cfg.Temperature),
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr(cfg.ThinkingBudget),
			},
		},
	}, nil
}

func (g *GeminiClient) Name() string {
	return "gemini:" + g.model
}

// Generate returns the raw completion text. An empty or blocked completion is
// reported as ErrMalformed.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	op := "[GeminiClient] generate content"

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", classifyGeminiError(op, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", WrapError(ErrMalformed, op, errors.New("no candidates in response"))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		reason := ""
		if resp.Candidates[0] != nil {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return "", WrapError(ErrMalformed, op, fmt.Errorf("empty completion (finish reason %q)", reason))
	}
	return text, nil
}

func classifyGeminiError(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return WrapError(kindForStatus(apiErr.Code), op, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return WrapError(kindForStatus(apiErrPtr.Code), op, err)
	}
	return WrapError(ErrTransport, op, err)
}
