package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spacesedan/vaxpulse/config"
)

type OpenAIClient struct {
	Client      *openai.Client
	model       string
	temperature float32
}

type OpenAIOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewOpenAIClient(cfg config.LLMConfig, opts OpenAIOptions) (*OpenAIClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("[OpenAIClient] OPENAI_API_KEY is required: %w", config.ErrMissingCredentials)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: LLM_REQUEST_TIMEOUT}
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.HTTPClient = opts.HTTPClient
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}

	// temperature is omitted from the request when it is exactly zero
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	slog.Info("[OpenAIClient] OpenAI client initialized",
		slog.String("model", cfg.OpenAIModel),
		slog.Duration("timeout", opts.HTTPClient.Timeout))

	return &OpenAIClient{
		Client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.OpenAIModel,
		temperature: temperature,
	}, nil
}

func (o *OpenAIClient) Name() string {
	return "openai:" + o.model
}

func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	op := "[OpenAIClient] create chat completion"

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(op, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", WrapError(ErrMalformed, op, errors.New("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return WrapError(kindForStatus(apiErr.HTTPStatusCode), op, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return WrapError(kindForStatus(reqErr.HTTPStatusCode), op, err)
	}
	return WrapError(ErrTransport, op, err)
}
