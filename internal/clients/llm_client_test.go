package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/vaxpulse/config"
)

func geminiServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, srv *httptest.Server) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient(context.Background(),
		config.LLMConfig{GeminiAPIKey: "key", GeminiModel: "gemini-2.5-flash"},
		GeminiOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestGeminiGenerateReturnsRawText(t *testing.T) {
	var request map[string]any
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Positive\n"}]},"finishReason":"STOP"}]}`,
		&request)

	text, err := newTestGemini(t, srv).Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "Positive\n", text)

	generation, ok := request["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing from request: %v", request)
	assert.EqualValues(t, 0, generation["temperature"])
	thinking, ok := generation["thinkingConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 0, thinking["thinkingBudget"])
}

func TestGeminiGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"quota", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`, ErrRateLimited},
		{"bad key", http.StatusForbidden, `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`, ErrUnauthorized},
		{"server", http.StatusInternalServerError, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`, ErrUpstream},
		{"blocked", http.StatusOK, `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := geminiServer(t, tt.status, tt.body, nil)

			_, err := newTestGemini(t, srv).Generate(context.Background(), "prompt")
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), config.LLMConfig{}, GeminiOptions{})
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		temperature, ok := req["temperature"].(float64)
		assert.True(t, ok, "temperature must be sent")
		assert.Less(t, temperature, 1e-6)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":" Negative "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(config.LLMConfig{OpenAIAPIKey: "key", OpenAIModel: "gpt-4o-mini"},
		OpenAIOptions{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, " Negative ", text)
}

func TestOpenAIGenerateRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(config.LLMConfig{OpenAIAPIKey: "key", OpenAIModel: "gpt-4o-mini"},
		OpenAIOptions{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrRateLimited), "got %v", err)
	assert.False(t, IsFatal(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "none", KindOf(nil))
	assert.Equal(t, "unauthorized", KindOf(WrapError(ErrUnauthorized, "op", nil)))
	assert.Equal(t, "transport", KindOf(WrapError(ErrTransport, "op", assert.AnError)))
	assert.Equal(t, "unknown", KindOf(assert.AnError))
}
