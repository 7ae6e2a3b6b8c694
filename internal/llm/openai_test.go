package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	oc := openai.DefaultConfig("test-key")
	oc.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(oc), model: "gpt-4o-mini"}
}

func TestOpenAIProvider_HappyPathSendsSchema(t *testing.T) {
	var got map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": `{"title":"x"}`},
				"finish_reason": "length",
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	})

	req := UserPrompt("sys", "go", 256, 0)
	req.Schema = &Schema{Name: "thing", Definition: map[string]any{"type": "object"}}
	resp, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, string(resp.Content))
	assert.Equal(t, 65, resp.Usage.TotalTokens)
	assert.Equal(t, "max_tokens", resp.StopReason)

	rf, ok := got["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", rf["type"])
	msgs := got["messages"].([]any)
	assert.Len(t, msgs, 2)
}

func TestOpenAIProvider_ArraySchemaNotSentNatively(t *testing.T) {
	var got map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "[]"}}},
		})
	})
	req := UserPrompt("", "go", 256, 0)
	req.Schema = &Schema{Name: "list", Definition: map[string]any{"type": "array"}}
	_, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	_, has := got["response_format"]
	assert.False(t, has)
}

func TestOpenAIProvider_RateLimit(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit"},
		})
	})
	_, err := p.Generate(context.Background(), UserPrompt("", "go", 16, 0))
	var rl *ErrRateLimit
	assert.True(t, errors.As(err, &rl), "got %T (%v)", err, err)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	_, err := p.Generate(context.Background(), UserPrompt("", "go", 16, 0))
	var inv *ErrInvalidResponse
	assert.True(t, errors.As(err, &inv))
}
