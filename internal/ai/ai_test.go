package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Do(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/responses")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "resp_1",
			"object": "response",
			"status": "completed",
			"model":  "gpt-4.1-mini",
			"output": []map[string]any{{
				"type":   "message",
				"id":     "msg_1",
				"role":   "assistant",
				"status": "completed",
				"content": []map[string]any{
					{"type": "output_text", "text": " Short summary. ", "annotations": []any{}},
				},
			}},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 3, "total_tokens": 13},
		})
	}))
	defer ts.Close()

	c := NewOpenAIClient("test-key", openaiopt.WithBaseURL(ts.URL))
	resp, err := c.Do(context.Background(), Request{Model: "gpt-4.1-mini", SystemPrompt: "sys", Text: "long text", MaxOutputTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "Short summary.", resp.Text)
	assert.Equal(t, 10, resp.TokensIn)
	assert.Equal(t, "sys", body["instructions"])
	assert.Equal(t, "long text", body["input"])
	assert.EqualValues(t, 200, body["max_output_tokens"])
}

func TestOpenAIClient_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	c := NewOpenAIClient("test-key", openaiopt.WithBaseURL(ts.URL))
	_, err := c.Do(context.Background(), Request{Model: "m", Text: "x"})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestOpenAIClient_MissingKey(t *testing.T) {
	_, err := NewOpenAIClient("").Do(context.Background(), Request{Text: "x"})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestAnthropicClient_Do(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/messages")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Hello from test"},
			},
			"model":       "claude-3-5-haiku-latest",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 7, "output_tokens": 4},
		})
	}))
	defer ts.Close()

	c := NewAnthropicClient("test-key", anthropicopt.WithBaseURL(ts.URL))
	resp, err := c.Do(context.Background(), Request{Model: "claude-3-5-haiku-latest", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello from test", resp.Text)
	assert.Equal(t, 4, resp.TokensOut)
}

func TestAnthropicClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"upstream"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	c := NewAnthropicClient("test-key", anthropicopt.WithBaseURL(ts.URL))
	_, err := c.Do(context.Background(), Request{Model: "m", Text: "hi"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "anthropic", httpErr.Provider)
}
