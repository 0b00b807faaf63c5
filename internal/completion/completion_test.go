// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deckminer/pkg/types"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New(types.AIConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini/gemini-2.0-flash-lite", c.Name())

	c, err = New(types.AIConfig{Provider: "Anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-haiku-4-5-20251001", c.Name())

	c, err = New(types.AIConfig{Provider: "openai", Model: "gpt-4.1", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4.1", c.Name())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(types.AIConfig{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(types.AIConfig{Provider: "palm", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown completion provider")
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "gemini", "openai"}, Providers())
}

func TestGemini_Complete(t *testing.T) {
	var gotReq geminiRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"client_name\":"},{"text":"\"ABC\"}"}]},"finishReason":"STOP"}]}`))
	}))
	defer ts.Close()

	c, err := New(types.AIConfig{Provider: "gemini", Model: "gemini-test", APIKey: "secret", BaseURL: ts.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "extract facts")
	require.NoError(t, err)
	assert.Equal(t, `{"client_name":"ABC"}`, out)

	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "extract facts", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, "application/json", gotReq.GenerationConfig.ResponseMimeType)
}

func TestGemini_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusForbidden, `{"error":{"message":"bad key"}}`, "returned 403"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "no text"},
		{"empty parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`, "no text"},
		{"bad json", http.StatusOK, `not json`, "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c, err := New(types.AIConfig{Provider: "gemini", APIKey: "k", BaseURL: ts.URL})
			require.NoError(t, err)
			_, err = c.Complete(context.Background(), "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnthropic_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		assert.Equal(t, "ak", r.Header.Get("x-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",` +
			`"content":[{"type":"text","text":"{\"venue\":null}"}],` +
			`"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":5}}`))
	}))
	defer ts.Close()

	c, err := New(types.AIConfig{Provider: "anthropic", Model: "claude-test", APIKey: "ak", BaseURL: ts.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"venue":null}`, out)
}

func TestOpenAI_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer ok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":"{}"},"finish_reason":"stop"}]}`))
	}))
	defer ts.Close()

	c, err := New(types.AIConfig{Provider: "openai", Model: "gpt-test", APIKey: "ok", BaseURL: ts.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}
