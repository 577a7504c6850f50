package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stdErrors "sap-address-assistant/internal/common/errors"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens      int `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func completion(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []interface{}{
			map[string]interface{}{
				"index":         0,
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func newFakeLLM(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
}

func TestNewOpenAIClient_Validation(t *testing.T) {
	_, err := NewOpenAIClient(Config{Model: "m"})
	assert.EqualError(t, err, "llm api key is required")

	_, err = NewOpenAIClient(Config{APIKey: "k"})
	assert.EqualError(t, err, "llm model is required")
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	srv := newFakeLLM(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("Hello there"))
	})
	defer srv.Close()

	c, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "test-model", MaxTokens: 256, Timeout: 5 * time.Second})
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), Request{
		Purpose: "chat",
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
	assert.Nil(t, got.ResponseFormat)
}

func TestOpenAIClient_CompleteJSON(t *testing.T) {
	var got chatRequest
	srv := newFakeLLM(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"intent":"GeneralChat","entities":{}}`))
	})
	defer srv.Close()

	c, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "test-model"})
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), Request{
		Purpose:    "extract-telephone",
		Messages:   []Message{{Role: RoleUser, Content: "Return only JSON"}},
		ExpectJSON: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"GeneralChat","entities":{}}`, reply)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  func(w http.ResponseWriter, req chatRequest)
		timeout  time.Duration
		wantCode stdErrors.ErrorCode
	}{
		{
			name: "upstream error",
			handler: func(w http.ResponseWriter, _ chatRequest) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			},
			wantCode: stdErrors.ErrCodeLLMFailed,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ chatRequest) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
			},
			wantCode: stdErrors.ErrCodeLLMFailed,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ chatRequest) {
				time.Sleep(300 * time.Millisecond)
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(completion("late"))
			},
			timeout:  50 * time.Millisecond,
			wantCode: stdErrors.ErrCodeLLMTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeLLM(t, tt.handler)
			defer srv.Close()

			c, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "m", Timeout: tt.timeout})
			require.NoError(t, err)

			_, err = c.Complete(context.Background(), Request{Purpose: "chat", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			require.Error(t, err)
			assert.True(t, stdErrors.IsCode(err, tt.wantCode), err.Error())
		})
	}
}

func TestNoopClient(t *testing.T) {
	c := NewNoopClient()

	out, err := c.Complete(context.Background(), Request{ExpectJSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"GeneralChat","entities":{}}`, out)

	out, err = c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "ping"}}})
	require.NoError(t, err)
	assert.Contains(t, out, "ping")
}
