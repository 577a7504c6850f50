// Package llm wraps the chat completion backends used for slot extraction
// and general chat.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/common/metrics"
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion call. Purpose labels metrics ("extract-telephone", "chat", ...).
type Request struct {
	Purpose  string
	Messages []Message
	// ExpectJSON marks requests whose reply is parsed as JSON. The OpenAI
	// client asks for a json_object response format.
	ExpectJSON bool
}

// Client is the language model collaborator.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures the OpenAI compatible client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIClient talks to any OpenAI compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
	}, nil
}

// Complete performs a non-streaming chat completion and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
	if req.ExpectJSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		if stdErrors.IsTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			observe(req.Purpose, "timeout")
			return "", stdErrors.NewLLMTimeoutError(err)
		}
		observe(req.Purpose, "error")
		return "", stdErrors.NewLLMError(fmt.Errorf("chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		observe(req.Purpose, "empty")
		return "", stdErrors.NewLLMError(errors.New("no choices in response"))
	}

	observe(req.Purpose, "success")
	return resp.Choices[0].Message.Content, nil
}

func observe(purpose, outcome string) {
	if purpose == "" {
		purpose = "unknown"
	}
	metrics.LLMCallsTotal.WithLabelValues(purpose, outcome).Inc()
}
