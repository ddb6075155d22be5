// Package adapters provides LLM provider implementations.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/seojin/sceneweaver/internal/llm"
)

// anthropicModelCapabilities maps model names to their capabilities.
var anthropicModelCapabilities = map[string]llm.Capabilities{
	"claude-sonnet-4-5": {
		SupportsStreaming: true,
		SupportsVision:    true,
		MaxContextTokens:  200000,
		MaxOutputTokens:   64000,
		TokenizerType:     "claude",
	},
	"claude-opus-4-1": {
		SupportsStreaming: true,
		SupportsVision:    true,
		MaxContextTokens:  200000,
		MaxOutputTokens:   32000,
		TokenizerType:     "claude",
	},
	"claude-3-7-sonnet-latest": {
		SupportsStreaming: true,
		SupportsVision:    true,
		MaxContextTokens:  200000,
		MaxOutputTokens:   64000,
		TokenizerType:     "claude",
	},
	"claude-3-5-haiku-latest": {
		SupportsStreaming: true,
		SupportsVision:    true,
		MaxContextTokens:  200000,
		MaxOutputTokens:   8192,
		TokenizerType:     "claude",
	},
}

// defaultAnthropicCapabilities is used for unknown models.
var defaultAnthropicCapabilities = llm.Capabilities{
	SupportsStreaming: true,
	MaxContextTokens:  200000,
	MaxOutputTokens:   8192,
	TokenizerType:     "claude",
}

// AnthropicAdapter implements the Provider interface for Anthropic's
// Messages API. Tool calling is not wired up for this adapter; callers that
// need structured output extract JSON from the text response instead.
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
	config AnthropicConfig
}

// AnthropicConfig holds configuration for the Anthropic adapter.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key.
	APIKey string

	// Model is the model to use for completions.
	Model string

	// BaseURL overrides the default API URL.
	BaseURL string

	// MaxRetries is the number of retries for rate-limited requests.
	MaxRetries int

	// RetryDelay is the initial delay between retries.
	RetryDelay time.Duration
}

// AnthropicOption configures an AnthropicAdapter.
type AnthropicOption func(*AnthropicConfig)

// WithAnthropicBaseURL sets a custom base URL.
func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(c *AnthropicConfig) {
		c.BaseURL = baseURL
	}
}

// WithAnthropicRetry sets retry configuration.
func WithAnthropicRetry(maxRetries int, retryDelay time.Duration) AnthropicOption {
	return func(c *AnthropicConfig) {
		c.MaxRetries = maxRetries
		c.RetryDelay = retryDelay
	}
}

// NewAnthropicAdapter creates a new Anthropic adapter.
func NewAnthropicAdapter(apiKey, model string, opts ...AnthropicOption) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", llm.ErrInvalidAPIKey)
	}

	if model == "" {
		model = "claude-sonnet-4-5"
	}

	config := AnthropicConfig{
		APIKey:     apiKey,
		Model:      model,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(&config)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// The adapter runs its own retry loop
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicAdapter{
		client: anthropic.NewClient(clientOpts...),
		model:  model,
		config: config,
	}, nil
}

// Chat sends a messages request and returns the complete response.
func (a *AnthropicAdapter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		msg, err := a.client.Messages.New(ctx, params)
		if err != nil {
			lastErr = a.handleError(err)
			if !a.isRetryable(lastErr) {
				return nil, lastErr
			}
			continue
		}

		return a.buildResponse(msg), nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Stream sends a messages request and streams the response.
func (a *AnthropicAdapter) Stream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}

	stream := a.client.Messages.NewStreaming(ctx, params)
	chunks := make(chan llm.StreamChunk, 100)

	go a.processStream(ctx, stream, chunks)

	return chunks, nil
}

// processStream reads SSE events and sends chunks to the channel.
func (a *AnthropicAdapter) processStream(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], chunks chan<- llm.StreamChunk) {
	defer close(chunks)
	defer stream.Close()

	var finishReason string
	var usage *llm.TokenUsage

	for stream.Next() {
		select {
		case <-ctx.Done():
			chunks <- llm.StreamChunk{
				Error: ctx.Err(),
				Done:  true,
			}
			return
		default:
		}

		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			usage = &llm.TokenUsage{
				PromptTokens: int(ev.Message.Usage.InputTokens),
			}

		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				chunks <- llm.StreamChunk{Delta: delta.Text}
			}

		case anthropic.MessageDeltaEvent:
			finishReason = a.convertStopReason(string(ev.Delta.StopReason))
			if usage != nil {
				usage.CompletionTokens = int(ev.Usage.OutputTokens)
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
			}
		}
	}

	if err := stream.Err(); err != nil {
		chunks <- llm.StreamChunk{
			Error: a.handleError(err),
			Done:  true,
		}
		return
	}

	chunks <- llm.StreamChunk{
		Done:         true,
		FinishReason: finishReason,
		Usage:        usage,
	}
}

// Capabilities returns the provider's capabilities.
func (a *AnthropicAdapter) Capabilities() llm.Capabilities {
	caps, ok := anthropicModelCapabilities[a.model]
	if !ok {
		caps = defaultAnthropicCapabilities
	}
	caps.Models = a.availableModels()
	return caps
}

// Close releases resources held by the adapter.
func (a *AnthropicAdapter) Close() error {
	return nil
}

// Model returns the current model name.
func (a *AnthropicAdapter) Model() string {
	return a.model
}

// buildParams converts our ChatRequest to the Anthropic format. System
// messages map to the top-level system prompt; tool messages are rejected.
func (a *AnthropicAdapter) buildParams(req llm.ChatRequest) (anthropic.MessageNewParams, error) {
	if len(req.Tools) > 0 {
		return anthropic.MessageNewParams{}, llm.ErrToolsNotSupported
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.Capabilities().MaxOutputTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
	}

	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}

	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case llm.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return anthropic.MessageNewParams{}, fmt.Errorf("%w: unsupported role %q", llm.ErrToolsNotSupported, msg.Role)
		}
	}

	params.System = system
	params.Messages = messages

	return params, nil
}

// buildResponse converts an Anthropic message to our ChatResponse.
func (a *AnthropicAdapter) buildResponse(msg *anthropic.Message) *llm.ChatResponse {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: text.String(),
		},
		Usage: llm.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		FinishReason: a.convertStopReason(string(msg.StopReason)),
		Model:        string(msg.Model),
	}
}

// convertStopReason converts Anthropic stop reasons to our format.
func (a *AnthropicAdapter) convertStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return llm.FinishReasonStop
	case "max_tokens":
		return llm.FinishReasonLength
	case "refusal":
		return llm.FinishReasonContentFilter
	default:
		return reason
	}
}

// handleError converts Anthropic errors to our error types.
func (a *AnthropicAdapter) handleError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%w: %s", llm.ErrInvalidAPIKey, apiErr.Error())
		case 404:
			return fmt.Errorf("%w: %s", llm.ErrModelNotFound, apiErr.Error())
		case 429:
			return fmt.Errorf("%w: %s", llm.ErrRateLimited, apiErr.Error())
		case 400:
			if strings.Contains(apiErr.Error(), "prompt is too long") {
				return fmt.Errorf("%w: %s", llm.ErrContextTooLong, apiErr.Error())
			}
			return fmt.Errorf("%w: %s", llm.ErrAPIError, apiErr.Error())
		case 500, 529:
			return fmt.Errorf("%w: server error - %s", llm.ErrAPIError, apiErr.Error())
		default:
			return fmt.Errorf("%w: HTTP %d - %s", llm.ErrAPIError, apiErr.StatusCode, apiErr.Error())
		}
	}

	return fmt.Errorf("%w: %s", llm.ErrAPIError, err.Error())
}

// isRetryable returns true if the error is retryable.
func (a *AnthropicAdapter) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, llm.ErrRateLimited) {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 529:
			return true
		}
	}

	return false
}

// availableModels returns the list of available Anthropic models.
func (a *AnthropicAdapter) availableModels() []string {
	return []string{
		"claude-sonnet-4-5",
		"claude-opus-4-1",
		"claude-3-7-sonnet-latest",
		"claude-3-5-haiku-latest",
	}
}

// Verify AnthropicAdapter implements Provider interface.
var _ llm.Provider = (*AnthropicAdapter)(nil)
