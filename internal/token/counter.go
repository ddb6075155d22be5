// Package token provides token counting for LLM request budgeting.
package token

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter wraps a tiktoken encoder for token counting operations.
type Counter struct {
	encoder  *tiktoken.Tiktoken
	encoding string
}

// Default encoding for fallback.
const defaultEncoding = "cl100k_base"

// Message overhead constants for chat message token counting.
// These are based on OpenAI's chat format overhead.
const (
	// Tokens added per message for role and formatting.
	messageOverhead = 4
	// Tokens added for the assistant reply priming.
	replyPriming = 2
)

// NewCounter creates a new token counter with the specified encoding.
// Supported encodings include:
//   - "cl100k_base" (GPT-4, GPT-3.5-turbo)
//   - "o200k_base" (GPT-4o)
//
// Falls back to cl100k_base if the specified encoding is not found. Models
// with their own tokenizers (Claude, Gemini) get an approximate count,
// which is fine for budgeting.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		encoder, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, err
		}
		encoding = defaultEncoding
	}

	return &Counter{
		encoder:  encoder,
		encoding: encoding,
	}, nil
}

// Encoding returns the current encoding name.
func (c *Counter) Encoding() string {
	return c.encoding
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	tokens := c.encoder.Encode(text, nil, nil)
	return len(tokens)
}

// CountMessages counts the total tokens in a slice of chat messages,
// including per-message overhead for role and formatting.
// This follows OpenAI's token counting convention for chat messages.
func (c *Counter) CountMessages(messages []ChatMessage) int {
	if len(messages) == 0 {
		return 0
	}

	total := 0
	for _, msg := range messages {
		total += messageOverhead
		total += c.Count(msg.Content)

		if msg.Name != "" {
			total += c.Count(msg.Name) + 1
		}
	}

	total += replyPriming

	return total
}

// FitsContext reports whether a request of promptTokens plus the requested
// completion budget fits inside the model's context window.
func FitsContext(promptTokens, maxOutputTokens, contextWindow int) bool {
	if contextWindow <= 0 {
		return true
	}
	return promptTokens+maxOutputTokens <= contextWindow
}

// Truncate truncates the given text to fit within the specified token limit.
// Returns the truncated text. If the text is already within the limit,
// it is returned unchanged.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	return c.encoder.Decode(tokens[:maxTokens])
}

// TruncateToFit truncates text from the beginning or end to fit within maxTokens.
// If fromEnd is true, keeps the end of the text; otherwise keeps the beginning.
func (c *Counter) TruncateToFit(text string, maxTokens int, fromEnd bool) string {
	if maxTokens <= 0 {
		return ""
	}

	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	if fromEnd {
		return c.encoder.Decode(tokens[len(tokens)-maxTokens:])
	}

	return c.encoder.Decode(tokens[:maxTokens])
}

// EstimateTokens provides a quick estimate of token count without encoding.
// Uses a heuristic of approximately 4 characters per token for English text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runeCount := utf8.RuneCountInString(text)
	return (runeCount + 3) / 4
}

// ChatMessage mirrors the llm.ChatMessage for use in token counting.
// This avoids circular imports while maintaining the same structure.
type ChatMessage struct {
	Role       string
	Content    string
	Name       string
	ToolCallID string
}
