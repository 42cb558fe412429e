// Package llm provides the text-generation client used by the workflow. The
// orchestrator only depends on the Client interface so tests can substitute a
// scripted fake for the real service.
package llm

import (
	"context"
)

// Message is a single chat turn sent to the generation service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes an individual generation call. Zero values fall back to the
// client defaults.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Response is the result of a generation call.
type Response struct {
	Text         string
	FinishReason string
	Usage        map[string]int
}

// Client is the minimal capability the workflow needs from a language model.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts *Options) (*Response, error)
}

// System builds a system-role message.
func System(content string) Message {
	return Message{Role: "system", Content: content}
}

// User builds a user-role message.
func User(content string) Message {
	return Message{Role: "user", Content: content}
}
