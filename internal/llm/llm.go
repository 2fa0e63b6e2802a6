// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-model completion service used by the
// classifier and the synthesizer.
package llm

import "context"

// Role tags a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Params holds per-call generation parameters. Zero values leave the
// service default in place.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Temperature returns a pointer to t for use in Params.
func Temperature(t float64) *float64 {
	return &t
}

// Completer generates text for a conversation. Implementations return the
// generated text or a service error.
type Completer interface {
	Complete(ctx context.Context, messages []Message, params Params) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []Message, params Params) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	return f(ctx, messages, params)
}
