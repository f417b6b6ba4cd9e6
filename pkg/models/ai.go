// Package models contains shared data models used across the ContentGen codebase.
package models

import "context"

// Upstream is the single external generation API this service wraps.
// Callers receive it by injection and never construct a concrete provider.
type Upstream interface {
	// Complete sends a chat-style request and returns the full reply text,
	// with any streamed fragments already concatenated.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "poe", "mock").
	Name() string
}

// Message roles understood by every upstream.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat-style request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-neutral input to Upstream.Complete.
type CompletionRequest struct {
	Bot         string    // provider-specific bot/model name
	Messages    []Message // ordered, system first when present
	MaxTokens   int       // zero leaves the provider default
	Temperature float64
}
