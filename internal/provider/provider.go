// Package provider defines the unified interface and shared types for all
// LLM providers. Each provider adapter (blackbird.go, openai.go, etc.)
// normalizes its vendor-specific response into one ordered Event sequence,
// so downstream components never branch on the provider kind per chunk.
package provider

import (
	"context"
	"fmt"
)

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in the conversation history, as sent on the
// wire to every provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ── Request types ────────────────────────────────────────────────────────────

// ChatRequest is the unified request format sent to a provider.
type ChatRequest struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
}

// ── Event types (streaming output) ───────────────────────────────────────────

type EventType int

const (
	// EventTextDelta: incremental text output, appended to the session buffer.
	EventTextDelta EventType = iota

	// EventDone: end of this response.
	EventDone

	// EventError: the stream failed; Err carries the cause.
	EventError
)

// Event is a provider's unified streaming output.
type Event struct {
	Type      EventType
	TextDelta string
	Err       error
}

// ── Provider interface ───────────────────────────────────────────────────────

// Provider is the unified interface over all LLM backends.
// Implementers are responsible for:
//  1. converting the unified ChatRequest to their API's request format
//  2. converting their response into the unified Event sequence
//  3. surfacing transport faults as a single EventError
//
// Buffered (non-streaming) providers still deliver through the same channel
// as exactly one EventTextDelta followed by EventDone.
type Provider interface {
	// Chat starts a generation. The returned channel emits Events until
	// EventDone or EventError, then closes. Callers must drain the channel.
	Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error)

	// Name returns the provider identifier, e.g. "blackbird", "openai".
	Name() string

	// Streaming reports whether the provider delivers incremental deltas.
	// Buffered providers return false; their whole response arrives as one
	// terminal delta.
	Streaming() bool
}

// ── Error types ──────────────────────────────────────────────────────────────

// ConfigurationError reports that no usable provider credential is present.
// Read-only features remain available; only live generation is affected.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "no LLM provider configured: " + e.Reason
}

// TransportError reports a connection-level fault (reset, refused, bad
// status) while talking to a provider. It fails only the affected session
// and is retryable.
type TransportError struct {
	Provider string
	Status   int // HTTP status, 0 when the connection itself failed
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s transport error: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
