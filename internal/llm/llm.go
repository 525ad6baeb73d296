package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownProvider is returned by the factory for unsupported provider names
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrMissingCredentials is returned when a provider has no API key configured
	ErrMissingCredentials = errors.New("llm credentials not configured")
	// ErrEmptyResponse is returned when a model answers with no choices
	ErrEmptyResponse = errors.New("empty response from model")
)

// Role of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CallOptions tune a single completion
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// Completer sends chat messages to a model and returns the reply text
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts CallOptions) (string, error)
}

// IntentResult is the structured answer of an intent extraction call
type IntentResult struct {
	Intent     string                 `json:"intent"`
	Entities   map[string]interface{} `json:"entities"`
	Confidence *float64               `json:"confidence,omitempty"`
}

// Provider is the language model surface used by the chat pipeline
type Provider interface {
	Name() string
	// ExtractIntent classifies text and extracts entities
	ExtractIntent(ctx context.Context, text, lang string) (*IntentResult, error)
	// GenerateResponse phrases a reply for text given a context block
	GenerateResponse(ctx context.Context, text, convoContext, lang string) (string, error)
}

// CallObserver is notified after every model call
type CallObserver interface {
	RecordLLMCall(provider, operation string, duration time.Duration, err error)
}
