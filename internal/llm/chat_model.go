package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	githubBaseURL = "https://models.inference.ai.azure.com"
)

// ChatModel adapts a langchaingo model to Completer. It serves every
// OpenAI compatible endpoint: OpenAI itself, Groq and GitHub Models.
type ChatModel struct {
	model llms.Model
	name  string
}

// NewChatModel wraps an existing langchaingo model
func NewChatModel(model llms.Model, name string) *ChatModel {
	return &ChatModel{model: model, name: name}
}

// NewOpenAICompatible creates a langchaingo OpenAI client. An empty
// baseURL targets api.openai.com.
func NewOpenAICompatible(token, model, baseURL string) (*ChatModel, error) {
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return &ChatModel{model: client, name: model}, nil
}

// Complete implements Completer
func (m *ChatModel) Complete(ctx context.Context, messages []Message, opts CallOptions) (string, error) {
	content := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		var msgType llms.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}
		content[i] = llms.TextParts(msgType, msg.Content)
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := m.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", m.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
