package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	intentTemperature = 0.1
	intentMaxTokens   = 200
	replyMaxTokens    = 150

	jsonOnlySuffix = "\n\nIMPORTANT: Respond with ONLY valid JSON. No explanations or extra text."
)

// Assistant implements Provider on top of any Completer
type Assistant struct {
	name        string
	completer   Completer
	prompts     *Prompts
	temperature float64
	observer    CallObserver
	logger      *zap.Logger
}

// NewAssistant creates a provider named name
func NewAssistant(name string, completer Completer, prompts *Prompts, temperature float64, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		name:        name,
		completer:   completer,
		prompts:     prompts,
		temperature: temperature,
		logger:      logger.With(zap.String("provider", name)),
	}
}

// Name returns the provider name
func (a *Assistant) Name() string {
	return a.name
}

// SetObserver registers a call observer, typically the metrics collector
func (a *Assistant) SetObserver(o CallObserver) {
	a.observer = o
}

// ExtractIntent implements Provider
func (a *Assistant) ExtractIntent(ctx context.Context, text, lang string) (*IntentResult, error) {
	prompt, err := a.prompts.Render(lang, PromptParse, map[string]string{"query": text})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := a.completer.Complete(ctx, []Message{
		{Role: RoleUser, Content: prompt + jsonOnlySuffix},
	}, CallOptions{Temperature: intentTemperature, MaxTokens: intentMaxTokens})
	a.observe("extract_intent", start, err)
	if err != nil {
		return nil, fmt.Errorf("intent extraction failed: %w", err)
	}

	result := toIntentResult(ExtractJSON(reply))
	a.logger.Debug("intent extracted",
		zap.String("intent", result.Intent),
		zap.Int("entities", len(result.Entities)))
	return result, nil
}

// GenerateResponse implements Provider
func (a *Assistant) GenerateResponse(ctx context.Context, text, convoContext, lang string) (string, error) {
	system, err := a.prompts.Render(lang, PromptResponse, nil)
	if err != nil {
		return "", err
	}
	if convoContext != "" {
		system += "\n\nContext:\n" + convoContext
	}

	start := time.Now()
	reply, err := a.completer.Complete(ctx, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: "User said: " + text},
	}, CallOptions{Temperature: a.temperature, MaxTokens: replyMaxTokens})
	a.observe("generate_response", start, err)
	if err != nil {
		return "", fmt.Errorf("response generation failed: %w", err)
	}
	return reply, nil
}

func (a *Assistant) observe(op string, start time.Time, err error) {
	if a.observer != nil {
		a.observer.RecordLLMCall(a.name, op, time.Since(start), err)
	}
}
