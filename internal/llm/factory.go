package llm

import (
	"fmt"
	"strings"
	"sync"

	"primos/internal/config"

	"go.uber.org/zap"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGitHub = "github"

	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGitHubModel = "gpt-4o-mini"
)

// Factory builds providers by name and caches the instances
type Factory struct {
	cfg       config.LLMConfig
	prompts   *Prompts
	observer  CallObserver
	logger    *zap.Logger
	instances map[string]Provider
	mu        sync.Mutex
}

// NewFactory creates a provider factory
func NewFactory(cfg config.LLMConfig, observer CallObserver, logger *zap.Logger) (*Factory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	prompts, err := NewPrompts(cfg.DefaultLang)
	if err != nil {
		return nil, err
	}
	return &Factory{
		cfg:       cfg,
		prompts:   prompts,
		observer:  observer,
		logger:    logger.Named("llm"),
		instances: make(map[string]Provider),
	}, nil
}

// Default returns the configured provider
func (f *Factory) Default() (Provider, error) {
	return f.Get(f.cfg.Provider)
}

// Get returns an initialized provider. An empty name selects groq.
func (f *Factory) Get(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = ProviderGroq
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.instances[name]; ok {
		return p, nil
	}

	completer, err := f.newCompleter(name)
	if err != nil {
		return nil, err
	}

	resilient := NewResilientCompleter(name, completer, f.cfg.Timeout, f.cfg.MaxRetries, f.logger)
	assistant := NewAssistant(name, resilient, f.prompts, f.cfg.Temperature, f.logger)
	if f.observer != nil {
		assistant.SetObserver(f.observer)
	}

	f.instances[name] = assistant
	f.logger.Info("llm provider initialized", zap.String("provider", name))
	return assistant, nil
}

func (f *Factory) newCompleter(name string) (Completer, error) {
	switch name {
	case ProviderGroq:
		if f.cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("%w: GROQ_API_KEY is not set", ErrMissingCredentials)
		}
		return NewOpenAICompatible(f.cfg.GroqAPIKey, f.model(defaultGroqModel), groqBaseURL)
	case ProviderOpenAI:
		if f.cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredentials)
		}
		return NewOpenAICompatible(f.cfg.OpenAIAPIKey, f.model(defaultOpenAIModel), "")
	case ProviderGitHub:
		if f.cfg.GitHubToken == "" {
			return nil, fmt.Errorf("%w: GITHUB_TOKEN is not set", ErrMissingCredentials)
		}
		return NewOpenAICompatible(f.cfg.GitHubToken, f.model(defaultGitHubModel), githubBaseURL)
	case ProviderAzure:
		return NewAzureModel(f.cfg.Azure.Endpoint, f.cfg.Azure.APIKey, f.cfg.Azure.Deployment)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}

func (f *Factory) model(fallback string) string {
	if f.cfg.Model != "" {
		return f.cfg.Model
	}
	return fallback
}
