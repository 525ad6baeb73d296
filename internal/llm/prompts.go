package llm

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

const (
	PromptParse    = "parse_prompt"
	PromptResponse = "response_prompt"
)

//go:embed prompts/*.yaml
var promptFS embed.FS

// Prompts holds per locale prompt templates. Locales without a file fall
// back to the default language.
type Prompts struct {
	defaultLang string
	mu          sync.Mutex
	locales     map[string]map[string]*template.Template
}

// NewPrompts loads every embedded locale
func NewPrompts(defaultLang string) (*Prompts, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}

	entries, err := promptFS.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt locales: %w", err)
	}

	p := &Prompts{
		defaultLang: defaultLang,
		locales:     make(map[string]map[string]*template.Template),
	}
	for _, e := range entries {
		lang := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		data, err := promptFS.ReadFile(path.Join("prompts", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read prompts for %s: %w", lang, err)
		}
		if err := p.add(lang, data); err != nil {
			return nil, err
		}
	}

	if _, ok := p.locales[defaultLang]; !ok {
		return nil, fmt.Errorf("no prompts for default language %q", defaultLang)
	}
	return p, nil
}

func (p *Prompts) add(lang string, data []byte) error {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse prompts for %s: %w", lang, err)
	}

	tmpls := make(map[string]*template.Template, len(raw))
	for key, text := range raw {
		t, err := template.New(lang + "/" + key).Option("missingkey=zero").Parse(text)
		if err != nil {
			return fmt.Errorf("invalid prompt %s/%s: %w", lang, key, err)
		}
		tmpls[key] = t
	}

	p.mu.Lock()
	p.locales[lang] = tmpls
	p.mu.Unlock()
	return nil
}

// Render executes the prompt key for lang with vars
func (p *Prompts) Render(lang, key string, vars map[string]string) (string, error) {
	p.mu.Lock()
	tmpls, ok := p.locales[lang]
	if !ok || tmpls[key] == nil {
		tmpls = p.locales[p.defaultLang]
	}
	t := tmpls[key]
	p.mu.Unlock()

	if t == nil {
		return "", fmt.Errorf("prompt %q not found", key)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", key, err)
	}
	return buf.String(), nil
}
