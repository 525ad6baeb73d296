package nlp

import (
	"context"

	"primos/internal/llm"

	"go.uber.org/zap"
)

const defaultLLMConfidence = 0.5

// IntentExtractor is the language model fallback used when no regex matches
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, text, lang string) (*llm.IntentResult, error)
}

// HybridParser tries the regex table first and falls back to a language
// model when one is configured
type HybridParser struct {
	regex  *RegexParser
	llm    IntentExtractor
	logger *zap.Logger
}

// NewHybridParser creates a parser. extractor may be nil, in which case
// unmatched utterances get an empty intent.
func NewHybridParser(extractor IntentExtractor, logger *zap.Logger) *HybridParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridParser{
		regex:  NewRegexParser(),
		llm:    extractor,
		logger: logger.Named("nlp"),
	}
}

// HasLLM reports whether a fallback model is configured
func (h *HybridParser) HasLLM() bool {
	return h.llm != nil
}

// Parse resolves the intent and entities of text
func (h *HybridParser) Parse(ctx context.Context, text string) Result {
	if res, ok := h.regex.Parse(text); ok {
		h.logger.Debug("parsed by regex", zap.String("intent", res.Intent))
		return *res
	}

	lang := DetectLanguage(text)
	if h.llm == nil {
		return Result{Lang: lang, Source: SourceNone}
	}

	out, err := h.llm.ExtractIntent(ctx, text, lang)
	if err != nil {
		h.logger.Warn("llm intent extraction failed", zap.Error(err))
		return Result{Lang: lang, Source: SourceError}
	}

	confidence := defaultLLMConfidence
	if out.Confidence != nil {
		confidence = *out.Confidence
	}
	return Result{
		Intent:     out.Intent,
		Lang:       lang,
		Entities:   EntitiesFromMap(out.Entities),
		Source:     SourceLLM,
		Confidence: confidence,
	}
}
