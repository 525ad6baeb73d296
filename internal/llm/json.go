package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeFence  = regexp.MustCompile("```(?:json)?\\s*|\\s*```")
	jsonObject = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// ExtractJSON pulls a JSON object out of a model reply. Models often wrap
// the object in code fences or surround it with prose. When nothing
// parses, an unknown intent with zero confidence is returned.
func ExtractJSON(text string) map[string]interface{} {
	text = strings.TrimSpace(text)

	if out, ok := parseObject(text); ok {
		return out
	}

	if out, ok := parseObject(strings.TrimSpace(codeFence.ReplaceAllString(text, ""))); ok {
		return out
	}

	if m := jsonObject.FindString(text); m != "" {
		if out, ok := parseObject(m); ok {
			return out
		}
	}

	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if out, ok := parseObject(firstLine); ok {
		return out
	}

	return map[string]interface{}{
		"intent":     "unknown",
		"confidence": 0.0,
		"entities":   map[string]interface{}{},
	}
}

func parseObject(s string) (map[string]interface{}, bool) {
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// toIntentResult converts an extracted object, tolerating loose types
func toIntentResult(raw map[string]interface{}) *IntentResult {
	res := &IntentResult{Entities: map[string]interface{}{}}

	if intent, ok := raw["intent"].(string); ok {
		res.Intent = strings.TrimSpace(intent)
	}
	if ents, ok := raw["entities"].(map[string]interface{}); ok {
		for k, v := range ents {
			if v != nil {
				res.Entities[k] = v
			}
		}
	}
	switch c := raw["confidence"].(type) {
	case float64:
		res.Confidence = &c
	case string:
		var f float64
		if err := json.Unmarshal([]byte(c), &f); err == nil {
			res.Confidence = &f
		}
	}
	return res
}
