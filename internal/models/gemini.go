// internal/models/gemini.go
package models

import (
	"encoding/json"
	"strings"
)

// GeminiAdapter invokes `gemini -p` and parses its single JSON document.
type GeminiAdapter struct {
	cliPath   string
	modelName string
}

func NewGemini(cliPath, modelName string) *GeminiAdapter {
	return &GeminiAdapter{cliPath: cliPath, modelName: modelName}
}

func (a *GeminiAdapter) Name() string {
	return "gemini"
}

func (a *GeminiAdapter) CLIPath() string {
	return a.cliPath
}

func (a *GeminiAdapter) BuildCommand(prompt string) []string {
	return []string{
		a.cliPath,
		"--model", a.modelName,
		"-p", prompt,
		"--output-format", "json",
	}
}

// BuildEnv exports the key the gemini CLI reads (GEMINI_API_KEY), preferring
// GEMINI_API_KEY over the shared GOOGLE_API_KEY.
func (a *GeminiAdapter) BuildEnv() []string {
	return apiKeyEnv("GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
}

// objectFields is the ordered set of field names that may carry the answer
// in a gemini JSON object.
var objectFields = []string{"response", "text", "content", "result"}

// elementFields is the narrower set searched per array element.
var elementFields = []string{"response", "text", "content"}

// ParseOutput reads the answer from the gemini CLI's JSON output. An object
// yields the first present field of objectFields; an array joins one value
// per element. Anything that fails to decode, including the CLI's known
// habit of emitting plain text despite --output-format json, falls back to
// raw trimmed stdout.
func (a *GeminiAdapter) ParseOutput(stdout, stderr string) string {
	var data any
	if err := json.Unmarshal([]byte(stdout), &data); err == nil {
		switch v := data.(type) {
		case map[string]any:
			if text, ok := objectText(v, objectFields); ok {
				return text
			}
		case []any:
			if text, ok := arrayText(v); ok {
				return text
			}
		}
	}
	return strings.TrimSpace(stdout)
}

// objectText returns the value of the first present field, trimmed if it's a
// string, re-serialized to JSON otherwise.
func objectText(obj map[string]any, fields []string) (string, bool) {
	for _, key := range fields {
		value, ok := obj[key]
		if !ok {
			continue
		}
		if s, isStr := value.(string); isStr {
			return strings.TrimSpace(s), true
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return "", false
		}
		return string(raw), true
	}
	return "", false
}

func arrayText(arr []any) (string, bool) {
	var parts []string
	for _, item := range arr {
		if obj, isObj := item.(map[string]any); isObj {
			if text, ok := objectText(obj, elementFields); ok {
				parts = append(parts, text)
				continue
			}
		}
		if s, isStr := item.(string); isStr {
			parts = append(parts, strings.TrimSpace(s))
			continue
		}
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		parts = append(parts, string(raw))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}
