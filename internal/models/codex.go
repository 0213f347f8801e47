// internal/models/codex.go
package models

import (
	"encoding/json"
	"strings"
)

// CodexAdapter invokes `codex exec` and parses its JSONL event stream.
type CodexAdapter struct {
	cliPath   string
	modelName string
}

func NewCodex(cliPath, modelName string) *CodexAdapter {
	return &CodexAdapter{cliPath: cliPath, modelName: modelName}
}

func (a *CodexAdapter) Name() string {
	return "codex"
}

func (a *CodexAdapter) CLIPath() string {
	return a.cliPath
}

func (a *CodexAdapter) BuildCommand(prompt string) []string {
	return []string{
		a.cliPath, "exec",
		"--model", a.modelName,
		"--json", "--full-auto", "--skip-git-repo-check",
		prompt,
	}
}

// BuildEnv exports the key the codex CLI reads (OPENAI_API_KEY), sourced
// from CODEX_API_KEY when set, falling back to OPENAI_API_KEY itself.
func (a *CodexAdapter) BuildEnv() []string {
	return apiKeyEnv("OPENAI_API_KEY", "CODEX_API_KEY", "OPENAI_API_KEY")
}

// ParseOutput extracts agent messages from the codex event log. Each stdout
// line is a JSON event; only item.completed events whose item has type
// agent_message carry answer text. The text field lives directly on the
// item, with a content array as a fallback for older CLI versions.
// Unparseable lines are skipped. If no messages are found, the raw trimmed
// stdout is returned as-is.
func (a *CodexAdapter) ParseOutput(stdout, stderr string) string {
	var messages []string

	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		if eventType, _ := event["type"].(string); eventType != "item.completed" {
			continue
		}
		item, _ := event["item"].(map[string]any)
		if itemType, _ := item["type"].(string); itemType != "agent_message" {
			continue
		}

		if text, _ := item["text"].(string); strings.TrimSpace(text) != "" {
			messages = append(messages, strings.TrimSpace(text))
			continue
		}

		content, _ := item["content"].([]any)
		for _, part := range content {
			p, ok := part.(map[string]any)
			if !ok {
				continue
			}
			if text, _ := p["text"].(string); strings.TrimSpace(text) != "" {
				messages = append(messages, strings.TrimSpace(text))
			}
		}
	}

	if len(messages) > 0 {
		return strings.Join(messages, "\n\n")
	}
	return strings.TrimSpace(stdout)
}
