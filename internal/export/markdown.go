// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bigbrain/internal/models"
	"bigbrain/internal/orchestrator"
)

// ExportConsensus renders a consensus result as a markdown document.
func ExportConsensus(result *orchestrator.ConsensusResult) string {
	var sb strings.Builder

	writeHeader(&sb, "Consensus", result.Topic)

	sb.WriteString("## Codex\n\n")
	writeResponse(&sb, result.CodexResponse)
	sb.WriteString("## Gemini\n\n")
	writeResponse(&sb, result.GeminiResponse)
	sb.WriteString("## Synthesis\n\n")
	writeResponse(&sb, result.Synthesis)

	writeFooter(&sb)
	return sb.String()
}

// ExportDebate renders a debate transcript as a markdown document.
func ExportDebate(result *orchestrator.DebateResult) string {
	var sb strings.Builder

	writeHeader(&sb, "Debate", result.Topic)

	for _, round := range result.Rounds {
		fmt.Fprintf(&sb, "## Round %d\n\n", round.Round)
		sb.WriteString("### Codex\n\n")
		writeResponse(&sb, round.Codex)
		sb.WriteString("### Gemini\n\n")
		writeResponse(&sb, round.Gemini)
	}

	writeFooter(&sb)
	return sb.String()
}

// ExportCouncil renders a council result, revealing the label map the
// reviewing models never saw.
func ExportCouncil(result *orchestrator.CouncilResult) string {
	var sb strings.Builder

	writeHeader(&sb, "Council", result.Topic)

	sb.WriteString("## Labels\n\n")
	for _, label := range sortedLabels(result.LabelMap) {
		fmt.Fprintf(&sb, "- **%s**: %s\n", label, result.LabelMap[label])
	}
	sb.WriteString("\n")

	sb.WriteString("## Stage 1 — Individual Answers\n\n")
	for _, name := range []string{"codex", "gemini"} {
		fmt.Fprintf(&sb, "### %s\n\n", formatSource(name))
		writeResponse(&sb, result.Stage1[name])
	}

	sb.WriteString("## Stage 2 — Peer Reviews\n\n")
	for _, name := range []string{"codex", "gemini"} {
		fmt.Fprintf(&sb, "### %s\n\n", formatSource(name))
		writeResponse(&sb, result.Stage2[name])
	}

	writeFooter(&sb)
	return sb.String()
}

// WriteFile writes a markdown document, creating parent directories.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Filename builds a dated filename for a topic: YYYY-MM-DD-topic-slug.md
func Filename(kind, topic string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s.md", at.Format("2006-01-02"), kind, sanitizeFilename(topic))
}

// ResolvePath expands a directory target into a generated filename inside
// it. Any other path comes back unchanged.
func ResolvePath(path, kind, topic string, at time.Time) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, Filename(kind, topic, at))
	}
	return path
}

func writeHeader(sb *strings.Builder, kind, topic string) {
	fmt.Fprintf(sb, "# %s: %s\n\n", kind, topic)
	sb.WriteString("---\n\n")
}

func writeFooter(sb *strings.Builder) {
	sb.WriteString("---\n\n")
	fmt.Fprintf(sb, "*Exported from BigBrain on %s*\n", time.Now().Format("2006-01-02 15:04:05"))
}

func writeResponse(sb *strings.Builder, resp models.ModelResponse) {
	if !resp.Success {
		fmt.Fprintf(sb, "*Failed after %.2fs: %s*\n\n", resp.ElapsedSeconds, resp.Error)
		return
	}

	content := strings.TrimSpace(resp.Response)
	if containsCodeBlock(content) {
		// Content already has code blocks, render as-is
		sb.WriteString(content)
		sb.WriteString("\n")
	} else {
		for _, line := range strings.Split(content, "\n") {
			sb.WriteString("> ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(sb, "\n*%.2fs*\n\n", resp.ElapsedSeconds)
}

func formatSource(source string) string {
	switch source {
	case "codex":
		return "Codex"
	case "gemini":
		return "Gemini"
	case "claude":
		return "Claude"
	default:
		return source
	}
}

func sortedLabels(labelMap map[string]string) []string {
	// Labels are "Model A".."Model C"; lexical order is presentation order
	labels := make([]string, 0, len(labelMap))
	for label := range labelMap {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// sanitizeFilename reduces a topic to a filesystem-safe slug.
func sanitizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_':
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")

	if result == "" {
		result = "exchange"
	}
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}

func containsCodeBlock(content string) bool {
	return strings.Contains(content, "```")
}
