// internal/render/render.go
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"bigbrain/internal/db"
	"bigbrain/internal/models"
	"bigbrain/internal/orchestrator"
)

var (
	// Colors
	Green   = lipgloss.Color("#00FF00")
	Red     = lipgloss.Color("#FF6B6B")
	Magenta = lipgloss.Color("#FF00FF")
	Cyan    = lipgloss.Color("#00FFFF")
	Dim     = lipgloss.Color("#555555")
	White   = lipgloss.Color("#FFFFFF")

	// Model colors
	CodexColor  = Green
	GeminiColor = Magenta
	ClaudeColor = Cyan

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(Dim)
)

// ModelStyle returns the header style for a backend name.
func ModelStyle(model string) lipgloss.Style {
	switch model {
	case "codex":
		return lipgloss.NewStyle().Foreground(CodexColor).Bold(true)
	case "gemini":
		return lipgloss.NewStyle().Foreground(GeminiColor).Bold(true)
	case "claude":
		return lipgloss.NewStyle().Foreground(ClaudeColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(White).Bold(true)
	}
}

// Renderer produces styled terminal output for one-shot CLI runs.
type Renderer struct {
	markdown *glamour.TermRenderer
}

func New() *Renderer {
	// Markdown rendering is cosmetic; a nil renderer falls back to raw text
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		md = nil
	}
	return &Renderer{markdown: md}
}

// Response renders one model response: styled header, rendered body or
// error, dim elapsed-time footer.
func (r *Renderer) Response(resp models.ModelResponse) string {
	var sb strings.Builder

	sb.WriteString(ModelStyle(resp.Model).Render(strings.ToUpper(resp.Model)))
	sb.WriteString("\n")

	if !resp.Success {
		sb.WriteString(ErrorStyle.Render("✗ " + resp.Error))
		sb.WriteString("\n")
	} else {
		sb.WriteString(r.body(resp.Response))
	}

	sb.WriteString(DimStyle.Render(fmt.Sprintf("%.2fs", resp.ElapsedSeconds)))
	sb.WriteString("\n")
	return sb.String()
}

// Consensus renders both answers followed by the synthesis.
func (r *Renderer) Consensus(result *orchestrator.ConsensusResult) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Consensus: " + result.Topic))
	sb.WriteString("\n\n")
	sb.WriteString(r.Response(result.CodexResponse))
	sb.WriteString("\n")
	sb.WriteString(r.Response(result.GeminiResponse))
	sb.WriteString("\n")
	sb.WriteString(TitleStyle.Render("Synthesis"))
	sb.WriteString("\n")
	sb.WriteString(r.Response(result.Synthesis))
	return sb.String()
}

// Debate renders the full round history.
func (r *Renderer) Debate(result *orchestrator.DebateResult) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Debate: " + result.Topic))
	sb.WriteString("\n\n")
	for _, round := range result.Rounds {
		sb.WriteString(TitleStyle.Render(fmt.Sprintf("— Round %d —", round.Round)))
		sb.WriteString("\n")
		sb.WriteString(r.Response(round.Codex))
		sb.WriteString("\n")
		sb.WriteString(r.Response(round.Gemini))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Council renders stage-1 answers, stage-2 reviews, and the label map.
func (r *Renderer) Council(result *orchestrator.CouncilResult) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Council: " + result.Topic))
	sb.WriteString("\n\n")

	sb.WriteString(TitleStyle.Render("Stage 1 — Individual Answers"))
	sb.WriteString("\n")
	for _, name := range []string{"codex", "gemini"} {
		sb.WriteString(r.Response(result.Stage1[name]))
		sb.WriteString("\n")
	}

	sb.WriteString(TitleStyle.Render("Stage 2 — Peer Reviews"))
	sb.WriteString("\n")
	for _, name := range []string{"codex", "gemini"} {
		sb.WriteString(r.Response(result.Stage2[name]))
		sb.WriteString("\n")
	}

	sb.WriteString(TitleStyle.Render("Labels"))
	sb.WriteString("\n")
	labels := make([]string, 0, len(result.LabelMap))
	for label := range result.LabelMap {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		sb.WriteString(DimStyle.Render(fmt.Sprintf("%s = %s", label, result.LabelMap[label])))
		sb.WriteString("\n")
	}
	return sb.String()
}

// History renders the stored exchange list, most recent first.
func (r *Renderer) History(exchanges []db.Exchange) string {
	if len(exchanges) == 0 {
		return DimStyle.Render("No exchanges recorded yet.") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Exchange History"))
	sb.WriteString("\n\n")
	for _, e := range exchanges {
		sb.WriteString(fmt.Sprintf("%s  %-10s %s\n",
			DimStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")),
			e.Kind,
			truncate(e.Topic, 60)))
		sb.WriteString(DimStyle.Render("  " + e.ID))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Exchange renders one stored exchange with all its responses in insertion
// order.
func (r *Renderer) Exchange(ex *db.Exchange, responses []db.Response) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(fmt.Sprintf("%s: %s", ex.Kind, ex.Topic)))
	sb.WriteString("\n")
	sb.WriteString(DimStyle.Render(ex.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString("\n\n")

	for _, resp := range responses {
		header := strings.ToUpper(resp.Model)
		if resp.Round > 0 {
			header += fmt.Sprintf(" · round %d", resp.Round)
		}
		if resp.Stage != "" {
			header += " · " + resp.Stage
		}
		sb.WriteString(ModelStyle(resp.Model).Render(header))
		sb.WriteString("\n")

		if !resp.Success {
			sb.WriteString(ErrorStyle.Render("✗ " + resp.Error))
			sb.WriteString("\n")
		} else {
			sb.WriteString(r.body(resp.Content))
		}

		sb.WriteString(DimStyle.Render(fmt.Sprintf("%.2fs", resp.ElapsedSeconds)))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func (r *Renderer) body(text string) string {
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(text); err == nil {
			return rendered
		}
	}
	return text + "\n"
}
