// internal/orchestrator/council.go
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	projctx "bigbrain/internal/context"
	"bigbrain/internal/models"
)

// failedToRespond is the anonymized stand-in for a stage-1 answer that never
// arrived.
const failedToRespond = "[failed to respond]"

// councilEntry is one anonymized answer shown to the reviewers.
type councilEntry struct {
	label string
	model string
	text  string
}

// CouncilResult carries everything the external chairman needs: the raw
// stage-1 answers, both peer reviews, and the mapping from anonymous label
// back to backend. The reviewing models never see the label map.
type CouncilResult struct {
	Topic    string                          `json:"topic"`
	LabelMap map[string]string               `json:"label_map"`
	Stage1   map[string]models.ModelResponse `json:"stage1_individual"`
	Stage2   map[string]models.ModelResponse `json:"stage2_peer_review"`
}

// Council runs the three-stage pattern: independent answers, blind peer
// review of anonymized answers, and synthesis left to the caller. When the
// caller supplies its own opinion it joins the review pool as "Model A",
// shifting codex and gemini to "Model B" and "Model C". Label order is
// fixed; the review prompts are sensitive to it.
func (o *Orchestrator) Council(ctx context.Context, topic, callerOpinion string, opts Options) (*CouncilResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Timeout == 0 {
		opts.Timeout = o.debateTimeout
	}

	log := o.log.With(zap.String("call_id", uuid.NewString()), zap.String("op", "council"))
	log.Info("starting", zap.Bool("caller_opinion", callerOpinion != ""))

	// Stage 1: independent answers, regardless of any caller opinion
	fullTopic := projctx.BuildPrompt(topic, opts.ProjectPath, opts.IncludeContext)
	codexResp, geminiResp := o.askPair(fullTopic, fullTopic, opts.Timeout)
	logResponse(log, codexResp)
	logResponse(log, geminiResp)

	entries := anonymize(codexResp, geminiResp, callerOpinion)

	// Stage 2: both models review the whole pool blind, each one's own
	// answer included
	reviewPrompt := buildReviewPrompt(topic, entries)
	codexReview, geminiReview := o.askPair(reviewPrompt, reviewPrompt, opts.Timeout)
	logResponse(log, codexReview)
	logResponse(log, geminiReview)

	labelMap := make(map[string]string, len(entries))
	for _, e := range entries {
		labelMap[e.label] = e.model
	}

	// Stage 3 is the caller's: no model synthesizes here
	return &CouncilResult{
		Topic:    topic,
		LabelMap: labelMap,
		Stage1: map[string]models.ModelResponse{
			"codex":  codexResp,
			"gemini": geminiResp,
		},
		Stage2: map[string]models.ModelResponse{
			"codex":  codexReview,
			"gemini": geminiReview,
		},
	}, nil
}

// anonymize assigns labels in the fixed order the review prompt depends on.
// A caller opinion, when present, always takes "Model A".
func anonymize(codexResp, geminiResp models.ModelResponse, callerOpinion string) []councilEntry {
	var entries []councilEntry
	if callerOpinion != "" {
		entries = append(entries, councilEntry{label: "Model A", model: "claude", text: callerOpinion})
	}
	next := 'A' + rune(len(entries))
	entries = append(entries, councilEntry{
		label: fmt.Sprintf("Model %c", next),
		model: "codex",
		text:  answerOr(codexResp, failedToRespond),
	})
	entries = append(entries, councilEntry{
		label: fmt.Sprintf("Model %c", next+1),
		model: "gemini",
		text:  answerOr(geminiResp, failedToRespond),
	})
	return entries
}

func buildReviewPrompt(topic string, entries []councilEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The following question was posed to several AI models:\n\"%s\"\n\n", topic)
	sb.WriteString("Their answers, anonymized:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "=== %s ===\n%s\n\n", e.label, e.text)
	}
	sb.WriteString(
		"Review every answer. Rank them from best to worst by label, " +
			"note the strengths and weaknesses of each, flag any factual or " +
			"technical errors, and state which single answer you recommend.")
	return sb.String()
}
