// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"bigbrain/internal/models"
	"bigbrain/internal/orchestrator"
)

// Serializable mirrors of the orchestrator result types, with elapsed time
// rounded to two decimals for presentation.

type modelResult struct {
	Model          string  `json:"model"`
	Response       string  `json:"response"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
}

type consensusResult struct {
	Topic          string      `json:"topic"`
	CodexResponse  modelResult `json:"codex_response"`
	GeminiResponse modelResult `json:"gemini_response"`
	Synthesis      modelResult `json:"synthesis"`
}

type debateRound struct {
	Round  int         `json:"round"`
	Codex  modelResult `json:"codex"`
	Gemini modelResult `json:"gemini"`
}

type debateResult struct {
	Topic  string        `json:"topic"`
	Rounds []debateRound `json:"rounds"`
}

type councilResult struct {
	Topic    string                 `json:"topic"`
	LabelMap map[string]string      `json:"label_map"`
	Stage1   map[string]modelResult `json:"stage1_individual"`
	Stage2   map[string]modelResult `json:"stage2_peer_review"`
}

func formatResponse(r models.ModelResponse) modelResult {
	return modelResult{
		Model:          r.Model,
		Response:       r.Response,
		ElapsedSeconds: math.Round(r.ElapsedSeconds*100) / 100,
		Success:        r.Success,
		Error:          r.Error,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// callOptions reads the arguments shared by every tool.
func callOptions(req mcp.CallToolRequest, defaultTimeoutSec int) orchestrator.Options {
	timeoutSec := req.GetFloat("timeout", float64(defaultTimeoutSec))
	return orchestrator.Options{
		ProjectPath:    req.GetString("project_path", ""),
		IncludeContext: req.GetBool("include_context", true),
		Timeout:        time.Duration(timeoutSec * float64(time.Second)),
	}
}

func withCommonArgs(opts []mcp.ToolOption, defaultTimeoutSec int) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("project_path",
			mcp.Description("Optional project root path. Defaults to the BIGBRAIN_PROJECT_PATH env var, then the working directory.")),
		mcp.WithBoolean("include_context",
			mcp.DefaultBool(true),
			mcp.Description("Whether to prepend the project's CLAUDE.md/MEMORY.md as read-only context.")),
		mcp.WithNumber("timeout",
			mcp.DefaultNumber(float64(defaultTimeoutSec)),
			mcp.Description("Max seconds to wait per model call.")),
	)
}

func askCodexTool(defaultTimeoutSec int) mcp.Tool {
	return mcp.NewTool("ask_codex", withCommonArgs([]mcp.ToolOption{
		mcp.WithDescription("Ask Codex (OpenAI) a question. The prompt is enriched with project context unless include_context is false."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The question or task for Codex.")),
	}, defaultTimeoutSec)...)
}

func askGeminiTool(defaultTimeoutSec int) mcp.Tool {
	return mcp.NewTool("ask_gemini", withCommonArgs([]mcp.ToolOption{
		mcp.WithDescription("Ask Gemini (Google) a question. The prompt is enriched with project context unless include_context is false."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The question or task for Gemini.")),
	}, defaultTimeoutSec)...)
}

func askBothTool(defaultTimeoutSec int) mcp.Tool {
	return mcp.NewTool("ask_both_models", withCommonArgs([]mcp.ToolOption{
		mcp.WithDescription("Ask both Codex and Gemini the same question simultaneously and return both responses for comparison."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The question or task for both models.")),
	}, defaultTimeoutSec)...)
}

func consensusTool(defaultTimeoutSec int) mcp.Tool {
	return mcp.NewTool("request_consensus", withCommonArgs([]mcp.ToolOption{
		mcp.WithDescription("Ask both models about a topic, then synthesize their perspectives into agreements, differences, and a recommendation."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("The topic or question to build consensus on.")),
	}, defaultTimeoutSec)...)
}

func debateTool(defaultTimeoutSec int) mcp.Tool {
	return mcp.NewTool("request_debate", withCommonArgs([]mcp.ToolOption{
		mcp.WithDescription("Run a multi-round debate between Codex and Gemini. Each model sees the other's previous response and refines its position."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("The topic to debate.")),
		mcp.WithNumber("rounds",
			mcp.DefaultNumber(2),
			mcp.Description("Number of debate rounds (1-5).")),
	}, defaultTimeoutSec)...)
}

func councilTool(defaultTimeoutSec int) mcp.Tool {
	return mcp.NewTool("request_council", withCommonArgs([]mcp.ToolOption{
		mcp.WithDescription("Run a three-stage council: both models answer independently, then blind-review all answers anonymized as Model A/B/C. Synthesis is left to you, the chairman. Pass your own opinion via claude_opinion to have it reviewed too."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("The question or topic for the council.")),
		mcp.WithString("claude_opinion",
			mcp.Description("Optional: your own initial answer, included anonymously in the peer review.")),
	}, defaultTimeoutSec)...)
}

func (s *Server) handleAskCodex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleAskSingle(ctx, req, "codex")
}

func (s *Server) handleAskGemini(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleAskSingle(ctx, req, "gemini")
}

func (s *Server) handleAskSingle(ctx context.Context, req mcp.CallToolRequest, model string) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := callOptions(req, s.askSec)

	resp, err := s.orch.AskSingle(ctx, model, prompt, opts)
	if err != nil {
		return nil, err
	}

	s.record("ask_"+model, prompt, opts.ProjectPath, []recorded{{resp: resp}})
	return jsonResult(formatResponse(resp))
}

func (s *Server) handleAskBoth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := callOptions(req, s.askSec)

	responses, err := s.orch.AskBoth(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}

	s.record("ask_both", prompt, opts.ProjectPath, []recorded{
		{resp: responses["codex"]},
		{resp: responses["gemini"]},
	})

	out := make(map[string]modelResult, len(responses))
	for name, resp := range responses {
		out[name] = formatResponse(resp)
	}
	return jsonResult(out)
}

func (s *Server) handleConsensus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := req.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := callOptions(req, s.consensusSec)

	result, err := s.orch.Consensus(ctx, topic, opts)
	if err != nil {
		return nil, err
	}

	s.record("consensus", topic, opts.ProjectPath, []recorded{
		{resp: result.CodexResponse},
		{resp: result.GeminiResponse},
		{stage: "synthesis", resp: result.Synthesis},
	})

	return jsonResult(consensusResult{
		Topic:          result.Topic,
		CodexResponse:  formatResponse(result.CodexResponse),
		GeminiResponse: formatResponse(result.GeminiResponse),
		Synthesis:      formatResponse(result.Synthesis),
	})
}

func (s *Server) handleDebate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := req.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rounds := req.GetInt("rounds", 2)
	opts := callOptions(req, s.debateSec)

	result, err := s.orch.Debate(ctx, topic, rounds, opts)
	if err != nil {
		return nil, err
	}

	var entries []recorded
	out := debateResult{Topic: result.Topic}
	for _, round := range result.Rounds {
		entries = append(entries,
			recorded{round: round.Round, resp: round.Codex},
			recorded{round: round.Round, resp: round.Gemini})
		out.Rounds = append(out.Rounds, debateRound{
			Round:  round.Round,
			Codex:  formatResponse(round.Codex),
			Gemini: formatResponse(round.Gemini),
		})
	}
	s.record("debate", topic, opts.ProjectPath, entries)

	return jsonResult(out)
}

func (s *Server) handleCouncil(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := req.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opinion := req.GetString("claude_opinion", "")
	opts := callOptions(req, s.debateSec)

	result, err := s.orch.Council(ctx, topic, opinion, opts)
	if err != nil {
		return nil, err
	}

	s.record("council", topic, opts.ProjectPath, []recorded{
		{stage: "individual", resp: result.Stage1["codex"]},
		{stage: "individual", resp: result.Stage1["gemini"]},
		{stage: "peer_review", resp: result.Stage2["codex"]},
		{stage: "peer_review", resp: result.Stage2["gemini"]},
	})

	out := councilResult{
		Topic:    result.Topic,
		LabelMap: result.LabelMap,
		Stage1:   make(map[string]modelResult, len(result.Stage1)),
		Stage2:   make(map[string]modelResult, len(result.Stage2)),
	}
	for name, resp := range result.Stage1 {
		out.Stage1[name] = formatResponse(resp)
	}
	for name, resp := range result.Stage2 {
		out.Stage2[name] = formatResponse(resp)
	}
	return jsonResult(out)
}
