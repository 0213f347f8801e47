// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bigbrain/internal/config"
	"bigbrain/internal/models"
)

// mockModel implements models.Model and records every prompt and timeout it
// receives.
type mockModel struct {
	name    string
	respond func(prompt string) models.ModelResponse

	mu       sync.Mutex
	prompts  []string
	timeouts []time.Duration
}

func newMockModel(name, text string) *mockModel {
	return &mockModel{
		name: name,
		respond: func(string) models.ModelResponse {
			return okResponse(name, text)
		},
	}
}

func newFailingModel(name, errMsg string) *mockModel {
	return &mockModel{
		name: name,
		respond: func(string) models.ModelResponse {
			return errResponse(name, errMsg)
		},
	}
}

func (m *mockModel) Name() string { return m.name }

func (m *mockModel) Ask(prompt string, timeout time.Duration) models.ModelResponse {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.timeouts = append(m.timeouts, timeout)
	m.mu.Unlock()
	return m.respond(prompt)
}

func (m *mockModel) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockModel) prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[i]
}

func (m *mockModel) timeout(i int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeouts[i]
}

func okResponse(model, text string) models.ModelResponse {
	return models.ModelResponse{Model: model, Response: text, ElapsedSeconds: 1.0, Success: true}
}

func errResponse(model, errMsg string) models.ModelResponse {
	return models.ModelResponse{Model: model, ElapsedSeconds: 0.5, Error: errMsg}
}

func newTestOrchestrator(codex, gemini models.Model) *Orchestrator {
	return New(models.NewRegistryOf(codex, gemini), nil, nil)
}

var noCtx = Options{IncludeContext: false}

func TestAskSingle(t *testing.T) {
	codex := newMockModel("codex", "Codex says hi")
	gemini := newMockModel("gemini", "Gemini says hi")
	o := newTestOrchestrator(codex, gemini)

	resp, err := o.AskSingle(context.Background(), "codex", "test prompt", noCtx)
	if err != nil {
		t.Fatalf("AskSingle failed: %v", err)
	}
	if resp.Model != "codex" || resp.Response != "Codex says hi" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if codex.promptCount() != 1 || gemini.promptCount() != 0 {
		t.Errorf("codex asked %d times, gemini %d times", codex.promptCount(), gemini.promptCount())
	}

	resp, err = o.AskSingle(context.Background(), "gemini", "test prompt", noCtx)
	if err != nil {
		t.Fatalf("AskSingle failed: %v", err)
	}
	if resp.Model != "gemini" || resp.Response != "Gemini says hi" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAskSingleUnknownModel(t *testing.T) {
	o := newTestOrchestrator(newMockModel("codex", "a"), newMockModel("gemini", "b"))

	_, err := o.AskSingle(context.Background(), "grok", "test", noCtx)
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("err = %v, want ErrUnknownModel", err)
	}
	// The error names the valid backends
	if !strings.Contains(err.Error(), "codex, gemini") {
		t.Errorf("err = %v, want known model names listed", err)
	}
}

func TestConfiguredTimeoutsFlowToDispatch(t *testing.T) {
	cfg := &config.Config{}
	cfg.Defaults.AskTimeout = 3
	cfg.Defaults.ConsensusTimeout = 5
	cfg.Defaults.DebateTimeout = 7

	codex := newMockModel("codex", "a")
	gemini := newMockModel("gemini", "b")
	o := New(models.NewRegistryOf(codex, gemini), cfg, nil)
	ctx := context.Background()

	if _, err := o.AskSingle(ctx, "codex", "q", noCtx); err != nil {
		t.Fatalf("AskSingle failed: %v", err)
	}
	if got := codex.timeout(0); got != 3*time.Second {
		t.Errorf("ask dispatched with %v, want configured 3s", got)
	}

	if _, err := o.Consensus(ctx, "q", noCtx); err != nil {
		t.Fatalf("Consensus failed: %v", err)
	}
	if got := gemini.timeout(1); got != 5*time.Second {
		t.Errorf("consensus dispatched with %v, want configured 5s", got)
	}

	if _, err := o.Debate(ctx, "q", 1, noCtx); err != nil {
		t.Fatalf("Debate failed: %v", err)
	}
	if got := codex.timeout(2); got != 7*time.Second {
		t.Errorf("debate dispatched with %v, want configured 7s", got)
	}

	if _, err := o.Council(ctx, "q", "", noCtx); err != nil {
		t.Fatalf("Council failed: %v", err)
	}
	if got := codex.timeout(3); got != 7*time.Second {
		t.Errorf("council dispatched with %v, want configured 7s", got)
	}

	// An explicit per-call timeout still wins over the configured default
	if _, err := o.AskSingle(ctx, "codex", "q", Options{Timeout: time.Second}); err != nil {
		t.Fatalf("AskSingle failed: %v", err)
	}
	if got := codex.timeout(codex.promptCount() - 1); got != time.Second {
		t.Errorf("explicit timeout dispatched as %v, want 1s", got)
	}
}

func TestAskSingleFailureIsData(t *testing.T) {
	codex := newFailingModel("codex", "CLI not found: /nope/codex")
	o := newTestOrchestrator(codex, newMockModel("gemini", "b"))

	resp, err := o.AskSingle(context.Background(), "codex", "test", noCtx)
	if err != nil {
		t.Fatalf("adapter failure surfaced as error: %v", err)
	}
	if resp.Success {
		t.Fatal("expected failed response")
	}
	if !strings.Contains(resp.Error, "CLI not found") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestAskBoth(t *testing.T) {
	codex := newMockModel("codex", "Codex answer")
	gemini := newMockModel("gemini", "Gemini answer")
	o := newTestOrchestrator(codex, gemini)

	result, err := o.AskBoth(context.Background(), "test prompt", noCtx)
	if err != nil {
		t.Fatalf("AskBoth failed: %v", err)
	}

	if result["codex"].Response != "Codex answer" {
		t.Errorf("codex response = %q", result["codex"].Response)
	}
	if result["gemini"].Response != "Gemini answer" {
		t.Errorf("gemini response = %q", result["gemini"].Response)
	}
}

func TestAskBothRunsInParallel(t *testing.T) {
	slow := func(name string) *mockModel {
		return &mockModel{
			name: name,
			respond: func(string) models.ModelResponse {
				time.Sleep(100 * time.Millisecond)
				return okResponse(name, "slow answer")
			},
		}
	}
	o := newTestOrchestrator(slow("codex"), slow("gemini"))

	start := time.Now()
	if _, err := o.AskBoth(context.Background(), "test", noCtx); err != nil {
		t.Fatalf("AskBoth failed: %v", err)
	}
	elapsed := time.Since(start)

	// Two 100ms models in parallel should finish well under their sum
	if elapsed >= 190*time.Millisecond {
		t.Errorf("AskBoth took %v, calls appear sequential", elapsed)
	}
}

func TestAskBothOneFailure(t *testing.T) {
	codex := newFailingModel("codex", "Exit code 1: boom")
	gemini := newMockModel("gemini", "still here")
	o := newTestOrchestrator(codex, gemini)

	result, err := o.AskBoth(context.Background(), "test", noCtx)
	if err != nil {
		t.Fatalf("AskBoth failed: %v", err)
	}
	if result["codex"].Success {
		t.Error("expected codex failure")
	}
	if !result["gemini"].Success || result["gemini"].Response != "still here" {
		t.Errorf("gemini affected by codex failure: %+v", result["gemini"])
	}
}

func TestConsensus(t *testing.T) {
	codex := newMockModel("codex", "Codex position")
	gemini := newMockModel("gemini", "Gemini position")
	o := newTestOrchestrator(codex, gemini)

	result, err := o.Consensus(context.Background(), "tabs or spaces", noCtx)
	if err != nil {
		t.Fatalf("Consensus failed: %v", err)
	}

	if result.CodexResponse.Response != "Codex position" {
		t.Errorf("codex response = %q", result.CodexResponse.Response)
	}
	if result.GeminiResponse.Response != "Gemini position" {
		t.Errorf("gemini response = %q", result.GeminiResponse.Response)
	}
	if !result.Synthesis.Success {
		t.Errorf("synthesis failed: %s", result.Synthesis.Error)
	}

	// Gemini gets asked twice: topic, then synthesis. The synthesis prompt
	// quotes both answers verbatim.
	if gemini.promptCount() != 2 {
		t.Fatalf("gemini asked %d times, want 2", gemini.promptCount())
	}
	synthPrompt := gemini.prompt(1)
	for _, want := range []string{"tabs or spaces", "Codex position", "Gemini position", "Points of agreement"} {
		if !strings.Contains(synthPrompt, want) {
			t.Errorf("synthesis prompt missing %q:\n%s", want, synthPrompt)
		}
	}

	// Codex is never asked to synthesize
	if codex.promptCount() != 1 {
		t.Errorf("codex asked %d times, want 1", codex.promptCount())
	}
}

func TestConsensusFailurePlaceholder(t *testing.T) {
	codex := newFailingModel("codex", "Timeout after 180s")
	gemini := newMockModel("gemini", "Gemini position")
	o := newTestOrchestrator(codex, gemini)

	result, err := o.Consensus(context.Background(), "topic", noCtx)
	if err != nil {
		t.Fatalf("Consensus failed: %v", err)
	}

	synthPrompt := gemini.prompt(1)
	if !strings.Contains(synthPrompt, "[Codex error: Timeout after 180s]") {
		t.Errorf("synthesis prompt missing error placeholder:\n%s", synthPrompt)
	}
	if result.CodexResponse.Success {
		t.Error("codex failure not preserved in result")
	}
}

func TestDebateTwoRounds(t *testing.T) {
	codex := newMockModel("codex", "Codex round answer")
	gemini := newMockModel("gemini", "Gemini round answer")
	o := newTestOrchestrator(codex, gemini)

	result, err := o.Debate(context.Background(), "the topic", 2, noCtx)
	if err != nil {
		t.Fatalf("Debate failed: %v", err)
	}

	if len(result.Rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(result.Rounds))
	}
	if result.Topic != "the topic" {
		t.Errorf("topic = %q", result.Topic)
	}
	for i, round := range result.Rounds {
		if round.Round != i+1 {
			t.Errorf("round %d numbered %d", i, round.Round)
		}
	}

	// Round 2: each model sees the other's round-1 response verbatim
	codexRound2 := codex.prompt(1)
	if !strings.Contains(codexRound2, "Gemini round answer") {
		t.Errorf("codex round-2 prompt missing gemini's answer:\n%s", codexRound2)
	}
	if !strings.Contains(codexRound2, "round 2 of a debate") {
		t.Errorf("codex round-2 prompt missing round marker:\n%s", codexRound2)
	}
	geminiRound2 := gemini.prompt(1)
	if !strings.Contains(geminiRound2, "Codex round answer") {
		t.Errorf("gemini round-2 prompt missing codex's answer:\n%s", geminiRound2)
	}
}

func TestDebateRoundsClamped(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{5, 5},
		{10, 5},
	}

	for _, tt := range tests {
		codex := newMockModel("codex", "a")
		gemini := newMockModel("gemini", "b")
		o := newTestOrchestrator(codex, gemini)

		result, err := o.Debate(context.Background(), "topic", tt.requested, noCtx)
		if err != nil {
			t.Fatalf("Debate(%d) failed: %v", tt.requested, err)
		}
		if len(result.Rounds) != tt.want {
			t.Errorf("Debate(%d) ran %d rounds, want %d", tt.requested, len(result.Rounds), tt.want)
		}
	}
}

func TestDebateFailedSidePlaceholder(t *testing.T) {
	codex := newMockModel("codex", "Codex fine")
	gemini := newFailingModel("gemini", "Exit code 1: crashed")
	o := newTestOrchestrator(codex, gemini)

	if _, err := o.Debate(context.Background(), "topic", 2, noCtx); err != nil {
		t.Fatalf("Debate failed: %v", err)
	}

	// Codex's round-2 prompt substitutes the placeholder for gemini's
	// missing answer
	codexRound2 := codex.prompt(1)
	if !strings.Contains(codexRound2, "[no response]") {
		t.Errorf("codex round-2 prompt missing placeholder:\n%s", codexRound2)
	}
}

func TestDebateCancelledBetweenRounds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	codex := &mockModel{name: "codex", respond: func(string) models.ModelResponse {
		cancel()
		return okResponse("codex", "a")
	}}
	gemini := newMockModel("gemini", "b")
	o := newTestOrchestrator(codex, gemini)

	if _, err := o.Debate(ctx, "topic", 3, noCtx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// Round 1 completed, round 2 never started
	if codex.promptCount() != 1 {
		t.Errorf("codex asked %d times after cancellation, want 1", codex.promptCount())
	}
}
