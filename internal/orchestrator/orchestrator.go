// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bigbrain/internal/config"
	projctx "bigbrain/internal/context"
	"bigbrain/internal/models"
)

// ErrUnknownModel reports a backend name outside the configured set. It is
// the only hard failure the orchestrator produces: everything a model does
// wrong comes back as data inside its ModelResponse.
var ErrUnknownModel = errors.New("unknown model")

// noResponse stands in for a failed side's answer when it is forwarded into
// a later prompt.
const noResponse = "[no response]"

// Options carries the per-call knobs shared by every collaboration pattern.
type Options struct {
	ProjectPath    string
	IncludeContext bool
	Timeout        time.Duration // zero means the default ask timeout
}

// Orchestrator composes the two CLI models into collaboration patterns.
// It is read-only after construction and safe for concurrent calls.
type Orchestrator struct {
	registry *models.Registry
	codex    models.Model
	gemini   models.Model
	log      *zap.Logger

	askTimeout       time.Duration
	consensusTimeout time.Duration
	debateTimeout    time.Duration
}

// New builds an orchestrator over the registry's models. A nil cfg falls
// back to the built-in timeout defaults.
func New(registry *models.Registry, cfg *config.Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		registry:         registry,
		codex:            registry.Get("codex"),
		gemini:           registry.Get("gemini"),
		log:              log,
		askTimeout:       config.DefaultAskTimeout * time.Second,
		consensusTimeout: config.DefaultConsensusTimeout * time.Second,
		debateTimeout:    config.DefaultDebateTimeout * time.Second,
	}
	if cfg != nil {
		o.askTimeout = cfg.AskTimeout()
		o.consensusTimeout = cfg.ConsensusTimeout()
		o.debateTimeout = cfg.DebateTimeout()
	}
	return o
}

func (o *Orchestrator) timeout(opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	return o.askTimeout
}

// AskSingle asks one backend by name. The response reports its own failure;
// the returned error fires only for an unrecognized backend name.
func (o *Orchestrator) AskSingle(ctx context.Context, model, prompt string, opts Options) (models.ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return models.ModelResponse{}, err
	}

	m := o.registry.Get(model)
	if m == nil {
		return models.ModelResponse{}, fmt.Errorf("%w: %q (known models: %s)",
			ErrUnknownModel, model, strings.Join(o.registry.Names(), ", "))
	}

	log := o.log.With(zap.String("call_id", uuid.NewString()), zap.String("op", "ask_single"), zap.String("model", model))
	log.Info("dispatching")

	full := projctx.BuildPrompt(prompt, opts.ProjectPath, opts.IncludeContext)
	resp := m.Ask(full, o.timeout(opts))
	logResponse(log, resp)
	return resp, nil
}

// AskBoth asks codex and gemini the same question concurrently and returns
// both responses keyed by backend name. A failure on one side never affects
// the other; total latency is the slower of the two.
func (o *Orchestrator) AskBoth(ctx context.Context, prompt string, opts Options) (map[string]models.ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := o.log.With(zap.String("call_id", uuid.NewString()), zap.String("op", "ask_both"))
	log.Info("dispatching")

	full := projctx.BuildPrompt(prompt, opts.ProjectPath, opts.IncludeContext)
	codexResp, geminiResp := o.askPair(full, full, o.timeout(opts))
	logResponse(log, codexResp)
	logResponse(log, geminiResp)

	return map[string]models.ModelResponse{
		"codex":  codexResp,
		"gemini": geminiResp,
	}, nil
}

// askPair launches both models before waiting on either, so the two
// subprocess waits overlap.
func (o *Orchestrator) askPair(codexPrompt, geminiPrompt string, timeout time.Duration) (models.ModelResponse, models.ModelResponse) {
	var codexResp, geminiResp models.ModelResponse

	var g errgroup.Group
	g.Go(func() error {
		codexResp = o.codex.Ask(codexPrompt, timeout)
		return nil
	})
	g.Go(func() error {
		geminiResp = o.gemini.Ask(geminiPrompt, timeout)
		return nil
	})
	_ = g.Wait()

	return codexResp, geminiResp
}

// ConsensusResult holds both independent answers plus the synthesis.
type ConsensusResult struct {
	Topic          string               `json:"topic"`
	CodexResponse  models.ModelResponse `json:"codex_response"`
	GeminiResponse models.ModelResponse `json:"gemini_response"`
	Synthesis      models.ModelResponse `json:"synthesis"`
}

// Consensus asks both models independently, then has gemini synthesize the
// two answers into agreements, differences, and a recommendation.
func (o *Orchestrator) Consensus(ctx context.Context, topic string, opts Options) (*ConsensusResult, error) {
	if opts.Timeout == 0 {
		opts.Timeout = o.consensusTimeout
	}

	responses, err := o.AskBoth(ctx, topic, opts)
	if err != nil {
		return nil, err
	}
	codexResp := responses["codex"]
	geminiResp := responses["gemini"]

	codexAnswer := codexResp.Response
	if !codexResp.Success {
		codexAnswer = fmt.Sprintf("[Codex error: %s]", codexResp.Error)
	}
	geminiAnswer := geminiResp.Response
	if !geminiResp.Success {
		geminiAnswer = fmt.Sprintf("[Gemini error: %s]", geminiResp.Error)
	}

	synthesisPrompt := fmt.Sprintf(
		"Two AI models were asked: \"%s\"\n\n"+
			"Codex's answer:\n%s\n\n"+
			"Gemini's answer:\n%s\n\n"+
			"Synthesize these perspectives. Identify:\n"+
			"1. Points of agreement\n"+
			"2. Key differences\n"+
			"3. A balanced recommendation\n"+
			"Be concise and structured.",
		topic, codexAnswer, geminiAnswer,
	)

	synthesis := o.gemini.Ask(synthesisPrompt, opts.Timeout)

	return &ConsensusResult{
		Topic:          topic,
		CodexResponse:  codexResp,
		GeminiResponse: geminiResp,
		Synthesis:      synthesis,
	}, nil
}

// DebateRound is one entry of debate history.
type DebateRound struct {
	Round  int                  `json:"round"`
	Codex  models.ModelResponse `json:"codex"`
	Gemini models.ModelResponse `json:"gemini"`
}

// DebateResult is the full ordered history of a debate.
type DebateResult struct {
	Topic  string        `json:"topic"`
	Rounds []DebateRound `json:"rounds"`
}

// Debate runs a multi-round exchange where each model refines its position
// against the other's most recent answer. Rounds are clamped to [1,5];
// within a round the two calls run in parallel, across rounds strictly in
// sequence.
func (o *Orchestrator) Debate(ctx context.Context, topic string, rounds int, opts Options) (*DebateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rounds < 1 {
		rounds = 1
	}
	if rounds > 5 {
		rounds = 5
	}
	if opts.Timeout == 0 {
		opts.Timeout = o.debateTimeout
	}

	log := o.log.With(zap.String("call_id", uuid.NewString()), zap.String("op", "debate"))
	log.Info("starting", zap.Int("rounds", rounds))

	fullTopic := projctx.BuildPrompt(topic, opts.ProjectPath, opts.IncludeContext)

	// Round 1: both answer independently
	codexResp, geminiResp := o.askPair(fullTopic, fullTopic, opts.Timeout)
	history := []DebateRound{{Round: 1, Codex: codexResp, Gemini: geminiResp}}

	// Each later round carries the previous pair as input to the next
	for r := 2; r <= rounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prev := history[len(history)-1]
		prevCodex := answerOr(prev.Codex, noResponse)
		prevGemini := answerOr(prev.Gemini, noResponse)

		codexPrompt := debatePrompt(topic, "Gemini", prevGemini, r)
		geminiPrompt := debatePrompt(topic, "Codex", prevCodex, r)

		codexResp, geminiResp = o.askPair(codexPrompt, geminiPrompt, opts.Timeout)
		history = append(history, DebateRound{Round: r, Codex: codexResp, Gemini: geminiResp})
		log.Info("round complete", zap.Int("round", r))
	}

	return &DebateResult{Topic: topic, Rounds: history}, nil
}

func debatePrompt(topic, opponent, opponentAnswer string, round int) string {
	return fmt.Sprintf(
		"Topic: %s\n\n"+
			"%s's previous response:\n%s\n\n"+
			"This is round %d of a debate. Refine your position, "+
			"address their points, and strengthen your argument.",
		topic, opponent, opponentAnswer, round,
	)
}

func answerOr(resp models.ModelResponse, placeholder string) string {
	if resp.Success {
		return resp.Response
	}
	return placeholder
}

func logResponse(log *zap.Logger, resp models.ModelResponse) {
	if resp.Success {
		log.Info("model responded",
			zap.String("model", resp.Model),
			zap.Float64("elapsed_seconds", resp.ElapsedSeconds))
		return
	}
	log.Warn("model failed",
		zap.String("model", resp.Model),
		zap.Float64("elapsed_seconds", resp.ElapsedSeconds),
		zap.String("cause", resp.Error))
}
