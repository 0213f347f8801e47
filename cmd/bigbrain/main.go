package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"bigbrain/internal/config"
	"bigbrain/internal/db"
	"bigbrain/internal/export"
	"bigbrain/internal/models"
	"bigbrain/internal/orchestrator"
	"bigbrain/internal/render"
	"bigbrain/internal/server"
)

func main() {
	var (
		mode       = flag.String("mode", "serve", "serve | ask | both | consensus | debate | council | history")
		model      = flag.String("model", "codex", "backend for -mode ask (codex or gemini)")
		rounds     = flag.Int("rounds", 2, "debate rounds (1-5)")
		opinion    = flag.String("opinion", "", "your own answer, reviewed anonymously in council mode")
		project    = flag.String("project", "", "project root for context loading")
		noContext  = flag.Bool("no-context", false, "skip CLAUDE.md/MEMORY.md enrichment")
		timeoutSec = flag.Float64("timeout", 0, "per-call timeout in seconds (0 = mode default)")
		exportPath = flag.String("export", "", "write a markdown transcript to this file")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	log := newLogger(*debug)
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}

	registry := models.NewRegistry(cfg)
	orch := orchestrator.New(registry, cfg, log)

	switch *mode {
	case "serve":
		serve(orch, cfg, registry.Count(), log)
		return
	case "history":
		showHistory(flag.Arg(0))
		return
	}

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		fatal("a prompt is required for -mode %s", *mode)
	}

	opts := orchestrator.Options{
		ProjectPath:    *project,
		IncludeContext: !*noContext,
		Timeout:        time.Duration(*timeoutSec * float64(time.Second)),
	}
	ctx := context.Background()
	r := render.New()

	switch *mode {
	case "ask":
		resp, err := orch.AskSingle(ctx, *model, prompt, opts)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Print(r.Response(resp))

	case "both":
		responses, err := orch.AskBoth(ctx, prompt, opts)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Print(r.Response(responses["codex"]))
		fmt.Println()
		fmt.Print(r.Response(responses["gemini"]))

	case "consensus":
		result, err := orch.Consensus(ctx, prompt, opts)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Print(r.Consensus(result))
		writeExport(*exportPath, "consensus", prompt, export.ExportConsensus(result))

	case "debate":
		result, err := orch.Debate(ctx, prompt, *rounds, opts)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Print(r.Debate(result))
		writeExport(*exportPath, "debate", prompt, export.ExportDebate(result))

	case "council":
		result, err := orch.Council(ctx, prompt, *opinion, opts)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Print(r.Council(result))
		writeExport(*exportPath, "council", prompt, export.ExportCouncil(result))

	default:
		fatal("unknown mode %q", *mode)
	}
}

func serve(orch *orchestrator.Orchestrator, cfg *config.Config, modelCount int, log *zap.Logger) {
	// History is optional: a read-only data dir shouldn't stop the server
	store, err := db.Open()
	if err != nil {
		log.Warn("exchange log disabled", zap.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	s := server.New(orch, cfg, store, log)
	log.Info("serving MCP over stdio", zap.Int("models", modelCount))
	if err := server.ServeStdio(s); err != nil {
		fatal("serve: %v", err)
	}
}

// showHistory lists the recorded exchanges, or shows one in full when an
// exchange ID is given.
func showHistory(id string) {
	store, err := db.Open()
	if err != nil {
		fatal("open exchange log: %v", err)
	}
	defer store.Close()

	r := render.New()
	if id == "" {
		exchanges, err := store.ListExchanges()
		if err != nil {
			fatal("list exchanges: %v", err)
		}
		fmt.Print(r.History(exchanges))
		return
	}

	ex, err := store.GetExchange(id)
	if err != nil {
		fatal("exchange %s: %v", id, err)
	}
	responses, err := store.GetResponses(id)
	if err != nil {
		fatal("responses for %s: %v", id, err)
	}
	fmt.Print(r.Exchange(ex, responses))
}

// newLogger builds a stderr-only logger. Stdout carries the MCP protocol,
// so nothing else may write there in serve mode.
func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		fatal("build logger: %v", err)
	}
	return log
}

func writeExport(path, kind, topic, content string) {
	if path == "" {
		return
	}
	path = export.ResolvePath(path, kind, topic, time.Now())
	if err := export.WriteFile(path, content); err != nil {
		fatal("export: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Exported to %s\n", path)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
