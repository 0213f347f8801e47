// internal/server/server.go

// Package server wires the orchestrator into an MCP server. It is pure
// translation: argument parsing, result serialization, and best-effort
// exchange recording. No collaboration logic lives here.
package server

import (
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"bigbrain/internal/config"
	"bigbrain/internal/db"
	"bigbrain/internal/models"
	"bigbrain/internal/orchestrator"
)

// Version is set at build time via ldflags.
var Version = "dev"

const instructions = "BigBrain gives you access to the Codex (OpenAI) and " +
	"Gemini (Google) CLI tools. Use these tools to get second opinions, " +
	"compare approaches, run debates, or build consensus on technical " +
	"decisions. You remain the decision-maker — these tools provide " +
	"additional perspectives."

// Server holds the orchestrator and its supporting services for the tool
// handlers. The timeout defaults come from config and feed both the tool
// schemas and the handlers.
type Server struct {
	orch  *orchestrator.Orchestrator
	store *db.Store
	log   *zap.Logger

	askSec       int
	consensusSec int
	debateSec    int
}

// newServer builds the handler state. A nil cfg falls back to the built-in
// timeout defaults.
func newServer(orch *orchestrator.Orchestrator, cfg *config.Config, store *db.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		orch:         orch,
		store:        store,
		log:          log,
		askSec:       config.DefaultAskTimeout,
		consensusSec: config.DefaultConsensusTimeout,
		debateSec:    config.DefaultDebateTimeout,
	}
	if cfg != nil {
		s.askSec = cfg.Defaults.AskTimeout
		s.consensusSec = cfg.Defaults.ConsensusTimeout
		s.debateSec = cfg.Defaults.DebateTimeout
	}
	return s
}

// New creates the MCP server with all six orchestration tools registered.
// The store may be nil, in which case exchanges are simply not recorded.
func New(orch *orchestrator.Orchestrator, cfg *config.Config, store *db.Store, log *zap.Logger) *server.MCPServer {
	s := newServer(orch, cfg, store, log)

	mcpServer := server.NewMCPServer(
		"bigbrain",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	mcpServer.AddTool(askCodexTool(s.askSec), s.handleAskCodex)
	mcpServer.AddTool(askGeminiTool(s.askSec), s.handleAskGemini)
	mcpServer.AddTool(askBothTool(s.askSec), s.handleAskBoth)
	mcpServer.AddTool(consensusTool(s.consensusSec), s.handleConsensus)
	mcpServer.AddTool(debateTool(s.debateSec), s.handleDebate)
	mcpServer.AddTool(councilTool(s.debateSec), s.handleCouncil)

	return mcpServer
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// recorded pairs one response with its position inside the exchange.
type recorded struct {
	round int
	stage string
	resp  models.ModelResponse
}

// record persists an exchange. Failures are logged and swallowed: the
// caller already has the result, and history is not worth failing the call.
func (s *Server) record(kind, topic, projectPath string, entries []recorded) {
	if s.store == nil {
		return
	}

	id := uuid.NewString()
	if err := s.store.CreateExchange(id, kind, topic, projectPath); err != nil {
		s.log.Warn("record exchange", zap.String("kind", kind), zap.Error(err))
		return
	}
	for _, e := range entries {
		if err := s.store.AddResponse(id, e.round, e.stage, e.resp); err != nil {
			s.log.Warn("record response", zap.String("exchange_id", id), zap.Error(err))
			return
		}
	}
}
