// internal/models/model.go
package models

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Model is the interface the orchestrator depends on: one backend that can
// answer a prompt within a deadline.
type Model interface {
	// Name is the stable backend identifier (e.g. "codex", "gemini")
	Name() string

	// Ask runs one invocation and returns a structured response. Failures
	// are reported in the response, never as a panic or a hung call.
	Ask(prompt string, timeout time.Duration) ModelResponse
}

// Adapter describes how to invoke one CLI tool: which executable, with what
// arguments and environment, and how to read its output. CLIModel turns an
// Adapter into a Model.
type Adapter interface {
	Name() string

	// CLIPath is the executable path, used in error reporting
	CLIPath() string

	// BuildCommand returns the full argument vector for a prompt. The
	// prompt must be a single element, never shell-interpolated.
	BuildCommand(prompt string) []string

	// BuildEnv returns the subprocess environment
	BuildEnv() []string

	// ParseOutput extracts the model's answer from captured output,
	// falling back to raw trimmed stdout when nothing is recognized
	ParseOutput(stdout, stderr string) string
}

// CLIModel runs an Adapter's CLI as a subprocess with captured streams and a
// per-call deadline.
type CLIModel struct {
	adapter Adapter
}

func NewCLIModel(adapter Adapter) *CLIModel {
	return &CLIModel{adapter: adapter}
}

func (m *CLIModel) Name() string {
	return m.adapter.Name()
}

// Ask spawns the CLI and waits for completion or the deadline, whichever
// comes first. The deadline is the only thing that stops the subprocess:
// there is no caller-side cancellation, so an abandoned orchestrator call
// leaves the subprocess to finish or time out on its own.
func (m *CLIModel) Ask(prompt string, timeout time.Duration) ModelResponse {
	argv := m.adapter.BuildCommand(prompt)
	start := time.Now()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = m.adapter.BuildEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		elapsed := time.Since(start).Seconds()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return errorResponse(m.Name(), fmt.Sprintf("CLI not found: %s", m.adapter.CLIPath()), elapsed)
		}
		return errorResponse(m.Name(), fmt.Sprintf("%T: %v", err, err), elapsed)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-time.After(timeout):
		elapsed := time.Since(start).Seconds()
		// Best-effort kill; the process may already have exited. Wait is
		// not re-joined here: descendants holding the output pipe would
		// otherwise stall the return past the deadline.
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return errorResponse(m.Name(), fmt.Sprintf("Timeout after %gs", timeout.Seconds()), elapsed)
	}

	elapsed := time.Since(start).Seconds()
	outText := decodeStream(stdout.Bytes())
	errText := decodeStream(stderr.Bytes())

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			diag := strings.TrimSpace(errText)
			if diag == "" {
				diag = strings.TrimSpace(outText)
			}
			return errorResponse(m.Name(), fmt.Sprintf("Exit code %d: %s", exitErr.ExitCode(), diag), elapsed)
		}
		return errorResponse(m.Name(), fmt.Sprintf("%T: %v", waitErr, waitErr), elapsed)
	}

	return successResponse(m.Name(), m.adapter.ParseOutput(outText, errText), elapsed)
}

// decodeStream converts raw output to text, replacing invalid byte sequences
// instead of failing.
func decodeStream(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// overrideEnv returns a copy of env with key set to value, replacing an
// existing entry if present.
func overrideEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			continue
		}
		out = append(out, entry)
	}
	return append(out, prefix+value)
}

// apiKeyEnv builds the subprocess environment with the CLI's expected key
// variable populated from the first non-empty of the given source variables.
// The caller's environment passes through untouched when no source is set.
func apiKeyEnv(cliVar string, sourceVars ...string) []string {
	for _, src := range sourceVars {
		if v := os.Getenv(src); v != "" {
			return overrideEnv(os.Environ(), cliVar, v)
		}
	}
	return os.Environ()
}
