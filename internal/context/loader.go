// internal/context/loader.go
package context

import (
	"os"
	"path/filepath"
	"strings"

	"bigbrain/internal/config"
)

// MaxFileSize is the maximum context file size we'll load (1MB). Larger
// files are treated as absent rather than flooding every prompt.
const MaxFileSize = 1024 * 1024

const (
	contextHeader = "=== Shared Project Context (read-only) ==="
	contextFooter = "=== End Shared Context ==="
)

// LoadFile reads a context document, returning its trimmed content and true,
// or "" and false if the file is missing, unreadable, empty, or oversized.
// Context documents are optional, so failure is never an error.
func LoadFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > MaxFileSize {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}

// ClaudeMDPath returns the path to the project's CLAUDE.md.
func ClaudeMDPath(projectPath string) string {
	return filepath.Join(projectPath, ".claude", "CLAUDE.md")
}

// MemoryMDPath returns the path to the auto-memory MEMORY.md for a project.
// Memory lives under ~/.claude/projects/<slug>/memory where the slug is the
// project path with slashes replaced by hyphens.
func MemoryMDPath(projectPath string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "projects", projectSlug(projectPath), "memory", "MEMORY.md")
}

func projectSlug(projectPath string) string {
	slug := strings.ReplaceAll(projectPath, string(filepath.Separator), "-")
	return strings.TrimLeft(slug, "-")
}

// BuildPrompt prepends CLAUDE.md and MEMORY.md as read-only context to a
// prompt. The prompt is returned unchanged when context is disabled or
// neither document is present.
func BuildPrompt(prompt, projectPath string, includeContext bool) string {
	if !includeContext {
		return prompt
	}

	resolved := config.ResolveProjectPath(projectPath)
	claudeMD, haveClaude := LoadFile(ClaudeMDPath(resolved))
	memoryMD, haveMemory := LoadFile(MemoryMDPath(resolved))

	if !haveClaude && !haveMemory {
		return prompt
	}

	sections := []string{contextHeader, ""}
	if haveClaude {
		sections = append(sections, "[CLAUDE.md]\n"+claudeMD+"\n")
	}
	if haveMemory {
		sections = append(sections, "[MEMORY.md]\n"+memoryMD+"\n")
	}
	sections = append(sections, contextFooter, "", prompt)
	return strings.Join(sections, "\n")
}
