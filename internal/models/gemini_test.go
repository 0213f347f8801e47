// internal/models/gemini_test.go
package models

import (
	"strings"
	"testing"
)

func TestGeminiBuildCommand(t *testing.T) {
	adapter := NewGemini("/opt/bin/gemini", "gemini-3-pro-preview")
	prompt := "compare `foo` && \"bar\""

	argv := adapter.BuildCommand(prompt)

	if argv[0] != "/opt/bin/gemini" {
		t.Errorf("argv[0] = %q, want /opt/bin/gemini", argv[0])
	}
	found := 0
	for _, arg := range argv {
		if arg == prompt {
			found++
		}
	}
	if found != 1 {
		t.Errorf("prompt appears %d times as a single element, want 1; argv=%q", found, argv)
	}
}

func TestGeminiBuildEnv(t *testing.T) {
	t.Run("dedicated key wins", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gk-dedicated")
		t.Setenv("GOOGLE_API_KEY", "gk-shared")

		env := NewGemini("gemini", "m").BuildEnv()
		if !containsEnv(env, "GEMINI_API_KEY=gk-dedicated") {
			t.Error("GEMINI_API_KEY not preserved over GOOGLE_API_KEY")
		}
	})

	t.Run("google key fallback", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "gk-shared")

		env := NewGemini("gemini", "m").BuildEnv()
		if !containsEnv(env, "GEMINI_API_KEY=gk-shared") {
			t.Error("GEMINI_API_KEY not promoted from GOOGLE_API_KEY")
		}
	})
}

func TestGeminiParseOutput(t *testing.T) {
	adapter := NewGemini("gemini", "m")

	tests := []struct {
		name   string
		stdout string
		want   string
	}{
		{
			name:   "response field",
			stdout: `{"response":"X"}`,
			want:   "X",
		},
		{
			name:   "text field",
			stdout: `{"text":"Y"}`,
			want:   "Y",
		},
		{
			name:   "response wins over text",
			stdout: `{"text":"second","response":"first"}`,
			want:   "first",
		},
		{
			name:   "string value trimmed",
			stdout: `{"response":"  padded  "}`,
			want:   "padded",
		},
		{
			name:   "non-string value re-serialized",
			stdout: `{"response":{"nested":true}}`,
			want:   `{"nested":true}`,
		},
		{
			name:   "non-json falls back to raw stdout",
			stdout: "  just some text  ",
			want:   "just some text",
		},
		{
			name:   "object with no known field falls back",
			stdout: `{"unknown":"field"}`,
			want:   `{"unknown":"field"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ParseOutput(tt.stdout, "")
			if got != tt.want {
				t.Errorf("ParseOutput = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiParseOutputArray(t *testing.T) {
	adapter := NewGemini("gemini", "m")

	got := adapter.ParseOutput(`[{"text":"a"},{"text":"b"}]`, "")
	if !strings.Contains(got, "a") || !strings.Contains(got, "b") {
		t.Errorf("array parse = %q, want both elements present", got)
	}
	if got != "a\nb" {
		t.Errorf("array parse = %q, want newline-joined", got)
	}

	// Element without known fields is re-serialized
	got = adapter.ParseOutput(`[{"other":1}]`, "")
	if got != `{"other":1}` {
		t.Errorf("unknown element = %q, want re-serialized element", got)
	}
}
