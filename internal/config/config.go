// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Timeout defaults in seconds. Consensus adds a synthesis call on top of the
// parallel pair; debate and council run multiple sequential stages.
const (
	DefaultAskTimeout       = 120
	DefaultConsensusTimeout = 180
	DefaultDebateTimeout    = 300
)

// ProjectPathEnv overrides the project root used for context loading.
const ProjectPathEnv = "BIGBRAIN_PROJECT_PATH"

type ModelConfig struct {
	CLIPath      string `yaml:"cli_path,omitempty"`
	DefaultModel string `yaml:"default_model,omitempty"`
}

type Config struct {
	Models struct {
		Codex  ModelConfig `yaml:"codex"`
		Gemini ModelConfig `yaml:"gemini"`
	} `yaml:"models"`
	Defaults struct {
		AskTimeout       int `yaml:"ask_timeout"`       // seconds
		ConsensusTimeout int `yaml:"consensus_timeout"` // seconds
		DebateTimeout    int `yaml:"debate_timeout"`    // seconds
	} `yaml:"defaults"`
}

func Load() (*Config, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		// No config file: defaults plus environment overrides
		cfg := defaultConfig()
		applyEnv(cfg)
		return cfg, nil
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// parse unmarshals config YAML, expanding environment variables and applying
// defaults for unset values.
func parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Models.Codex.CLIPath == "" {
		cfg.Models.Codex.CLIPath = defaultCLIPath("codex")
	}
	if cfg.Models.Codex.DefaultModel == "" {
		cfg.Models.Codex.DefaultModel = "gpt-5.3-codex"
	}
	if cfg.Models.Gemini.CLIPath == "" {
		cfg.Models.Gemini.CLIPath = defaultCLIPath("gemini")
	}
	if cfg.Models.Gemini.DefaultModel == "" {
		cfg.Models.Gemini.DefaultModel = "gemini-3-pro-preview"
	}
	if cfg.Defaults.AskTimeout == 0 {
		cfg.Defaults.AskTimeout = DefaultAskTimeout
	}
	if cfg.Defaults.ConsensusTimeout == 0 {
		cfg.Defaults.ConsensusTimeout = DefaultConsensusTimeout
	}
	if cfg.Defaults.DebateTimeout == 0 {
		cfg.Defaults.DebateTimeout = DefaultDebateTimeout
	}
}

// applyEnv lets environment variables override file values. The MCP host
// typically configures the server through env rather than a config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BIGBRAIN_CODEX_CMD"); v != "" {
		cfg.Models.Codex.CLIPath = v
	}
	if v := os.Getenv("BIGBRAIN_CODEX_MODEL"); v != "" {
		cfg.Models.Codex.DefaultModel = v
	}
	if v := os.Getenv("BIGBRAIN_GEMINI_CMD"); v != "" {
		cfg.Models.Gemini.CLIPath = v
	}
	if v := os.Getenv("BIGBRAIN_GEMINI_MODEL"); v != "" {
		cfg.Models.Gemini.DefaultModel = v
	}
}

// defaultCLIPath returns the npm global install location for a CLI. The MCP
// host spawns this server without the user's shell PATH, so bare command
// names don't resolve.
func defaultCLIPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".npm-global", "bin", name)
}

func Path() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, "bigbrain", "config.yaml")
}

// ResolveProjectPath resolves the project root from an explicit override,
// the BIGBRAIN_PROJECT_PATH env var, or the working directory, in that order.
func ResolveProjectPath(override string) string {
	if override != "" {
		if abs, err := filepath.Abs(override); err == nil {
			return abs
		}
		return override
	}
	if env := os.Getenv(ProjectPathEnv); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
		return env
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func (c *Config) AskTimeout() time.Duration {
	return time.Duration(c.Defaults.AskTimeout) * time.Second
}

func (c *Config) ConsensusTimeout() time.Duration {
	return time.Duration(c.Defaults.ConsensusTimeout) * time.Second
}

func (c *Config) DebateTimeout() time.Duration {
	return time.Duration(c.Defaults.DebateTimeout) * time.Second
}
