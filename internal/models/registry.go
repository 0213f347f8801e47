// internal/models/registry.go
package models

import (
	"bigbrain/internal/config"
)

// Registry holds the configured backends keyed by name.
type Registry struct {
	models map[string]Model
	order  []string // preserve order for consistent display
}

// NewRegistry builds the two CLI-backed models from config.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{models: make(map[string]Model)}

	codex := NewCLIModel(NewCodex(cfg.Models.Codex.CLIPath, cfg.Models.Codex.DefaultModel))
	r.add(codex)

	gemini := NewCLIModel(NewGemini(cfg.Models.Gemini.CLIPath, cfg.Models.Gemini.DefaultModel))
	r.add(gemini)

	return r
}

// NewRegistryOf builds a registry from prebuilt models, used in tests.
func NewRegistryOf(ms ...Model) *Registry {
	r := &Registry{models: make(map[string]Model)}
	for _, m := range ms {
		r.add(m)
	}
	return r
}

func (r *Registry) add(m Model) {
	r.models[m.Name()] = m
	r.order = append(r.order, m.Name())
}

// Get returns a model by name, or nil if unknown.
func (r *Registry) Get(name string) Model {
	return r.models[name]
}

// Names returns all backend names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Count() int {
	return len(r.order)
}
