package engine

import (
	"log/slog"
)

// Engine applies report mutations. Every method takes a model value and
// returns a new one; on error the input is left untouched and the zero or
// original value is returned alongside the error.
type Engine struct {
	cfg *config
	log *slog.Logger
}

// New builds an Engine.
func New(opts ...Option) *Engine {
	cfg := applyOptions(opts)
	return &Engine{cfg: cfg, log: cfg.Logger}
}
