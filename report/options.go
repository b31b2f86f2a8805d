package report

import (
	"io"
	"log/slog"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/query"
)

// Option configures an Editor.
type Option func(*config)

type config struct {
	Logger      *slog.Logger
	Engine      *engine.Engine
	Store       Store
	Query       query.Service
	Concurrency int // max visuals fetched at once
}

// DefaultConcurrency bounds parallel visual fetches during Refresh.
const DefaultConcurrency = 4

// WithLogger routes editor logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithEngine sets the engine mutations run through.
func WithEngine(e *engine.Engine) Option {
	return func(c *config) {
		if e != nil {
			c.Engine = e
		}
	}
}

// WithStore enables Save, SaveAs and Load.
func WithStore(s Store) Option {
	return func(c *config) {
		c.Store = s
	}
}

// WithQueryService enables Fetch and Refresh.
func WithQueryService(q query.Service) Option {
	return func(c *config) {
		c.Query = q
	}
}

// WithConcurrency bounds parallel visual fetches.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.WithLogger(cfg.Logger))
	}
	return cfg
}
