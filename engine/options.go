package engine

import (
	"io"
	"log/slog"

	"github.com/spektr-org/canvas/schema"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for New()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger   *slog.Logger
	Catalog  *schema.Catalog
	RowLimit int // default row cap on resolved query descriptors
}

// DefaultRowLimit caps rows requested for a visual when none is configured.
const DefaultRowLimit = 1000

// WithLogger routes engine debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithCatalog lets Bind fill in column types the caller left unknown.
func WithCatalog(cat *schema.Catalog) Option {
	return func(c *config) {
		c.Catalog = cat
	}
}

// WithRowLimit sets the row cap on resolved descriptors. Zero means no cap.
func WithRowLimit(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.RowLimit = n
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		RowLimit: DefaultRowLimit,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
