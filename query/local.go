package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// LOCAL SERVICE — Query evaluation over in-memory tables
// ============================================================================
// Tables are registered as RecordViews (CSV/XLSX imports, fixtures) and
// evaluated with engine.Execute. Single-table descriptors only.
// ============================================================================

// Option configures a Local service or an HTTP client.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	distinctLimit int
}

// WithLogger routes service logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDistinctLimit bounds distinct-value lists.
func WithDistinctLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.distinctLimit = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		distinctLimit: DefaultDistinctLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Local answers queries from registered in-memory tables.
type Local struct {
	mu     sync.RWMutex
	tables map[string]engine.RecordView
	opts   options
}

// NewLocal builds an empty Local service.
func NewLocal(opts ...Option) *Local {
	return &Local{tables: map[string]engine.RecordView{}, opts: applyOptions(opts)}
}

// Register makes view available as table. A previous table of the same
// name is replaced.
func (l *Local) Register(table string, view engine.RecordView) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tables[table] = view
}

// Tables lists the registered table names, sorted.
func (l *Local) Tables() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.tables))
	for name := range l.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (l *Local) table(name string) (engine.RecordView, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.tables[name]
	return v, ok
}

// Fetch evaluates d against its source table.
func (l *Local) Fetch(ctx context.Context, d engine.Descriptor) (Result, error) {
	sql := Render(d)
	if err := ctx.Err(); err != nil {
		return Result{}, &QueryServiceError{Query: sql, Message: "cancelled", Err: err}
	}

	tables := d.Tables()
	if len(tables) != 1 {
		return Result{}, &QueryServiceError{
			Query:   sql,
			Message: fmt.Sprintf("expected one source table, got %d", len(tables)),
		}
	}
	view, ok := l.table(tables[0])
	if !ok {
		return Result{}, &QueryServiceError{Query: sql, Message: fmt.Sprintf("unknown table %q", tables[0])}
	}

	out := engine.Execute(view, d)
	l.opts.logger.Debug("local query", "table", tables[0], "rows", out.Len(), "query", sql)
	return Result{Keys: out.Keys(), Rows: engine.Materialize(out), Query: sql}, nil
}

// Distinct lists the sorted distinct values of table.column containing
// search, case-insensitively. Blank values are reported as "".
func (l *Local) Distinct(ctx context.Context, table, column, search string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	view, ok := l.table(table)
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	key := engine.KeyFor(view, model.ColumnRef{Table: table, Column: column})
	needle := strings.ToLower(search)
	seen := map[string]bool{}
	var out []string
	for i := 0; i < view.Len(); i++ {
		v := view.Dimension(i, key)
		if seen[v] {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(v), needle) {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > l.opts.distinctLimit {
		out = out[:l.opts.distinctLimit]
	}
	return out, nil
}
