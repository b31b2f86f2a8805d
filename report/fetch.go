package report

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/query"
)

// ============================================================================
// VISUAL DATA — Versioned fetches
// ============================================================================
// Fetch resolves every bound visual against the document as it is now and
// queries them concurrently. The batch carries the version it was issued
// against; Accept drops it silently when the document has moved on.
// Resolve and query failures stay on their visual and never fail the batch.
// ============================================================================

var (
	ErrNoQueryService = errors.New("no query service configured")
	ErrNoData         = errors.New("no data fetched for visual")
)

// VisualResult is the data (or error) of one visual.
type VisualResult struct {
	Position   model.Position
	Descriptor engine.Descriptor
	Result     query.Result
	Err        error
}

// Batch is one Fetch round.
type Batch struct {
	Ticket  engine.Ticket
	Results []VisualResult
}

// Fetch queries every visual that has data.
func (e *Editor) Fetch(ctx context.Context) (Batch, error) {
	if e.cfg.Query == nil {
		return Batch{}, ErrNoQueryService
	}

	e.mu.Lock()
	doc := e.doc.Clone()
	batch := Batch{Ticket: e.clock.Stamp()}
	e.mu.Unlock()

	for _, p := range doc.Layout.Visuals() {
		if !p.Visual.HasData {
			continue
		}
		d, err := e.eng.Resolve(*p.Visual, doc.PageFilters)
		if err != nil {
			batch.Results = append(batch.Results, VisualResult{Position: p.Position, Err: err})
			continue
		}
		batch.Results = append(batch.Results, VisualResult{Position: p.Position, Descriptor: d})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i := range batch.Results {
		r := &batch.Results[i]
		if r.Err != nil {
			continue
		}
		g.Go(func() error {
			res, err := e.cfg.Query.Fetch(gctx, r.Descriptor)
			if err != nil {
				var qerr *query.QueryServiceError
				if !errors.As(err, &qerr) {
					err = &query.QueryServiceError{Query: query.Render(r.Descriptor), Message: err.Error(), Err: err}
				}
				r.Err = err
				return nil
			}
			r.Result = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

// Accept stores the results of b. It reports false, storing nothing, when
// the document changed after b was issued.
func (e *Editor) Accept(b Batch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.clock.Check(b.Ticket); err != nil {
		e.log.Debug("stale fetch dropped", "issued", b.Ticket.Version, "current", e.clock.Version())
		return false
	}
	e.results = make(map[model.Position]VisualResult, len(b.Results))
	for _, r := range b.Results {
		e.results[r.Position] = r
	}
	return true
}

// Refresh fetches and accepts in one step.
func (e *Editor) Refresh(ctx context.Context) (bool, error) {
	b, err := e.Fetch(ctx)
	if err != nil {
		return false, err
	}
	return e.Accept(b), nil
}

// Result returns the accepted data of the visual at pos.
func (e *Editor) Result(pos model.Position) (VisualResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.results[pos]
	return r, ok
}

// Table builds the expanded table view of the visual at pos from its
// accepted data.
func (e *Editor) Table(pos model.Position) (*engine.TableData, error) {
	r, ok := e.Result(pos)
	if !ok {
		return nil, ErrNoData
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return engine.BuildTable(e.Document().Layout.Title, r.Descriptor, r.Result.View()), nil
}
