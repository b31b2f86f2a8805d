// Package report holds one open report: its document, save state and the
// data fetched for its visuals.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/store"
)

// ============================================================================
// EDITOR — The open report
// ============================================================================
// Every edit is computed by the engine on a copy and swapped in whole; a
// failed edit leaves the document untouched. An edit that changes the
// document advances the version clock, so fetches issued earlier are
// recognised as stale, and drops the data accepted for the old grid.
// ============================================================================

// Store is the persistence the editor needs.
type Store interface {
	Get(ctx context.Context, id string) (store.Dashboard, error)
	Create(ctx context.Context, name string, seed *model.Document) (store.Dashboard, error)
	Save(ctx context.Context, id string, doc model.Document) error
}

var (
	ErrNoStore             = errors.New("no store configured")
	ErrNotSaved            = errors.New("report has never been saved; use SaveAs")
	ErrNavigationCancelled = errors.New("navigation cancelled")
)

// PersistenceError reports a failed save or load. The document is left as
// it was, so unsaved edits survive.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Editor owns one report document.
type Editor struct {
	mu      sync.Mutex
	id      string
	name    string
	doc     model.Document
	tracker *engine.Tracker
	clock   engine.Clock
	results map[model.Position]VisualResult

	cfg *config
	eng *engine.Engine
	log *slog.Logger
}

// New opens doc as an unsaved report.
func New(doc model.Document, opts ...Option) *Editor {
	cfg := applyOptions(opts)
	return &Editor{
		doc:     doc.Clone(),
		tracker: engine.NewTracker(doc),
		results: map[model.Position]VisualResult{},
		cfg:     cfg,
		eng:     cfg.Engine,
		log:     cfg.Logger,
	}
}

// Open loads a stored report.
func Open(ctx context.Context, id string, opts ...Option) (*Editor, error) {
	e := New(model.Document{}, opts...)
	if err := e.Load(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

// Engine returns the engine edits run through.
func (e *Editor) Engine() *engine.Engine { return e.eng }

// ID is the stored id, empty until first saved.
func (e *Editor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Name is the stored name.
func (e *Editor) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Document returns a copy of the live document.
func (e *Editor) Document() model.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// Version is the current model version.
func (e *Editor) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Version()
}

// State reports whether the document differs from the saved snapshot.
func (e *Editor) State() engine.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.State(e.doc)
}

// Changes renders the unsaved differences.
func (e *Editor) Changes() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return engine.Diff(e.tracker.Snapshot(), e.doc)
}

// ============================================================================
// EDITS
// ============================================================================

// Update applies fn to the dashboard layout.
func (e *Editor) Update(fn func(model.Dashboard) (model.Dashboard, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := fn(e.doc.Layout.Clone())
	if err != nil {
		return err
	}
	e.commit(model.Document{Layout: next, PageFilters: e.doc.PageFilters})
	return nil
}

// UpdateVisual applies fn to the visual at pos.
func (e *Editor) UpdateVisual(pos model.Position, fn func(model.Visual) (model.Visual, error)) error {
	return e.Update(func(d model.Dashboard) (model.Dashboard, error) {
		return e.eng.UpdateVisual(d, pos, fn)
	})
}

// UpdatePageFilters applies fn to the page filter set.
func (e *Editor) UpdatePageFilters(fn func(model.FilterSet) (model.FilterSet, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := fn(e.doc.PageFilters.Clone())
	if err != nil {
		return err
	}
	e.commit(model.Document{Layout: e.doc.Layout, PageFilters: next})
	return nil
}

// commit swaps in next. A no-op edit keeps the version and the accepted data.
// Callers hold e.mu.
func (e *Editor) commit(next model.Document) {
	changed := !engine.Equal(e.doc, next)
	e.doc = next
	if changed {
		e.invalidate()
	}
}

// invalidate advances the version and forgets data fetched for the old one.
func (e *Editor) invalidate() {
	e.clock.Bump()
	e.results = map[model.Position]VisualResult{}
}

// Bind binds b to slot of the visual at pos.
func (e *Editor) Bind(pos model.Position, slot string, b model.FieldBinding) error {
	return e.UpdateVisual(pos, func(v model.Visual) (model.Visual, error) {
		return e.eng.Bind(v, slot, b)
	})
}

// Unbind removes the binding at index of slot of the visual at pos.
func (e *Editor) Unbind(pos model.Position, slot string, index int) error {
	return e.UpdateVisual(pos, func(v model.Visual) (model.Visual, error) {
		return e.eng.Unbind(v, slot, index)
	})
}

// ============================================================================
// PERSISTENCE
// ============================================================================

// Save writes the document under its stored id.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.Store == nil {
		return &PersistenceError{Op: "save", Err: ErrNoStore}
	}
	if e.id == "" {
		return &PersistenceError{Op: "save", Err: ErrNotSaved}
	}
	doc := e.doc.Clone()
	if err := e.cfg.Store.Save(ctx, e.id, doc); err != nil {
		e.log.Warn("save failed", "id", e.id, "err", err)
		return &PersistenceError{Op: "save", ID: e.id, Err: err}
	}
	e.tracker.Capture(doc)
	e.log.Info("report saved", "id", e.id, "name", e.name)
	return nil
}

// SaveAs stores the document as a new report called name and switches the
// editor to it.
func (e *Editor) SaveAs(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.Store == nil {
		return &PersistenceError{Op: "create", Err: ErrNoStore}
	}
	doc := e.doc.Clone()
	created, err := e.cfg.Store.Create(ctx, name, &doc)
	if err != nil {
		e.log.Warn("create failed", "name", name, "err", err)
		return &PersistenceError{Op: "create", Err: err}
	}
	e.id, e.name = created.ID, created.Name
	e.tracker.Capture(doc)
	e.log.Info("report created", "id", e.id, "name", e.name)
	return nil
}

// Load replaces the document with the stored report id. Unsaved edits are
// dropped; guard with Navigate first.
func (e *Editor) Load(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.Store == nil {
		return &PersistenceError{Op: "load", ID: id, Err: ErrNoStore}
	}
	d, err := e.cfg.Store.Get(ctx, id)
	if err != nil {
		e.log.Warn("load failed", "id", id, "err", err)
		return &PersistenceError{Op: "load", ID: id, Err: err}
	}
	e.id, e.name = d.ID, d.Name
	e.doc = d.Document.Clone()
	e.tracker.Capture(d.Document)
	e.invalidate()
	e.log.Info("report loaded", "id", id, "name", d.Name, "visuals", len(d.Document.Layout.Visuals()))
	return nil
}

// Discard rolls the document back to the saved snapshot.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commit(e.tracker.Snapshot())
}

// Decision answers a navigation attempt away from a dirty report.
type Decision uint8

const (
	DecisionCancel Decision = iota
	DecisionSave
	DecisionDiscard
)

// Navigate guards leaving the report. A clean report may always be left;
// a dirty one asks decide, which is not called otherwise. A failed save
// keeps the report open and dirty.
func (e *Editor) Navigate(ctx context.Context, decide func(changes string) Decision) error {
	if e.State() == engine.Clean {
		return nil
	}
	switch decide(e.Changes()) {
	case DecisionSave:
		return e.Save(ctx)
	case DecisionDiscard:
		e.Discard()
		return nil
	default:
		return ErrNavigationCancelled
	}
}
