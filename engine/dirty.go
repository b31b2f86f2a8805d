package engine

import (
	"github.com/gohugoio/hashstructure"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/spektr-org/canvas/model"
)

// ============================================================================
// DIRTY STATE — Divergence from the last saved snapshot
// ============================================================================
// State is derived by comparing the live document against the snapshot, so
// an edit that is later undone by hand reads as clean again. A structural
// hash short-circuits the common unchanged case.
// ============================================================================

// State is the save state of a document.
type State uint8

const (
	Clean State = iota
	Dirty
)

func (s State) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "clean"
}

var docCompare = []cmp.Option{cmpopts.EquateEmpty()}

// Equal reports deep equality of two documents, treating nil and empty
// collections alike.
func Equal(a, b model.Document) bool {
	return cmp.Equal(a, b, docCompare...)
}

// Diff renders the differences between two documents, empty when equal.
func Diff(a, b model.Document) string {
	return cmp.Diff(a, b, docCompare...)
}

// Tracker holds the last saved snapshot.
type Tracker struct {
	snapshot model.Document
	hash     uint64
	hashed   bool
}

// NewTracker captures doc as the initial snapshot.
func NewTracker(doc model.Document) *Tracker {
	t := &Tracker{}
	t.Capture(doc)
	return t
}

// Capture records doc as the saved state.
func (t *Tracker) Capture(doc model.Document) {
	t.snapshot = doc.Clone()
	t.hash, t.hashed = fingerprint(t.snapshot)
}

// Snapshot returns a copy of the saved state, used to discard edits.
func (t *Tracker) Snapshot() model.Document {
	return t.snapshot.Clone()
}

// State compares doc with the snapshot.
func (t *Tracker) State(doc model.Document) State {
	if t.hashed {
		if h, ok := fingerprint(doc); ok && h == t.hash {
			return Clean
		}
	}
	if Equal(doc, t.snapshot) {
		return Clean
	}
	return Dirty
}

func fingerprint(doc model.Document) (uint64, bool) {
	h, err := hashstructure.Hash(doc, nil)
	if err != nil {
		return 0, false
	}
	return h, true
}
