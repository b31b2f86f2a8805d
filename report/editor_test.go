package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, id string) (store.Dashboard, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(store.Dashboard), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, name string, seed *model.Document) (store.Dashboard, error) {
	args := m.Called(ctx, name, seed)
	return args.Get(0).(store.Dashboard), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, id string, doc model.Document) error {
	args := m.Called(ctx, id, doc)
	return args.Error(0)
}

var (
	cardPos = model.Position{Row: 0, Column: 0}
	barPos  = model.Position{Row: 0, Column: 1}
)

// twoVisuals returns an editor holding one row with a card and a bar.
func twoVisuals(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	e := New(model.NewDocument("Sales"), opts...)
	require.NoError(t, e.Update(func(d model.Dashboard) (model.Dashboard, error) {
		d = e.Engine().AddRow(d, model.TemplateTwoEqual)
		d, err := e.Engine().PlaceVisual(d, cardPos, model.KindCard)
		if err != nil {
			return d, err
		}
		return e.Engine().PlaceVisual(d, barPos, model.KindBar)
	}))
	return e
}

func TestEditsTrackDirtyState(t *testing.T) {
	e := New(model.NewDocument("Sales"))
	assert.Equal(t, engine.Clean, e.State())

	require.NoError(t, e.Update(func(d model.Dashboard) (model.Dashboard, error) {
		return e.Engine().SetTitle(d, "Revenue"), nil
	}))
	assert.Equal(t, engine.Dirty, e.State())
	assert.Contains(t, e.Changes(), "Revenue")

	require.NoError(t, e.Update(func(d model.Dashboard) (model.Dashboard, error) {
		return e.Engine().SetTitle(d, "Sales"), nil
	}))
	assert.Equal(t, engine.Clean, e.State())
	assert.Equal(t, uint64(2), e.Version())
}

func TestFailedEditLeavesDocument(t *testing.T) {
	e := twoVisuals(t)
	before := e.Document()
	version := e.Version()

	err := e.Update(func(d model.Dashboard) (model.Dashboard, error) {
		return e.Engine().ChangeTemplate(d, 0, model.TemplateOneColumn)
	})
	var shrink *engine.TemplateShrinkError
	require.ErrorAs(t, err, &shrink)
	assert.True(t, engine.Equal(before, e.Document()))
	assert.Equal(t, version, e.Version())
}

func TestDiscardRestoresSnapshot(t *testing.T) {
	e := twoVisuals(t)
	require.Equal(t, engine.Dirty, e.State())

	e.Discard()
	assert.Equal(t, engine.Clean, e.State())
	assert.Empty(t, e.Document().Layout.Rows)
}

func TestPageFiltersMarkDirty(t *testing.T) {
	e := New(model.NewDocument("Sales"))
	f := engine.NewFilter(model.ColumnRef{Table: "orders", Column: "region"}, "Region", model.Basic("North"))

	require.NoError(t, e.UpdatePageFilters(func(fs model.FilterSet) (model.FilterSet, error) {
		return e.Engine().AddFilter(fs, f)
	}))
	assert.Equal(t, engine.Dirty, e.State())
	require.Len(t, e.Document().PageFilters, 1)
}

func TestSave(t *testing.T) {
	st := &mockStore{}
	seed := model.NewDocument("Sales")
	st.On("Get", mock.Anything, "d1").Return(store.Dashboard{
		Summary:  store.Summary{ID: "d1", Name: "Sales"},
		Document: seed,
	}, nil)
	st.On("Save", mock.Anything, "d1", mock.Anything).Return(nil).Once()

	e, err := Open(context.Background(), "d1", WithStore(st))
	require.NoError(t, err)
	assert.Equal(t, "d1", e.ID())
	assert.Equal(t, engine.Clean, e.State())

	require.NoError(t, e.Update(func(d model.Dashboard) (model.Dashboard, error) {
		return e.Engine().SetDescription(d, "weekly"), nil
	}))
	require.NoError(t, e.Save(context.Background()))
	assert.Equal(t, engine.Clean, e.State())
	st.AssertExpectations(t)
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	st := &mockStore{}
	st.On("Create", mock.Anything, "Sales", mock.Anything).
		Return(store.Dashboard{}, store.ErrNameTaken)

	e := twoVisuals(t, WithStore(st))
	err := e.SaveAs(context.Background(), "Sales")

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, store.ErrNameTaken)
	assert.Equal(t, engine.Dirty, e.State())
	assert.Empty(t, e.ID())

	assert.ErrorIs(t, e.Save(context.Background()), ErrNotSaved)
	assert.ErrorIs(t, New(model.Document{}).Save(context.Background()), ErrNoStore)
}

func TestSaveAs(t *testing.T) {
	st := &mockStore{}
	st.On("Create", mock.Anything, "Q3", mock.MatchedBy(func(doc *model.Document) bool {
		return doc != nil && len(doc.Layout.Rows) == 1
	})).Return(store.Dashboard{Summary: store.Summary{ID: "new", Name: "Q3"}}, nil)

	e := twoVisuals(t, WithStore(st))
	require.NoError(t, e.SaveAs(context.Background(), "Q3"))
	assert.Equal(t, "new", e.ID())
	assert.Equal(t, "Q3", e.Name())
	assert.Equal(t, engine.Clean, e.State())
}

func TestNavigate(t *testing.T) {
	called := false
	clean := New(model.NewDocument("Sales"))
	require.NoError(t, clean.Navigate(context.Background(), func(string) Decision {
		called = true
		return DecisionCancel
	}))
	assert.False(t, called)

	e := twoVisuals(t)
	err := e.Navigate(context.Background(), func(changes string) Decision {
		assert.NotEmpty(t, changes)
		return DecisionCancel
	})
	assert.ErrorIs(t, err, ErrNavigationCancelled)
	assert.Equal(t, engine.Dirty, e.State())

	require.NoError(t, e.Navigate(context.Background(), func(string) Decision { return DecisionDiscard }))
	assert.Equal(t, engine.Clean, e.State())
}

func TestNavigateSaveFailure(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "d1").Return(store.Dashboard{
		Summary: store.Summary{ID: "d1", Name: "Sales"}, Document: model.NewDocument("Sales"),
	}, nil)
	st.On("Save", mock.Anything, "d1", mock.Anything).Return(assert.AnError)

	e, err := Open(context.Background(), "d1", WithStore(st))
	require.NoError(t, err)
	require.NoError(t, e.Update(func(d model.Dashboard) (model.Dashboard, error) {
		return e.Engine().AddRow(d, model.TemplateOneColumn), nil
	}))

	err = e.Navigate(context.Background(), func(string) Decision { return DecisionSave })
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save", perr.Op)
	assert.Equal(t, engine.Dirty, e.State())
}

func TestLoadNotFound(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "missing").Return(store.Dashboard{}, store.ErrNotFound)

	_, err := Open(context.Background(), "missing", WithStore(st))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
