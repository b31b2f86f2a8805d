package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/canvas/model"
)

var fixed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := New(sqlx.NewDb(db, "postgres"))
	repo.now = func() time.Time { return fixed }
	return repo, mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bi_dashboards")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at, updated_at FROM bi_dashboards ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("a", "Finance", fixed, fixed).
			AddRow("b", "Sales", fixed, fixed))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Finance", got[0].Name)
	assert.Equal(t, "b", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	layout := `{"title":"Sales","rows":[{"id":"r1","columnTemplate":"1-col","heightLevel":5,` +
		`"columns":[{"visual":{"kind":"card","hasData":false}}]}]}`
	filters := `[{"id":"f1","sourceTable":"orders","sourceColumn":"region","isImplicit":false,` +
		`"isAggregated":false,"filterConfig":{"type":"basic","basic":{"selectedValues":["North"]}}}]`
	mock.ExpectQuery(regexp.QuoteMeta("FROM bi_dashboards WHERE id = $1")).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "layout_json", "filters_json", "created_at", "updated_at"}).
			AddRow("a", "Sales", []byte(layout), []byte(filters), fixed, fixed))

	d, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Sales", d.Name)
	assert.Equal(t, "Sales", d.Document.Layout.Title)
	require.Len(t, d.Document.Layout.Rows, 1)
	assert.Equal(t, model.KindCard, d.Document.Layout.Rows[0].Columns[0].Visual.Kind)
	require.Len(t, d.Document.PageFilters, 1)
	assert.Equal(t, []string{"North"}, d.Document.PageFilters[0].Config.Basic.SelectedValues)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bi_dashboards WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSeedsEmptyDocument(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bi_dashboards")).
		WithArgs(sqlmock.AnyArg(), "Q3 review", []byte(`{"title":"Q3 review","rows":[]}`), []byte(`[]`), fixed, fixed).
		WillReturnResult(sqlmock.NewResult(1, 1))

	d, err := repo.Create(context.Background(), "  Q3 review ", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Q3 review", d.Document.Layout.Title)
	assert.Empty(t, d.Document.Layout.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNameTaken(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bi_dashboards")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), "Sales", nil)
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = repo.Create(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestSaveAndDelete(t *testing.T) {
	repo, mock := newMock(t)
	doc := model.NewDocument("Sales")
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bi_dashboards SET layout_json = $2")).
		WithArgs("a", sqlmock.AnyArg(), []byte(`[]`), fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bi_dashboards")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Save(context.Background(), "a", doc))
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRename(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bi_dashboards SET name = $2")).
		WithArgs("a", "Other", fixed).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bi_dashboards SET name = $2")).
		WithArgs("a", "Fresh", fixed).
		WillReturnError(errors.New("connection reset"))

	assert.ErrorIs(t, repo.Rename(context.Background(), "a", "Other"), ErrNameTaken)
	err := repo.Rename(context.Background(), "a", "Fresh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopy(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bi_dashboards WHERE id = $1")).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "layout_json", "filters_json", "created_at", "updated_at"}).
			AddRow("a", "Sales", []byte(`{"title":"Sales","rows":[]}`), []byte(`[]`), fixed, fixed))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bi_dashboards")).
		WithArgs(sqlmock.AnyArg(), "Sales copy", []byte(`{"title":"Sales","rows":[]}`), []byte(`[]`), fixed, fixed).
		WillReturnResult(sqlmock.NewResult(1, 1))

	d, err := repo.Copy(context.Background(), "a", "Sales copy")
	require.NoError(t, err)
	assert.NotEqual(t, "a", d.ID)
	assert.Equal(t, "Sales", d.Document.Layout.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
