// Package store persists report documents in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spektr-org/canvas/model"
)

var (
	ErrNotFound    = errors.New("dashboard not found")
	ErrNameTaken   = errors.New("dashboard name already exists")
	ErrInvalidName = errors.New("dashboard name must not be empty")
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS bi_dashboards (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	layout_json  TEXT NOT NULL,
	filters_json TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`

// Summary identifies a stored dashboard without its document.
type Summary struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Dashboard is a stored dashboard with its document.
type Dashboard struct {
	Summary
	Document model.Document `json:"document"`
}

type dashboardRow struct {
	Summary
	Layout  []byte `db:"layout_json"`
	Filters []byte `db:"filters_json"`
}

// Repository reads and writes bi_dashboards.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Open connects to PostgreSQL at dsn.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return New(db), nil
}

// Close releases the database handle.
func (r *Repository) Close() error { return r.db.Close() }

// EnsureSchema creates the dashboards table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// List returns every dashboard ordered by name.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	out := make([]Summary, 0)
	query := `SELECT id, name, created_at, updated_at FROM bi_dashboards ORDER BY name`
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	return out, nil
}

// Get loads one dashboard.
func (r *Repository) Get(ctx context.Context, id string) (Dashboard, error) {
	var row dashboardRow
	query := `SELECT id, name, layout_json, filters_json, created_at, updated_at
	FROM bi_dashboards WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dashboard{}, ErrNotFound
		}
		return Dashboard{}, fmt.Errorf("failed to get dashboard: %w", err)
	}

	d := Dashboard{Summary: row.Summary}
	if err := json.Unmarshal(row.Layout, &d.Document.Layout); err != nil {
		return Dashboard{}, fmt.Errorf("failed to unmarshal layout: %w", err)
	}
	if len(row.Filters) > 0 {
		if err := json.Unmarshal(row.Filters, &d.Document.PageFilters); err != nil {
			return Dashboard{}, fmt.Errorf("failed to unmarshal filters: %w", err)
		}
	}
	return d, nil
}

// Create stores a new dashboard. A nil seed starts an empty document titled
// after the dashboard.
func (r *Repository) Create(ctx context.Context, name string, seed *model.Document) (Dashboard, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Dashboard{}, ErrInvalidName
	}
	doc := model.NewDocument(name)
	if seed != nil {
		doc = seed.Clone()
	}
	layout, filters, err := encode(doc)
	if err != nil {
		return Dashboard{}, err
	}

	now := r.now()
	d := Dashboard{
		Summary:  Summary{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now},
		Document: doc,
	}
	query := `INSERT INTO bi_dashboards (id, name, layout_json, filters_json, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, d.ID, d.Name, layout, filters, now, now); err != nil {
		return Dashboard{}, translate(err, "create")
	}
	return d, nil
}

// Save replaces the document of an existing dashboard.
func (r *Repository) Save(ctx context.Context, id string, doc model.Document) error {
	layout, filters, err := encode(doc)
	if err != nil {
		return err
	}
	query := `UPDATE bi_dashboards SET layout_json = $2, filters_json = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, layout, filters, r.now())
	if err != nil {
		return translate(err, "save")
	}
	return affected(res)
}

// Rename changes the name of a dashboard.
func (r *Repository) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	query := `UPDATE bi_dashboards SET name = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, name, r.now())
	if err != nil {
		return translate(err, "rename")
	}
	return affected(res)
}

// Copy stores the document of id under a new name.
func (r *Repository) Copy(ctx context.Context, id, name string) (Dashboard, error) {
	src, err := r.Get(ctx, id)
	if err != nil {
		return Dashboard{}, err
	}
	return r.Create(ctx, name, &src.Document)
}

// Delete removes a dashboard.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bi_dashboards WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete")
	}
	return affected(res)
}

func encode(doc model.Document) (layout, filters []byte, err error) {
	if layout, err = json.Marshal(doc.Layout); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal layout: %w", err)
	}
	pf := doc.PageFilters
	if pf == nil {
		pf = model.FilterSet{}
	}
	if filters, err = json.Marshal(pf); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	return layout, filters, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return ErrNameTaken
	}
	return fmt.Errorf("failed to %s dashboard: %w", op, err)
}
