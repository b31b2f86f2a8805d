// Package query defines the boundary between the report engine and the
// services that materialise rows: aggregated/raw visual data and distinct
// column values.
package query

import (
	"context"
	"fmt"

	"github.com/spektr-org/canvas/engine"
)

// Service fetches the rows a resolved visual displays.
type Service interface {
	Fetch(ctx context.Context, d engine.Descriptor) (Result, error)
}

// DistinctValues lists the distinct values of one column, optionally
// narrowed by a case-insensitive substring. Lists are bounded.
type DistinctValues interface {
	Distinct(ctx context.Context, table, column, search string) ([]string, error)
}

// DefaultDistinctLimit bounds distinct-value lists.
const DefaultDistinctLimit = 200

// Result is the answer to one Fetch.
type Result struct {
	Keys  []string        `json:"columns"`
	Rows  []engine.Record `json:"data"`
	Query string          `json:"query,omitempty"`
}

// View exposes the rows to the engine.
func (r Result) View() engine.RecordView {
	return engine.NewSliceView(r.Rows, r.Keys...)
}

// QueryServiceError carries the diagnostic query text of a failed fetch.
// It is reported on the visual that issued the fetch and never aborts the
// rest of the report.
type QueryServiceError struct {
	Query   string
	Message string
	Err     error
}

func (e *QueryServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("query failed: %s", e.Message)
}

func (e *QueryServiceError) Unwrap() error { return e.Err }
