package engine

// ============================================================================
// TABLE TYPES — Render-ready expanded table
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string        `json:"title"`
	Columns []TableColumn `json:"columns"`
	Rows    [][]string    `json:"rows"`
	Summary *Summary      `json:"summary,omitempty"`
}

// TableColumn defines a table column.
type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for numeric columns.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
