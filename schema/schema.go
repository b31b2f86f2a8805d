package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA — Column typing and the table catalog the sidebar draws from
// ============================================================================
// The binding engine never sniffs type strings itself. A column's SQL type is
// classified once, here, into a ColumnType; everything downstream switches on
// the enum.
// ============================================================================

// ColumnType is the classified type of a source column.
type ColumnType uint8

const (
	TypeUnknown ColumnType = iota
	TypeText
	TypeInteger
	TypeReal
	TypeDate
	TypeBoolean
)

var columnTypeNames = [...]string{
	TypeUnknown: "unknown",
	TypeText:    "text",
	TypeInteger: "integer",
	TypeReal:    "real",
	TypeDate:    "date",
	TypeBoolean: "boolean",
}

func (t ColumnType) String() string {
	if int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return columnTypeNames[TypeUnknown]
}

// Numeric reports whether default aggregation should be sum.
func (t ColumnType) Numeric() bool {
	return t == TypeInteger || t == TypeReal
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ColumnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range columnTypeNames {
		if name == s {
			*t = ColumnType(i)
			return nil
		}
	}
	// Raw SQL type strings are accepted too.
	*t = ClassifyColumnType(s)
	return nil
}

// ClassifyColumnType maps a database type declaration ("BIGINT",
// "DOUBLE PRECISION", "varchar(40)") onto a ColumnType.
func ClassifyColumnType(sqlType string) ColumnType {
	s := strings.ToUpper(strings.TrimSpace(sqlType))
	switch {
	case s == "":
		return TypeUnknown
	case strings.Contains(s, "INT"):
		return TypeInteger
	case strings.Contains(s, "REAL"), strings.Contains(s, "FLOAT"),
		strings.Contains(s, "DOUBLE"), strings.Contains(s, "NUMERIC"),
		strings.Contains(s, "DECIMAL"), strings.Contains(s, "MONEY"):
		return TypeReal
	case strings.Contains(s, "DATE"), strings.Contains(s, "TIME"):
		return TypeDate
	case strings.Contains(s, "BOOL"):
		return TypeBoolean
	default:
		return TypeText
	}
}

// Catalog describes every table available to bind from.
type Catalog struct {
	Tables []Table `json:"tables"`
}

// Table is one bindable source table.
type Table struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Columns     []Column `json:"columns"`
}

// Column describes one source column.
type Column struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName,omitempty"`
	SQLType     string     `json:"sqlType,omitempty"`
	Type        ColumnType `json:"type"`
}

// NewColumn classifies sqlType and returns the column meta.
func NewColumn(name, sqlType string) Column {
	return Column{
		Name:        name,
		DisplayName: toDisplayName(name),
		SQLType:     sqlType,
		Type:        ClassifyColumnType(sqlType),
	}
}

// Table returns the named table.
func (c *Catalog) Table(name string) (Table, bool) {
	if c == nil {
		return Table{}, false
	}
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Lookup returns the column meta of table.column.
func (c *Catalog) Lookup(table, column string) (Column, bool) {
	t, ok := c.Table(table)
	if !ok {
		return Column{}, false
	}
	for _, col := range t.Columns {
		if col.Name == column {
			return col, true
		}
	}
	return Column{}, false
}

// Add registers a table, replacing any previous table of the same name.
func (c *Catalog) Add(t Table) {
	for i := range c.Tables {
		if c.Tables[i].Name == t.Name {
			c.Tables[i] = t
			return
		}
	}
	c.Tables = append(c.Tables, t)
}

// ParseCatalog decodes a JSON catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for ti := range c.Tables {
		for ci, col := range c.Tables[ti].Columns {
			if col.Type == TypeUnknown && col.SQLType != "" {
				c.Tables[ti].Columns[ci].Type = ClassifyColumnType(col.SQLType)
			}
		}
	}
	return &c, nil
}
