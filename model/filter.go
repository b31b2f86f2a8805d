package model

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// FILTERS — Explicit and implicit filter entries
// ============================================================================

// BlankLabel is the sentinel standing for null or empty-string values in
// option lists and basic selections.
const BlankLabel = "(Blank)"

// Filter restricts the rows (or aggregated groups) a Visual shows.
type Filter struct {
	ID          string       `json:"id"`
	Table       string       `json:"sourceTable"`
	Column      string       `json:"sourceColumn"`
	DisplayName string       `json:"displayName,omitempty"`
	Implicit    bool         `json:"isImplicit"`
	Aggregated  bool         `json:"isAggregated"`
	Aggregation Aggregation  `json:"aggregation,omitempty"`
	Config      FilterConfig `json:"filterConfig"`
}

// Ref returns the (table, column) key of the filter.
func (f Filter) Ref() ColumnRef {
	return ColumnRef{Table: f.Table, Column: f.Column}
}

// Label is the display name, falling back to the raw column name.
func (f Filter) Label() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Column
}

// DefaultConfig is the configuration a cleared filter resets to.
func (f Filter) DefaultConfig() FilterConfig {
	if f.Aggregated {
		return Advanced(LogicAnd)
	}
	return Basic()
}

// ConfigType discriminates the FilterConfig variants.
type ConfigType uint8

const (
	ConfigBasic ConfigType = iota
	ConfigAdvanced
	ConfigTopN
)

var configNames = [...]string{
	ConfigBasic:    "basic",
	ConfigAdvanced: "advanced",
	ConfigTopN:     "topN",
}

func (t ConfigType) String() string {
	if int(t) < len(configNames) {
		return configNames[t]
	}
	return configNames[ConfigBasic]
}

func (t ConfigType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ConfigType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range configNames {
		if name == s {
			*t = ConfigType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown filter config type %q", s)
}

// FilterConfig is a tagged union: exactly the payload named by Type is set.
type FilterConfig struct {
	Type     ConfigType      `json:"type"`
	Basic    *BasicConfig    `json:"basic,omitempty"`
	Advanced *AdvancedConfig `json:"advanced,omitempty"`
	TopN     *TopNConfig     `json:"topN,omitempty"`
}

// BasicConfig is a membership test against selected values.
// An empty selection does not restrict.
type BasicConfig struct {
	SelectedValues []string `json:"selectedValues"`
}

// AdvancedConfig combines rule predicates with one logic operator.
type AdvancedConfig struct {
	Rules []Rule `json:"rules"`
	Logic Logic  `json:"logicOperator"`
}

// TopNConfig ranks aggregated groups and keeps the first Count.
type TopNConfig struct {
	Count     int       `json:"count"`
	Direction Direction `json:"direction"`
}

// DefaultTopN is the count a new ranking starts with.
const DefaultTopN = 10

// Basic builds a basic config selecting the given values.
func Basic(values ...string) FilterConfig {
	return FilterConfig{Type: ConfigBasic, Basic: &BasicConfig{SelectedValues: values}}
}

// Advanced builds an advanced config.
func Advanced(logic Logic, rules ...Rule) FilterConfig {
	return FilterConfig{Type: ConfigAdvanced, Advanced: &AdvancedConfig{Rules: rules, Logic: logic}}
}

// TopN builds a ranking config. A non-positive count falls back to DefaultTopN.
func TopN(count int, dir Direction) FilterConfig {
	if count <= 0 {
		count = DefaultTopN
	}
	return FilterConfig{Type: ConfigTopN, TopN: &TopNConfig{Count: count, Direction: dir}}
}

// Validate checks the union holds exactly its declared payload.
func (c FilterConfig) Validate() error {
	set := 0
	for _, ok := range []bool{c.Basic != nil, c.Advanced != nil, c.TopN != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("filter config %s: expected one payload, found %d", c.Type, set)
	}
	switch c.Type {
	case ConfigBasic:
		if c.Basic == nil {
			return fmt.Errorf("filter config basic: missing payload")
		}
	case ConfigAdvanced:
		if c.Advanced == nil {
			return fmt.Errorf("filter config advanced: missing payload")
		}
	case ConfigTopN:
		if c.TopN == nil {
			return fmt.Errorf("filter config topN: missing payload")
		}
	}
	return nil
}

// Logic joins advanced rules.
type Logic uint8

const (
	LogicAnd Logic = iota
	LogicOr
)

func (l Logic) String() string {
	if l == LogicOr {
		return "OR"
	}
	return "AND"
}

func (l Logic) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Logic) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "AND", "and", "E", "":
		*l = LogicAnd
	case "OR", "or", "OU":
		*l = LogicOr
	default:
		return fmt.Errorf("unknown logic operator %q", s)
	}
	return nil
}

// Direction orders a sort level or a ranking.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection accepts asc/desc and the ranking words top/bottom
// (top keeps the largest values, i.e. descending).
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "asc", "bottom", "":
		return Ascending, nil
	case "desc", "top":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown direction %q", s)
}

// Condition is the predicate of one advanced rule.
type Condition string

const (
	CondContains    Condition = "contains"
	CondNotContains Condition = "notContains"
	CondEquals      Condition = "equals"
	CondNotEquals   Condition = "notEquals"
	CondIsNull      Condition = "isNull"
	CondNotNull     Condition = "notNull"
	CondGreater     Condition = "gt"
	CondLess        Condition = "lt"
	CondGreaterEq   Condition = "gte"
	CondLessEq      Condition = "lte"
)

// Numeric reports whether the condition compares numbers.
func (c Condition) Numeric() bool {
	switch c {
	case CondGreater, CondLess, CondGreaterEq, CondLessEq:
		return true
	}
	return false
}

// Rule is one advanced predicate.
type Rule struct {
	Condition Condition `json:"condition"`
	Value     string    `json:"value,omitempty"`
}
