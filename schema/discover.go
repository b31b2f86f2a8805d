package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic typing of materialised rows
// ============================================================================
// Used when rows arrive without a catalog (CSV/XLSX files, ad-hoc query
// results) and by the expanded table view to pick a sort comparator.
//
// Classification per column:
//   1. Drop null-like values
//   2. Count numeric / date / bool matches
//   3. 80%+ agreement wins, otherwise text
// ============================================================================

// DiscoverTable builds table meta from a header row and sample rows.
func DiscoverTable(name string, headers []string, rows [][]string) (Table, error) {
	if len(headers) == 0 {
		return Table{}, fmt.Errorf("table %q has no columns", name)
	}
	t := Table{Name: name, DisplayName: toDisplayName(name)}
	for i, h := range headers {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); !isNullLike(v) {
				values = append(values, v)
			}
		}
		t.Columns = append(t.Columns, Column{
			Name:        Key(h),
			DisplayName: toDisplayName(strings.TrimSpace(h)),
			Type:        detectType(values),
		})
	}
	return t, nil
}

func isNullLike(v string) bool {
	switch v {
	case "", "null", "NULL", "N/A", "n/a":
		return true
	}
	return false
}

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for numeric/date/bool.
func detectType(values []string) ColumnType {
	if len(values) == 0 {
		return TypeText
	}

	numCount, realCount, dateCount, boolCount := 0, 0, 0, 0
	for _, v := range values {
		if _, ok := ParseNumber(v); ok {
			numCount++
			if strings.ContainsAny(v, ".,") {
				realCount++
			}
		}
		if isDate(v) {
			dateCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := max(int(float64(len(values))*0.8), 1)

	switch {
	case boolCount >= threshold && numCount < len(values):
		return TypeBoolean
	case dateCount >= threshold:
		return TypeDate
	case numCount >= threshold && realCount > 0:
		return TypeReal
	case numCount >= threshold:
		return TypeInteger
	}
	return TypeText
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2/1/2006",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "false" || s == "yes" || s == "no"
}

// ============================================================================
// SORT TYPES — Comparator family for the expanded table view
// ============================================================================

// SortType selects the comparator of a sort level.
type SortType uint8

const (
	SortText SortType = iota
	SortNumeric
	SortDate
	SortDateNum
)

var sortTypeNames = [...]string{
	SortText:    "text",
	SortNumeric: "numeric",
	SortDate:    "date",
	SortDateNum: "datenum",
}

func (t SortType) String() string {
	if int(t) < len(sortTypeNames) {
		return sortTypeNames[t]
	}
	return sortTypeNames[SortText]
}

// ParseSortType maps a keyword back to its sort type.
func ParseSortType(s string) (SortType, error) {
	for i, name := range sortTypeNames {
		if name == s {
			return SortType(i), nil
		}
	}
	return SortText, fmt.Errorf("unknown sort type %q", s)
}

func (t SortType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SortType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseSortType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ForColumnType picks the comparator for a catalogued column.
func ForColumnType(t ColumnType) SortType {
	switch t {
	case TypeInteger, TypeReal:
		return SortNumeric
	case TypeDate:
		return SortDate
	}
	return SortText
}

// InferSortType picks a comparator from the values of one column.
// Columns mixing day/month/year dates with bare numbers or text get the
// mixed (datenum) comparator.
func InferSortType(values []string) SortType {
	n, dates, nums := 0, 0, 0
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		n++
		switch {
		case IsDateLike(v):
			dates++
		default:
			if _, ok := ParseNumber(v); ok {
				nums++
			}
		}
	}
	switch {
	case n == 0:
		return SortText
	case dates == n:
		return SortDate
	case nums == n:
		return SortNumeric
	case dates > 0:
		return SortDateNum
	case nums >= int(float64(n)*0.8):
		return SortDateNum
	}
	return SortText
}

var dateLike = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)

// IsDateLike reports whether s starts with a dd/mm/yyyy date.
func IsDateLike(s string) bool {
	return dateLike.MatchString(strings.TrimSpace(s))
}

// ParseDayMonthYear parses a dd/mm/yyyy value, ignoring any trailing time.
func ParseDayMonthYear(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if loc := dateLike.FindStringIndex(s); loc != nil {
		s = s[:loc[1]]
	}
	t, err := time.Parse("2/1/2006", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var plainNumber = regexp.MustCompile(`^[+-]?(\d[\d.,]*|[.,]\d+)$`)

// ParseNumber parses plain decimal text. The last separator is the decimal
// point ("3,5", "1,234.5", "1.234,56"); a separator repeated with no other
// present only groups thousands ("1.234.567"). Words such as NaN or inf,
// exponents and hex literals are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !plainNumber.MatchString(s) {
		return 0, false
	}
	sign := ""
	if s[0] == '+' || s[0] == '-' {
		sign, s = s[:1], s[1:]
	}
	whole, frac := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 && strings.Count(s, s[i:i+1]) == 1 {
		whole, frac = s[:i], s[i+1:]
	}
	whole, ok := ungroup(whole)
	if !ok || strings.ContainsAny(frac, ".,") {
		return 0, false
	}
	if whole == "" {
		whole = "0"
	}
	num := sign + whole
	if frac != "" {
		num += "." + frac
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ungroup strips one kind of thousands separator, requiring groups of three.
func ungroup(s string) (string, bool) {
	sep := ""
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		return "", false
	case strings.Contains(s, "."):
		sep = "."
	case strings.Contains(s, ","):
		sep = ","
	default:
		return s, true
	}
	groups := strings.Split(s, sep)
	if n := len(groups[0]); n == 0 || n > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// Key converts a header ("Order Date", "orderDate") into a column key
// ("order_date").
func Key(s string) string {
	s = strings.TrimSpace(s)
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "assignee" → "Assignee"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}
