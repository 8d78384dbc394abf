package models

import (
	"math"
	"strconv"
	"strings"
)

// ColumnKind classifies a parsed column.
type ColumnKind string

const (
	ColumnNumeric ColumnKind = "numeric"
	ColumnText    ColumnKind = "text"
)

// Column describes one column of a parsed table.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Table is a parsed CSV: ordered, typed columns over raw trimmed cells.
type Table struct {
	Columns []Column
	Rows    [][]string
	index   map[string]int
}

// NewTable creates a Table. Every row must have len(cols) cells.
func NewTable(cols []Column, rows [][]string) *Table {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c.Name] = i
	}
	if rows == nil {
		rows = [][]string{}
	}
	return &Table{Columns: cols, Rows: rows, index: idx}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Names returns the column names in file order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of a column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// IsNumeric reports whether the named column exists and is numeric.
func (t *Table) IsNumeric(name string) bool {
	i := t.Index(name)
	return i >= 0 && t.Columns[i].Kind == ColumnNumeric
}

// NumericColumns returns the names of numeric columns in file order.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == ColumnNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// Cell returns the raw cell, or "" when the column does not exist.
func (t *Table) Cell(row int, name string) string {
	i := t.Index(name)
	if i < 0 {
		return ""
	}
	return t.Rows[row][i]
}

// Float returns the numeric value of a cell. ok is false for missing or
// non-numeric cells.
func (t *Table) Float(row int, name string) (float64, bool) {
	return ParseNumber(t.Cell(row, name))
}

// Records returns the rows as column->value maps. Numeric cells become
// float64 (nil when missing), text cells stay strings.
func (t *Table) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			if c.Kind == ColumnNumeric {
				if v, ok := ParseNumber(row[i]); ok {
					rec[c.Name] = v
				} else {
					rec[c.Name] = nil
				}
				continue
			}
			rec[c.Name] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// missingTokens are the default NA markers of common dataframe CSV
// readers. Matching is case-sensitive.
var missingTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// IsMissing reports whether a raw cell counts as an absent value.
func IsMissing(raw string) bool {
	return missingTokens[strings.TrimSpace(raw)]
}

// ParseNumber parses a numeric cell. Thousands separators and underscores
// are tolerated; missing markers, NaN and infinities are not numbers.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if IsMissing(s) {
		return 0, false
	}
	if strings.ContainsAny(s, ",_") {
		s = strings.NewReplacer(",", "", "_", "").Replace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
