// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package dataset holds the in-memory table the cleaning and aggregation
// code works on, plus CSV encoding for it.
//
// A Table is column-named and row-ordered. Each cell is a Value that is
// either missing, text or a float64. CSV columns whose non-empty cells all
// parse as numbers are loaded as numeric columns; everything else is text.
package dataset

import (
	"math"
	"strconv"
)

// Kind is the type of a cell.
type Kind uint8

const (
	// KindMissing is an absent value (an empty CSV field, or one removed by cleaning).
	KindMissing Kind = iota
	// KindText is a string value.
	KindText
	// KindNumber is a float64 value.
	KindNumber
)

// Value is one table cell.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Missing returns the missing value.
func Missing() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric value. NaN and infinities are stored as missing
// so a cell can always be encoded as JSON.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Kind returns the cell type.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is absent.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric value and whether the cell is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String renders the cell the way it is written to CSV: "" for missing,
// the shortest round-tripping form for numbers.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Interface returns nil, a string or a float64, for JSON encoding.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// Equal reports whether two cells hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// Table is an ordered set of rows sharing one column list.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the row count. A nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table has column name.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Append adds a row. Short rows are padded with missing values.
func (t *Table) Append(row ...Value) {
	r := make([]Value, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Value, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]Value(nil), r...)
	}
	return out
}

// Equal reports whether two tables have identical columns and cells.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	if t == nil || o == nil {
		return t == o || (len(t.columns()) == 0 && len(o.columns()) == 0)
	}
	if len(t.Columns) != len(o.Columns) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func (t *Table) columns() []string {
	if t == nil {
		return nil
	}
	return t.Columns
}

// Record returns row i as a column-to-value map for JSON encoding.
func (t *Table) Record(i int) map[string]interface{} {
	rec := make(map[string]interface{}, len(t.Columns))
	for j, c := range t.Columns {
		rec[c] = t.Rows[i][j].Interface()
	}
	return rec
}
