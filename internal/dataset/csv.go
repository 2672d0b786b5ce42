// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmptyInput is returned when a CSV has no header row.
var ErrEmptyInput = errors.New("csv input has no header")

// ReadCSV parses CSV with a header row. Empty fields load as missing.
// A column is numeric when every non-empty field in it parses as a finite
// float; otherwise all its fields load as text, untrimmed.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var raw [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", len(raw)+2, err)
		}
		if len(rec) == 1 && rec[0] == "" && len(header) > 1 {
			continue
		}
		raw = append(raw, rec)
	}

	numeric := make([]bool, len(header))
	for j := range header {
		numeric[j] = isNumericColumn(raw, j)
	}

	t := &Table{Columns: header, Rows: make([][]Value, 0, len(raw))}
	for _, rec := range raw {
		row := make([]Value, len(header))
		for j := range header {
			if j >= len(rec) || rec[j] == "" {
				continue
			}
			if numeric[j] {
				f, _ := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
				row[j] = Number(f)
			} else {
				row[j] = Text(rec[j])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseCSV is ReadCSV over a byte slice.
func ParseCSV(data []byte) (*Table, error) {
	return ReadCSV(bytes.NewReader(data))
}

func isNumericColumn(raw [][]string, j int) bool {
	seen := false
	for _, rec := range raw {
		if j >= len(rec) || rec[j] == "" {
			continue
		}
		if _, ok := ParseNumber(rec[j]); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// ParseNumber parses s as a finite float after trimming whitespace.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if f != f || f > maxFinite || f < -maxFinite {
		return 0, false
	}
	return f, true
}

const maxFinite = 1.7976931348623157e308

// WriteCSV writes the header and rows. Missing cells are written empty and
// there is no index column.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range rec {
			rec[j] = row[j].String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV is WriteCSV into a new byte slice.
func EncodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
