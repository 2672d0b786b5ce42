// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package analysis cleans the raw recipe table and computes the per-diet
// macronutrient summary served by the API.
//
// Both Clean and Aggregate are pure: they never mutate their input and
// perform no I/O beyond logging.
package analysis

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tomtom215/dietscope/internal/dataset"
	"github.com/tomtom215/dietscope/internal/logging"
)

// CleanReport summarizes what a cleaning pass changed.
type CleanReport struct {
	InputRows       int      `json:"input_rows"`
	OutputRows      int      `json:"output_rows"`
	DuplicatesFound int      `json:"duplicates_dropped"`
	MacrosNulled    int      `json:"macros_nulled"`
	DietsDefaulted  int      `json:"diets_defaulted"`
	NamesDefaulted  int      `json:"names_defaulted"`
	MissingColumns  []string `json:"missing_columns,omitempty"`
}

// Clean returns a normalized copy of t:
//
//   - column names trimmed with inner whitespace runs collapsed
//   - exact duplicate rows dropped, first occurrence kept
//   - text cells trimmed, with cells left empty by trimming missing
//   - macro cells parsed as floats, with unparseable or negative values missing
//   - blank, "nan" and "None" diet types and recipe names defaulted
//   - every other column typed as ReadCSV would type it: numeric when all
//     present cells parse as numbers, text otherwise
//
// The last rule makes Clean(t) equal to ReadCSV(WriteCSV(Clean(t))), so a
// summary computed from the cleaned CSV matches one computed in memory.
//
// Missing required columns are reported and logged but do not fail the call.
// A nil or empty table is returned as is.
func Clean(t *dataset.Table) (*dataset.Table, CleanReport) {
	report := CleanReport{InputRows: t.Len()}
	if t.Empty() {
		report.OutputRows = t.Len()
		return t, report
	}

	out := &dataset.Table{Columns: make([]string, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = NormalizeColumnName(c)
	}

	for _, name := range RequiredColumns {
		if !out.Has(name) {
			report.MissingColumns = append(report.MissingColumns, name)
		}
	}
	if len(report.MissingColumns) > 0 {
		logging.Warn().
			Strs("columns", report.MissingColumns).
			Msg("Dataset is missing expected columns; cleaning what is present")
	}

	raw := dedupe(t.Rows)
	report.DuplicatesFound = len(t.Rows) - len(raw)

	macros := make(map[int]bool, len(MacroColumns))
	for _, name := range MacroColumns {
		if j := out.Index(name); j >= 0 {
			macros[j] = true
		}
	}
	dietIdx := out.Index(ColDietType)
	nameIdx := out.Index(ColRecipeName)

	rows := make([][]dataset.Value, 0, len(raw))
	for _, src := range raw {
		row := make([]dataset.Value, len(src))
		for j, v := range src {
			switch {
			case macros[j]:
				row[j] = coerceMacro(v)
				if !v.IsMissing() && row[j].IsMissing() {
					report.MacrosNulled++
				}
			case v.Kind() == dataset.KindText:
				if s := strings.TrimSpace(v.String()); s != "" {
					row[j] = dataset.Text(s)
				}
			default:
				row[j] = v
			}
		}
		if dietIdx >= 0 && isBlankLabel(row[dietIdx]) {
			row[dietIdx] = dataset.Text(UnknownDiet)
			report.DietsDefaulted++
		}
		if nameIdx >= 0 && isBlankLabel(row[nameIdx]) {
			row[nameIdx] = dataset.Text(UnnamedRecipe)
			report.NamesDefaulted++
		}
		if (dietIdx >= 0 && row[dietIdx].IsMissing()) || (nameIdx >= 0 && row[nameIdx].IsMissing()) {
			continue
		}
		rows = append(rows, row)
	}

	settleColumns(rows, len(out.Columns))

	// Trimming can make rows that differed only in whitespace identical.
	before := len(rows)
	out.Rows = dedupe(rows)
	report.DuplicatesFound += before - len(out.Rows)
	report.OutputRows = len(out.Rows)

	logging.Debug().
		Int("input_rows", report.InputRows).
		Int("output_rows", report.OutputRows).
		Int("duplicates", report.DuplicatesFound).
		Int("macros_nulled", report.MacrosNulled).
		Msg("Cleaned dataset")

	return out, report
}

// NormalizeColumnName trims name and collapses each whitespace run to one space.
func NormalizeColumnName(name string) string {
	return strings.Join(strings.FieldsFunc(name, unicode.IsSpace), " ")
}

func coerceMacro(v dataset.Value) dataset.Value {
	var f float64
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ = v.Float()
	case dataset.KindText:
		var ok bool
		if f, ok = dataset.ParseNumber(v.String()); !ok {
			return dataset.Missing()
		}
	default:
		return dataset.Missing()
	}
	if f < 0 {
		return dataset.Missing()
	}
	return dataset.Number(f)
}

// settleColumns gives each column one cell kind: numbers when every present
// cell is a number or numeric text, text otherwise.
func settleColumns(rows [][]dataset.Value, width int) {
	for j := 0; j < width; j++ {
		numeric, seen := true, false
		for _, row := range rows {
			if j >= len(row) || row[j].IsMissing() {
				continue
			}
			seen = true
			if row[j].Kind() == dataset.KindText {
				if _, ok := dataset.ParseNumber(row[j].String()); !ok {
					numeric = false
					break
				}
			}
		}
		if !seen {
			continue
		}
		for _, row := range rows {
			if j >= len(row) {
				continue
			}
			v := row[j]
			switch {
			case numeric && v.Kind() == dataset.KindText:
				f, _ := dataset.ParseNumber(v.String())
				row[j] = dataset.Number(f)
			case !numeric && v.Kind() == dataset.KindNumber:
				row[j] = dataset.Text(v.String())
			}
		}
	}
}

func isBlankLabel(v dataset.Value) bool {
	if v.IsMissing() {
		return true
	}
	s := strings.TrimSpace(v.String())
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none")
}

func dedupe(rows [][]dataset.Value) [][]dataset.Value {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]dataset.Value, 0, len(rows))
	var sb strings.Builder
	for _, row := range rows {
		sb.Reset()
		for _, v := range row {
			sb.WriteByte(byte('0' + v.Kind()))
			s := v.String()
			sb.WriteString(strconv.Itoa(len(s)))
			sb.WriteByte(':')
			sb.WriteString(s)
		}
		key := sb.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}
