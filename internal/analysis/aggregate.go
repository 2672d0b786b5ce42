// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/dietscope/internal/dataset"
)

// MacroAverages is one avg_macros row. Nil means the group had no values.
type MacroAverages struct {
	DietType string   `json:"Diet_type"`
	Protein  *float64 `json:"Protein(g)"`
	Carbs    *float64 `json:"Carbs(g)"`
	Fat      *float64 `json:"Fat(g)"`
}

// Record is one top_protein row: every cleaned column plus the two ratios.
// Values are nil, string or float64.
type Record map[string]interface{}

// Metadata describes a Result. The refresh and query paths annotate it
// with provenance fields that Aggregate itself leaves empty.
type Metadata struct {
	RowCount     int    `json:"row_count"`
	DietTypes    int    `json:"diet_types"`
	GeneratedUTC string `json:"generated_utc,omitempty"`

	SourceBlob string `json:"source_blob,omitempty"`
	CleanBlob  string `json:"clean_blob,omitempty"`
	CachedUTC  string `json:"cached_utc,omitempty"`

	CacheSource        string   `json:"cache_source,omitempty"`
	CacheStatus        string   `json:"cache_status,omitempty"`
	APIExecutionTimeMs *float64 `json:"api_execution_time_ms,omitempty"`
	ExecutionTimeMs    *float64 `json:"execution_time_ms,omitempty"`
}

// Result is the aggregation payload stored in both cache tiers and
// returned by the analysis endpoints.
type Result struct {
	AvgMacros  []MacroAverages `json:"avg_macros"`
	TopProtein []Record        `json:"top_protein"`
	Metadata   Metadata        `json:"metadata"`
}

// Aggregate groups t by diet type and computes mean macros and the top
// protein recipes per group. Groups are ordered by diet type. t should
// already be cleaned.
func Aggregate(t *dataset.Table, now time.Time) (*Result, error) {
	dietIdx := t.Index(ColDietType)
	if dietIdx < 0 {
		return nil, &MissingColumnError{Column: ColDietType}
	}
	proteinIdx := t.Index(ColProtein)
	if proteinIdx < 0 {
		return nil, &MissingColumnError{Column: ColProtein}
	}
	carbsIdx := t.Index(ColCarbs)
	fatIdx := t.Index(ColFat)

	groups := make(map[string][]int)
	for i, row := range t.Rows {
		key := row[dietIdx].String()
		groups[key] = append(groups[key], i)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := &Result{
		AvgMacros:  make([]MacroAverages, 0, len(keys)),
		TopProtein: make([]Record, 0, len(keys)*TopN),
		Metadata: Metadata{
			RowCount:     t.Len(),
			DietTypes:    len(keys),
			GeneratedUTC: now.UTC().Format(time.RFC3339),
		},
	}

	for _, key := range keys {
		members := groups[key]
		res.AvgMacros = append(res.AvgMacros, MacroAverages{
			DietType: key,
			Protein:  mean(t, members, proteinIdx),
			Carbs:    mean(t, members, carbsIdx),
			Fat:      mean(t, members, fatIdx),
		})

		ranked := append([]int(nil), members...)
		sort.SliceStable(ranked, func(a, b int) bool {
			pa, okA := t.Rows[ranked[a]][proteinIdx].Float()
			pb, okB := t.Rows[ranked[b]][proteinIdx].Float()
			if okA != okB {
				return okA
			}
			return okA && pa > pb
		})
		if len(ranked) > TopN {
			ranked = ranked[:TopN]
		}
		for _, i := range ranked {
			rec := Record(t.Record(i))
			row := t.Rows[i]
			rec[ColProteinToCarbs] = ratio(row, proteinIdx, carbsIdx)
			rec[ColCarbsToFat] = ratio(row, carbsIdx, fatIdx)
			res.TopProtein = append(res.TopProtein, rec)
		}
	}

	return res, nil
}

func mean(t *dataset.Table, members []int, col int) *float64 {
	if col < 0 {
		return nil
	}
	var sum float64
	var n int
	for _, i := range members {
		if f, ok := t.Rows[i][col].Float(); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	if math.IsInf(sum, 0) {
		avg = runningMean(t, members, col)
	}
	avg = Round2(avg)
	return &avg
}

// runningMean averages without an intermediate sum, for columns whose total
// overflows float64.
func runningMean(t *dataset.Table, members []int, col int) float64 {
	var avg float64
	var n int
	for _, i := range members {
		if f, ok := t.Rows[i][col].Float(); ok {
			n++
			avg += (f - avg) / float64(n)
		}
	}
	return avg
}

// ratio returns num/den, or nil when either is missing, den is zero or the
// quotient overflows.
func ratio(row []dataset.Value, numIdx, denIdx int) interface{} {
	if numIdx < 0 || denIdx < 0 {
		return nil
	}
	num, ok := row[numIdx].Float()
	if !ok {
		return nil
	}
	den, ok := row[denIdx].Float()
	if !ok || den == 0 {
		return nil
	}
	q := num / den
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return nil
	}
	return q
}

// Round2 rounds f to two decimals, halves away from zero. Values too large
// to scale are already whole and come back unchanged.
func Round2(f float64) float64 {
	scaled := f * 100
	if math.IsInf(scaled, 0) {
		return f
	}
	return math.Round(scaled) / 100
}
