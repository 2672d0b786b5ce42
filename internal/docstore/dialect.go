// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package docstore

import (
	"strconv"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// dialect captures the SQL differences between the supported engines.
type dialect struct {
	backend string
	driver  string

	// numbered placeholders ($1) instead of ?
	numbered bool

	// jsonType is the column type for document bodies.
	jsonType string

	// jsonParam wraps a placeholder bound to a JSON text value.
	jsonParam func(ph string) string

	// contains returns an expression true when needle occurs in haystack.
	contains func(haystack, needle string) string

	// byteOrder makes ORDER BY compare raw bytes.
	byteOrder string

	// noSecondaryIndex is set where upserts cannot touch indexed columns.
	noSecondaryIndex bool
}

var (
	sqliteDialect = dialect{
		backend:   BackendSQLite,
		driver:    "sqlite",
		jsonType:  "TEXT",
		jsonParam: func(ph string) string { return ph },
		contains:  func(h, n string) string { return "instr(" + h + ", " + n + ") > 0" },
	}

	postgresDialect = dialect{
		backend:   BackendPostgres,
		driver:    "pgx",
		numbered:  true,
		jsonType:  "JSONB",
		jsonParam: func(ph string) string { return ph + "::jsonb" },
		contains:  func(h, n string) string { return "strpos(" + h + ", " + n + ") > 0" },
		byteOrder: ` COLLATE "C"`,
	}

	duckdbDialect = dialect{
		backend:          BackendDuckDB,
		driver:           "duckdb",
		jsonType:         "TEXT",
		jsonParam:        func(ph string) string { return ph },
		contains:         func(h, n string) string { return "strpos(" + h + ", " + n + ") > 0" },
		noSecondaryIndex: true,
	}
)

// params hands out placeholders in order.
type params struct {
	d    dialect
	args []interface{}
}

func (p *params) add(v interface{}) string {
	p.args = append(p.args, v)
	if p.d.numbered {
		return "$" + strconv.Itoa(len(p.args))
	}
	return "?"
}
