// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Command analyze runs the cleaning and aggregation pipeline over a local
// CSV file and prints the result as JSON.
//
//	analyze -in All_Diets.csv -clean-out All_Diets_clean.csv -pretty
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/dataset"
	"github.com/tomtom215/dietscope/internal/logging"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "All_Diets.csv", "raw recipe CSV to analyze")
	cleanOut := fs.String("clean-out", "", "write the cleaned CSV to this path")
	pretty := fs.Bool("pretty", false, "indent the JSON output")
	quiet := fs.Bool("quiet", false, "suppress the cleaning summary on stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "analyze: unexpected arguments: %v\n", fs.Args())
		return exitUsage
	}

	level := "info"
	if *quiet {
		level = "disabled"
	}
	logging.Init(logging.Config{Level: level, Format: "console", Output: stderr})

	if err := analyze(*in, *cleanOut, *pretty, stdout); err != nil {
		fmt.Fprintf(stderr, "analyze: %v\n", err)
		return exitError
	}
	return exitOK
}

func analyze(in, cleanOut string, pretty bool, stdout io.Writer) error {
	f, err := os.Open(in)
	if err != nil {
		return analysis.SourceError(in, err)
	}
	defer f.Close()

	raw, err := dataset.ReadCSV(f)
	if err != nil {
		return analysis.SourceError(in, err)
	}

	result, cleaned, report, err := analysis.Analyze(raw, time.Now())
	if err != nil {
		return err
	}
	logging.Info().
		Int("input_rows", report.InputRows).
		Int("output_rows", report.OutputRows).
		Int("duplicates_dropped", report.DuplicatesFound).
		Int("macros_nulled", report.MacrosNulled).
		Strs("missing_columns", report.MissingColumns).
		Msg("Dataset cleaned")

	if cleanOut != "" {
		if err := writeCleaned(cleanOut, cleaned); err != nil {
			return err
		}
		logging.Info().Str("path", cleanOut).Msg("Cleaned CSV written")
	}
	result.Metadata.SourceBlob = in
	result.Metadata.CleanBlob = cleanOut

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func writeCleaned(path string, t *dataset.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := dataset.WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
