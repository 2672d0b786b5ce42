// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the raw or cleaned dataset could not be read.
	ErrSourceUnavailable = errors.New("source dataset unavailable")

	// ErrMissingColumn means a column the aggregation depends on is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// MissingColumnError names the absent column.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column: %s", e.Column)
}

// Unwrap lets errors.Is match ErrMissingColumn.
func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// SourceError wraps a failed read of the named blob as ErrSourceUnavailable.
func SourceError(blob string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrSourceUnavailable, blob)
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, blob, err)
}
