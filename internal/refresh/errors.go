// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package refresh

import (
	"fmt"
)

// maxKeptErrors bounds how many individual upsert errors are retained.
const maxKeptErrors = 20

// PartialWriteError reports recipe upserts that failed while the rest of
// the batch went through.
type PartialWriteError struct {
	Failed    int
	Attempted int
	Errs      []error
}

func (e *PartialWriteError) Error() string {
	if len(e.Errs) == 0 {
		return fmt.Sprintf("%d of %d recipe upserts failed", e.Failed, e.Attempted)
	}
	return fmt.Sprintf("%d of %d recipe upserts failed, first: %v", e.Failed, e.Attempted, e.Errs[0])
}

// Unwrap exposes the retained errors to errors.Is and errors.As.
func (e *PartialWriteError) Unwrap() []error { return e.Errs }

func (e *PartialWriteError) add(err error) {
	e.Failed++
	if len(e.Errs) < maxKeptErrors {
		e.Errs = append(e.Errs, err)
	}
}
