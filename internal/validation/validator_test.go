// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Name   string `validate:"required"`
	Source string `validate:"omitempty,blobname,max=32"`
	Driver string `validate:"oneof=memory fs s3"`
	Size   int    `validate:"min=1,max=50"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	s := sample{Name: "x", Source: "cache/analysis_cache.json", Driver: "fs", Size: 10}
	if err := ValidateStruct(&s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStructCollectsAllFields(t *testing.T) {
	t.Parallel()

	s := sample{Source: "../etc/passwd", Driver: "ftp", Size: 0}
	err := ValidateStruct(&s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(err.Fields), err)
	}

	msg := err.Error()
	for _, want := range []string{
		"sample.Name is required",
		"sample.Source must be a relative blob name",
		"sample.Driver must be one of: memory fs s3",
		"sample.Size must be at least 1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestIsBlobName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"All_Diets.csv", true},
		{"cache/analysis_cache.json", true},
		{"", false},
		{"/abs/path.csv", false},
		{"a/../b.csv", false},
		{"a//b.csv", false},
		{"./a.csv", false},
		{`a\b.csv`, false},
		{"bad\nname.csv", false},
	}
	for _, tt := range tests {
		if got := IsBlobName(tt.name); got != tt.want {
			t.Errorf("IsBlobName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
