// SPDX-FileCopyrightText: 2025 The Labtrail Authors
// SPDX-License-Identifier: Apache-2.0

package clinical

import "testing"

func TestMatchExactAlias(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "S-Total Testosterone", want: "Total Testosterone"},
		{raw: "Serum HDL", want: "HDL Cholesterol"},
		{raw: "Non HDL Cholesterol", want: "Non-HDL Cholesterol"},
		{raw: "HCT", want: "Haematocrit"},
		{raw: "25 OH", want: "Vitamin D"},
	}

	for _, tt := range tests {
		got := Match(tt.raw, catalog)
		if got == nil {
			t.Fatalf("Match(%q) = nil, want %q", tt.raw, tt.want)
		}
		if got.Biomarker != tt.want {
			t.Fatalf("Match(%q) = %q, want %q", tt.raw, got.Biomarker, tt.want)
		}
	}
}

func TestMatchFuzzy(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()

	got := Match("Testosteron", catalog)
	if got == nil {
		t.Fatal("expected fuzzy match for truncated marker name")
	}
	if got.Biomarker != "Total Testosterone" {
		t.Fatalf("fuzzy match resolved to %q", got.Biomarker)
	}
}

func TestMatchUnmatched(t *testing.T) {
	t.Parallel()

	if got := Match("Xyzalot", DefaultCatalog()); got != nil {
		t.Fatalf("Match for unknown marker = %q, want nil", got.Biomarker)
	}
}

func TestMatchThresholdIsStrict(t *testing.T) {
	t.Parallel()

	// "ABCDEFGHIJKLMNOPQRST" vs an alias sharing 17 of 20 characters scores
	// exactly 0.85; a strict threshold must reject it.
	catalog := []CatalogEntry{{
		Biomarker: "Strict",
		Keywords:  "ABCDEFGHIJKLMNOPQXYZ",
	}}

	if got := Match("ABCDEFGHIJKLMNOPQRST", catalog); got != nil {
		t.Fatalf("score equal to the threshold must not match, got %q", got.Biomarker)
	}
}

func TestMatchJustAboveThreshold(t *testing.T) {
	t.Parallel()

	// 18 shared of 21 characters each scores 36/42 ≈ 0.857, the narrowest
	// margin above the threshold these lengths allow; it must match.
	catalog := []CatalogEntry{{
		Biomarker: "Narrow",
		Keywords:  "ABCDEFGHIJKLMNOPQRXYZ",
	}}

	got := Match("ABCDEFGHIJKLMNOPQRSTU", catalog)
	if got == nil || got.Biomarker != "Narrow" {
		t.Fatalf("score just above the threshold must match, got %+v", got)
	}
}

func TestMatchNonContainmentGuard(t *testing.T) {
	t.Parallel()

	// Without the guard "NON-HDL CHOLESTEROL" scores high against the plain
	// HDL alias and would silently absorb its observations.
	catalog := []CatalogEntry{{
		Biomarker: "HDL Cholesterol",
		Keywords:  "HDL CHOLESTEROL",
	}}

	if got := Match("Non-HDL Cholesterol", catalog); got != nil {
		t.Fatalf("NON-prefixed marker matched %q", got.Biomarker)
	}
}

func TestMatchFirstEntryWinsTies(t *testing.T) {
	t.Parallel()

	catalog := []CatalogEntry{
		{Biomarker: "First", Keywords: "MARKER ONE"},
		{Biomarker: "Second", Keywords: "MARKER ONE"},
	}

	got := Match("Marker One", catalog)
	if got == nil || got.Biomarker != "First" {
		t.Fatalf("tie did not resolve to the first catalog entry: %+v", got)
	}
}
