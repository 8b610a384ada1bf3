// SPDX-FileCopyrightText: 2025 The Labtrail Authors
// SPDX-License-Identifier: Apache-2.0

package clinical

import "testing"

func TestClassifySweepAcrossBands(t *testing.T) {
	t.Parallel()

	entry := &CatalogEntry{
		Biomarker:     "Sweep",
		StandardRange: "70-100",
		OptimalMin:    ptr(72), OptimalMax: ptr(90),
		Unit: "mg/dL",
	}

	tests := []struct {
		value float64
		want  Status
	}{
		{value: 60, want: StatusOutOfRange},
		{value: 70, want: StatusBorderline},
		{value: 72, want: StatusOptimal},
		{value: 80, want: StatusOptimal},
		{value: 90, want: StatusOptimal},
		{value: 95, want: StatusBorderline},
		{value: 100, want: StatusBorderline},
		{value: 110, want: StatusOutOfRange},
	}

	for _, tt := range tests {
		got := Classify(tt.value, entry)
		if got.Status != tt.want {
			t.Fatalf("Classify(%v) = %s, want %s", tt.value, got.Status, tt.want)
		}
	}
}

func TestClassifyUnitMismatchGuard(t *testing.T) {
	t.Parallel()

	entry := &CatalogEntry{Biomarker: "Guard", StandardRange: "70-100", Unit: "mg/dL"}

	for _, value := range []float64{5, 2000} {
		got := Classify(value, entry)
		if got.Status != StatusUnitMismatch {
			t.Fatalf("Classify(%v) = %s, want %s", value, got.Status, StatusUnitMismatch)
		}
		if got.Severity != SeverityInert {
			t.Fatalf("unit mismatch severity = %d, want %d", got.Severity, SeverityInert)
		}
	}

	// A zero-low range ("<150" style) cannot trip the guard on the low side.
	low := &CatalogEntry{Biomarker: "LowZero", StandardRange: "<150", Unit: "mg/dL"}
	if got := Classify(3, low); got.Status == StatusUnitMismatch {
		t.Fatal("zero-low range must not trigger the mismatch guard")
	}
}

// Decimal high bounds in catalog ranges must classify like any other; a
// mis-parsed band would send every healthy value through the mismatch guard.
func TestClassifyDecimalBoundCatalogEntries(t *testing.T) {
	t.Parallel()

	var hct, tsh *CatalogEntry
	catalog := DefaultCatalog()
	for i := range catalog {
		switch catalog[i].Biomarker {
		case "Haematocrit":
			hct = &catalog[i]
		case "TSH":
			tsh = &catalog[i]
		}
	}
	if hct == nil || tsh == nil {
		t.Fatal("catalog entries missing")
	}

	got := Classify(44, hct)
	if got.Status != StatusOptimal {
		t.Fatalf("Classify(44, Haematocrit) = %s, want %s", got.Status, StatusOptimal)
	}
	if got.RefDisplay != "38.3 - 48.6 %" {
		t.Fatalf("haematocrit ref display = %q", got.RefDisplay)
	}

	if got := Classify(1.8, tsh); got.Status != StatusOptimal {
		t.Fatalf("Classify(1.8, TSH) = %s, want %s", got.Status, StatusOptimal)
	}
}

func TestClassifyAbsoluteCeiling(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	psa := Match("PSA", catalog)
	if psa == nil {
		t.Fatal("PSA missing from catalog")
	}

	if got := Classify(4.5, psa); got.Status != StatusOutOfRange {
		t.Fatalf("PSA 4.5 = %s, want %s", got.Status, StatusOutOfRange)
	}
	if got := Classify(2.0, psa); got.Status != StatusOptimal {
		t.Fatalf("PSA 2.0 = %s, want %s", got.Status, StatusOptimal)
	}
	if got := Classify(3.0, psa); got.Status != StatusBorderline {
		t.Fatalf("PSA 3.0 = %s, want %s", got.Status, StatusBorderline)
	}
}

func TestClassifyEdgeBuffer(t *testing.T) {
	t.Parallel()

	entry := &CatalogEntry{Biomarker: "Buffered", StandardRange: "70-100", Unit: "mg/dL"}

	if got := Classify(70.5, entry); got.Status != StatusBorderline {
		t.Fatalf("near low edge = %s, want %s", got.Status, StatusBorderline)
	}
	if got := Classify(99.5, entry); got.Status != StatusBorderline {
		t.Fatalf("near high edge = %s, want %s", got.Status, StatusBorderline)
	}
	if got := Classify(85, entry); got.Status != StatusInRange {
		t.Fatalf("mid range = %s, want %s", got.Status, StatusInRange)
	}

	noBuffer := &CatalogEntry{Biomarker: "Raw", StandardRange: "70-100", Unit: "mg/dL", NoEdgeBuffer: true}
	if got := Classify(70.5, noBuffer); got.Status != StatusInRange {
		t.Fatalf("NoEdgeBuffer near edge = %s, want %s", got.Status, StatusInRange)
	}
}

func TestClassifyUnknownMarker(t *testing.T) {
	t.Parallel()

	got := Classify(42, nil)
	if got.Status != StatusInRange {
		t.Fatalf("unknown marker status = %s, want %s", got.Status, StatusInRange)
	}
	if got.Severity != SeverityInert {
		t.Fatalf("unknown marker severity = %d, want %d", got.Severity, SeverityInert)
	}
	if got.RefDisplay != "" {
		t.Fatalf("unknown marker ref display = %q, want empty", got.RefDisplay)
	}
}

func TestClassifyUnparseableRangeFallsThrough(t *testing.T) {
	t.Parallel()

	entry := &CatalogEntry{Biomarker: "NoRange", StandardRange: "see note", Unit: ""}
	got := Classify(42, entry)
	if got.Status != StatusInRange || got.Severity != SeverityInert {
		t.Fatalf("unparseable range = %s/%d, want %s/%d",
			got.Status, got.Severity, StatusInRange, SeverityInert)
	}
}

func TestClassifyRefDisplay(t *testing.T) {
	t.Parallel()

	entry := &CatalogEntry{Biomarker: "Disp", StandardRange: "264-916", Unit: "ng/dL"}
	got := Classify(500, entry)
	if got.RefDisplay != "264 - 916 ng/dL" {
		t.Fatalf("RefDisplay = %q", got.RefDisplay)
	}
}

func TestClassificationAttention(t *testing.T) {
	t.Parallel()

	attention := []Status{StatusOutOfRange, StatusBorderline}
	calm := []Status{StatusOptimal, StatusInRange, StatusUnitMismatch, StatusError}

	for _, status := range attention {
		if !(Classification{Status: status}).Attention() {
			t.Fatalf("%s should need attention", status)
		}
	}
	for _, status := range calm {
		if (Classification{Status: status}).Attention() {
			t.Fatalf("%s should not need attention", status)
		}
	}
}
