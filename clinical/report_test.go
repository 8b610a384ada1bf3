// SPDX-FileCopyrightText: 2025 The Labtrail Authors
// SPDX-License-Identifier: Apache-2.0

package clinical

import (
	"strings"
	"testing"
)

func labRow(t *testing.T, marker, date string, value float64) Observation {
	t.Helper()

	d := day(t, date)
	v := value
	return Observation{
		RawMarker:    marker,
		Date:         &d,
		CanonicalKey: CanonicalizeMarker(marker),
		NumericValue: &v,
	}
}

func TestClassifyReport(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	observations := []Observation{
		labRow(t, "S-Total Testosterone", "2024-03-15", 850),
		labRow(t, "S-Total Testosterone", "2024-01-10", 500),
		labRow(t, "Ferritin", "2024-03-15", 12),
		labRow(t, "Xyzalot", "2024-03-15", 3.2),
	}

	report := ClassifyReport(observations, day(t, "2024-03-15"), catalog)

	if len(report.Results) != 2 {
		t.Fatalf("report has %d rows, want 2", len(report.Results))
	}

	// Attention-first ordering: the out-of-range ferritin leads.
	first := report.Results[0]
	if first.DisplayName() != "Ferritin" {
		t.Fatalf("first row is %q, want Ferritin", first.DisplayName())
	}
	if first.Classification.Status != StatusOutOfRange {
		t.Fatalf("ferritin status = %s, want %s", first.Classification.Status, StatusOutOfRange)
	}

	var testo *ClassifiedResult
	for i := range report.Results {
		if report.Results[i].DisplayName() == "Total Testosterone" {
			testo = &report.Results[i]
		}
	}

	if testo == nil {
		t.Fatal("testosterone row missing from report")
	}
	if testo.Classification.Status != StatusOptimal {
		t.Fatalf("testosterone status = %s, want %s", testo.Classification.Status, StatusOptimal)
	}
	if testo.Classification.RefDisplay != "264 - 916 ng/dL" {
		t.Fatalf("testosterone ref display = %q", testo.Classification.RefDisplay)
	}
	if testo.Delta == nil || *testo.Delta != 350 {
		t.Fatalf("testosterone delta = %v, want 350", testo.Delta)
	}

	if len(report.Unmatched) != 1 || report.Unmatched[0].RawMarker != "Xyzalot" {
		t.Fatalf("unexpected unmatched rows: %+v", report.Unmatched)
	}

	if report.Counts[StatusOutOfRange] != 1 || report.Counts[StatusOptimal] != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts)
	}

	attention := report.Attention()
	if len(attention) != 1 || attention[0].DisplayName() != "Ferritin" {
		t.Fatalf("unexpected attention bucket: %+v", attention)
	}
}

func TestClassifyReportKeepsMostUrgentDuplicate(t *testing.T) {
	t.Parallel()

	// Two headings for the same marker on one report; the urgent one wins.
	observations := []Observation{
		labRow(t, "S-Total Testosterone", "2024-03-15", 850),
		labRow(t, "Testosterone", "2024-03-15", 150),
	}

	report := ClassifyReport(observations, day(t, "2024-03-15"), DefaultCatalog())

	if len(report.Results) != 1 {
		t.Fatalf("report has %d rows, want 1", len(report.Results))
	}
	if report.Results[0].Classification.Status != StatusOutOfRange {
		t.Fatalf("kept row status = %s, want %s",
			report.Results[0].Classification.Status, StatusOutOfRange)
	}
}

func TestClassifyReportExcludesUnmatchedMarkers(t *testing.T) {
	t.Parallel()

	// A marker the catalog cannot identify must never surface as a
	// clinical outcome or pad the in-range count.
	observations := []Observation{
		labRow(t, "Xyzalot", "2024-03-15", 3.2),
	}

	report := ClassifyReport(observations, day(t, "2024-03-15"), DefaultCatalog())

	if len(report.Results) != 0 {
		t.Fatalf("report has %d rows, want 0: %+v", len(report.Results), report.Results)
	}
	if report.Counts[StatusInRange] != 0 {
		t.Fatalf("in-range count = %d, want 0", report.Counts[StatusInRange])
	}
	if len(report.Unmatched) != 1 || report.Unmatched[0].RawMarker != "Xyzalot" {
		t.Fatalf("unexpected unmatched rows: %+v", report.Unmatched)
	}
}

func TestClassifyReportSkipsOtherDates(t *testing.T) {
	t.Parallel()

	observations := []Observation{
		labRow(t, "Ferritin", "2024-01-10", 80),
	}

	report := ClassifyReport(observations, day(t, "2024-03-15"), DefaultCatalog())
	if len(report.Results) != 0 {
		t.Fatalf("report has %d rows, want 0", len(report.Results))
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	d := day(t, "2024-03-15")
	v := 850.0

	a := Fingerprint(&d, "TESTOSTERONE", &v)
	b := Fingerprint(&d, "TESTOSTERONE", &v)
	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
	if a != "2024-03-15_TESTOSTERONE_850" {
		t.Fatalf("fingerprint = %q", a)
	}

	if got := Fingerprint(nil, "TESTOSTERONE", nil); got != "NA_TESTOSTERONE_NA" {
		t.Fatalf("nil-field fingerprint = %q", got)
	}

	other := 851.0
	if Fingerprint(&d, "TESTOSTERONE", &other) == a {
		t.Fatal("distinct values collided")
	}
}

func TestLayoutTrend(t *testing.T) {
	t.Parallel()

	series := []Observation{
		labRow(t, "S-Total Testosterone", "2024-01-01", 500),
		labRow(t, "Total Testosterone", "2024-06-01", 850),
		labRow(t, "Ferritin", "2024-03-01", 80),
	}
	events := []Event{
		event(t, "2024-02-01", "started TRT"),
		event(t, "2024-02-05", strings.Repeat("x", 40)),
	}

	layout := LayoutTrend(series, events, "TESTOSTERONE", DefaultCatalog())

	if len(layout.Points) != 2 {
		t.Fatalf("layout has %d points, want 2", len(layout.Points))
	}
	if !layout.Points[0].Date.Before(*layout.Points[1].Date) {
		t.Fatal("points not in date order")
	}
	if layout.Points[1].Classification.Status != StatusOptimal {
		t.Fatalf("latest point status = %s", layout.Points[1].Classification.Status)
	}

	// The optimal ceiling (1000) is the tallest band, padded 20%.
	if layout.YTop != 1200 {
		t.Fatalf("YTop = %v, want 1200", layout.YTop)
	}
	if layout.YBottom != 0 {
		t.Fatalf("YBottom = %v, want 0", layout.YBottom)
	}

	if len(layout.Events) != 2 {
		t.Fatalf("layout has %d events, want 2", len(layout.Events))
	}

	// The two events are 4 days apart, well inside the threshold derived
	// from the 152-day span, so they land in different lanes.
	if layout.Events[0].Lane == layout.Events[1].Lane {
		t.Fatal("close events share a lane")
	}
	if layout.Events[0].LabelY >= layout.YTop {
		t.Fatalf("label placed above the chart: %v", layout.Events[0].LabelY)
	}

	long := layout.Events[1].ShortLabel
	if len([]rune(long)) != maxEventLabelLen+1 || !strings.HasSuffix(long, "…") {
		t.Fatalf("long label not truncated: %q", long)
	}
}

func TestLayoutTrendEmptySeries(t *testing.T) {
	t.Parallel()

	layout := LayoutTrend(nil, nil, "TESTOSTERONE", DefaultCatalog())
	if len(layout.Points) != 0 || len(layout.Events) != 0 {
		t.Fatal("empty series produced points or events")
	}
	if layout.YTop != 1 {
		t.Fatalf("empty-series YTop = %v, want 1", layout.YTop)
	}
}

func TestCategoryFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		marker string
		want   string
	}{
		{marker: "S-Total Testosterone", want: "Hormones"},
		{marker: "LDL Cholesterol", want: "Lipids"},
		{marker: "TSH", want: "Thyroid"},
		{marker: "Fasting Glucose", want: "Metabolic"},
		{marker: "Haematocrit", want: "Blood"},
		{marker: "Vitamin D", want: "Vitamins & Minerals"},
		{marker: "ALT", want: "Liver"},
		{marker: "Serum Creatinine", want: "Kidney"},
		{marker: "Xyzalot", want: "Other"},
	}

	for _, tt := range tests {
		if got := CategoryFor(tt.marker); got != tt.want {
			t.Fatalf("CategoryFor(%q) = %q, want %q", tt.marker, got, tt.want)
		}
	}
}
