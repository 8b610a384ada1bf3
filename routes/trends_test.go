// SPDX-FileCopyrightText: 2025 The Labtrail Authors
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/labtrail/labtrail/clinical"
	"github.com/labtrail/labtrail/db"
)

func storedObservation(t *testing.T, marker, date string, value float64) db.LabObservation {
	t.Helper()

	observedAt, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", date, err)
	}

	return db.LabObservation{
		ID:           uuid.New(),
		PatientID:    uuid.New(),
		RawMarker:    marker,
		RawValue:     "x",
		RawDate:      date,
		ObservedAt:   &observedAt,
		CanonicalKey: clinical.CanonicalizeMarker(marker),
		NumericValue: &value,
	}
}

func TestMarkerCounts(t *testing.T) {
	t.Parallel()

	stored := []db.LabObservation{
		storedObservation(t, "Ferritin", "2024-01-10", 100),
		storedObservation(t, "Ferritin", "2024-03-10", 110),
		storedObservation(t, "Ferritin", "2024-06-10", 120),
		storedObservation(t, "Total Testosterone", "2024-01-10", 700),
		storedObservation(t, "Xyzalot", "2024-01-10", 5),
	}
	// An unparsed row contributes nothing.
	stored = append(stored, db.LabObservation{RawMarker: "TSH", CanonicalKey: "TSH"})

	markers := markerCounts(stored)

	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}

	if markers[0].Key != "FERRITIN" || markers[0].Count != 3 {
		t.Fatalf("unexpected first marker: %+v", markers[0])
	}
	if markers[0].DisplayName != "Ferritin" {
		t.Fatalf("unexpected display name: %q", markers[0].DisplayName)
	}

	// Catalog matches show the catalog name, unknowns keep the raw one.
	var sawTestosterone, sawUnknown bool
	for _, m := range markers {
		switch m.Key {
		case "TESTOSTERONE":
			sawTestosterone = true
			if m.DisplayName != "Total Testosterone" {
				t.Fatalf("unexpected testosterone display name: %q", m.DisplayName)
			}
		case "XYZALOT":
			sawUnknown = true
			if m.DisplayName != "Xyzalot" {
				t.Fatalf("unexpected unknown display name: %q", m.DisplayName)
			}
		}
	}
	if !sawTestosterone || !sawUnknown {
		t.Fatalf("missing expected markers: %+v", markers)
	}
}

func TestGenerateTrendChart(t *testing.T) {
	t.Parallel()

	series := db.ToClinicalSeries([]db.LabObservation{
		storedObservation(t, "Ferritin", "2024-01-10", 100),
		storedObservation(t, "Ferritin", "2024-03-10", 140),
	})
	events := []clinical.Event{
		{
			Date:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Label:    "Started iron supplement",
			Category: clinical.CategorySupplement,
		},
	}

	html, err := generateTrendChart(series, events, "FERRITIN")
	if err != nil {
		t.Fatalf("generateTrendChart failed: %v", err)
	}

	if !strings.Contains(html, "Ferritin") {
		t.Fatal("chart should carry the marker title")
	}
	if !strings.Contains(html, "Started iron supplement") {
		t.Fatal("chart should carry the event annotation")
	}
	if !strings.Contains(html, "Feb 1, 2024") {
		t.Fatal("chart axis should include the event date")
	}
}

func TestGenerateTrendChartNoPoints(t *testing.T) {
	t.Parallel()

	html, err := generateTrendChart(nil, nil, "FERRITIN")
	if err != nil {
		t.Fatalf("generateTrendChart failed: %v", err)
	}
	if html != "" {
		t.Fatalf("expected empty chart, got %d bytes", len(html))
	}
}

func TestSortAxisDates(t *testing.T) {
	t.Parallel()

	labels := []string{"Mar 10, 2024", "Jan 10, 2024", "Feb 1, 2024"}
	sortAxisDates(labels, "Jan 2, 2006")

	want := []string{"Jan 10, 2024", "Feb 1, 2024", "Mar 10, 2024"}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("unexpected order: %v", labels)
		}
	}
}
