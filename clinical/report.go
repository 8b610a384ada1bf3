/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Observation is one lab result row after ingestion. Date and NumericValue
// are nil when the raw strings could not be parsed; such rows are retained
// for display but excluded from date-ordered operations and classification.
type Observation struct {
	PatientID    string
	RawMarker    string
	RawValue     string
	Unit         string
	Date         *time.Time
	CanonicalKey string
	NumericValue *float64
}

// EventCategory classifies an intervention event.
type EventCategory string

const (
	CategoryMedication EventCategory = "Medication"
	CategoryLifestyle  EventCategory = "Lifestyle"
	CategoryProcedure  EventCategory = "Procedure"
	CategorySupplement EventCategory = "Supplement"
)

// Event is a dated intervention annotation (started a medication, changed
// training, a procedure) drawn on trend charts.
type Event struct {
	Date     time.Time
	Label    string
	Category EventCategory
	Notes    string
}

// Fingerprint derives the identity string used to collapse duplicate
// observations on re-ingestion: same date, same canonical marker, same
// numeric value means the same measurement regardless of which upload it
// arrived in.
func Fingerprint(date *time.Time, canonicalKey string, value *float64) string {
	day := "NA"
	if date != nil {
		day = date.Format("2006-01-02")
	}
	val := "NA"
	if value != nil {
		val = fmt.Sprintf("%g", *value)
	}
	return day + "_" + canonicalKey + "_" + val
}

// ClassifiedResult is one observation joined with its catalog match and
// classification, ready for dashboard rendering.
type ClassifiedResult struct {
	Observation
	Matched        *CatalogEntry
	Classification Classification
	Delta          *float64
}

// DisplayName is the catalog biomarker name when matched, otherwise the raw
// marker as uploaded.
func (r ClassifiedResult) DisplayName() string {
	if r.Matched != nil {
		return r.Matched.Biomarker
	}
	return r.RawMarker
}

// Report aggregates one report date's classified rows for the dashboard.
// Observations whose marker resolved to no catalog entry are excluded from
// Results and carried on Unmatched so the dashboard can surface them
// without dressing them up as clinical outcomes.
type Report struct {
	Date      time.Time
	Results   []ClassifiedResult
	Unmatched []Observation
	Counts    map[Status]int
}

// Attention returns the rows needing attention, most urgent first.
func (r Report) Attention() []ClassifiedResult {
	var out []ClassifiedResult
	for _, res := range r.Results {
		if res.Classification.Attention() {
			out = append(out, res)
		}
	}
	return out
}

// ClassifyReport is the single entry point combining the matcher, the
// classifier, and the delta calculator for one report date. It classifies
// every observation dated reportDate, computes each row's change since the
// previous test of the same marker, and collapses rows sharing a display
// name down to the most urgent one (a lab sometimes reports the same marker
// twice under slightly different headings). Markers the catalog cannot
// identify are set aside on Unmatched rather than guessed at.
func ClassifyReport(observations []Observation, reportDate time.Time, catalog []CatalogEntry) Report {
	report := Report{Date: reportDate, Counts: make(map[Status]int)}

	for _, obs := range observations {
		if obs.Date == nil || !obs.Date.Equal(reportDate) {
			continue
		}

		res := ClassifiedResult{Observation: obs}
		res.Matched = Match(obs.RawMarker, catalog)
		if res.Matched == nil {
			report.Unmatched = append(report.Unmatched, obs)
			continue
		}
		if obs.NumericValue != nil {
			res.Classification = Classify(*obs.NumericValue, res.Matched)
			res.Delta = Delta(observations, obs.CanonicalKey, reportDate)
		} else {
			res.Classification = Classification{Status: StatusError, Severity: SeverityInert}
		}

		report.Results = append(report.Results, res)
	}

	report.Results = filterBestMatches(report.Results)

	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].Classification.Severity < report.Results[j].Classification.Severity
	})

	for _, res := range report.Results {
		report.Counts[res.Classification.Status]++
	}

	return report
}

// filterBestMatches keeps one row per display name, preferring the most
// urgent classification. Stable with respect to input order on ties.
func filterBestMatches(results []ClassifiedResult) []ClassifiedResult {
	best := make(map[string]int)
	var out []ClassifiedResult
	for _, res := range results {
		name := res.DisplayName()
		if i, ok := best[name]; ok {
			if res.Classification.Severity < out[i].Classification.Severity {
				out[i] = res
			}
			continue
		}
		best[name] = len(out)
		out = append(out, res)
	}
	return out
}

// PlacedEvent is a staggered event with its label's chart coordinates
// resolved: the vertical position for its text and the truncated label.
type PlacedEvent struct {
	StaggeredEvent
	LabelY     float64
	ShortLabel string
}

// TrendLayout is everything a chart needs to render one marker's history:
// classified points in date order, collision-free event annotations, and
// the y-axis bounds that keep reference bands visible.
type TrendLayout struct {
	Points  []ClassifiedResult
	Events  []PlacedEvent
	YBottom float64
	YTop    float64
}

// Label text longer than this is truncated with an ellipsis so annotations
// do not run off the chart.
const maxEventLabelLen = 34

// staggerSpanFraction converts the visible date span into a stagger
// threshold so that layouts adapt to zoomed-in vs zoomed-out views.
const staggerSpanFraction = 0.12

// LayoutTrend assembles the chart layout for one canonical marker: the
// marker's dated series classified point by point, y-axis bounds expanded
// to cover both the data and the reference bands, and intervention events
// staggered into lanes with label coordinates assigned.
func LayoutTrend(series []Observation, events []Event, markerKey string, catalog []CatalogEntry) TrendLayout {
	var dated []Observation
	for _, obs := range series {
		if obs.CanonicalKey == markerKey && obs.Date != nil && obs.NumericValue != nil {
			dated = append(dated, obs)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Before(*dated[j].Date)
	})

	var layout TrendLayout
	if len(dated) == 0 {
		layout.YTop = 1
		return layout
	}

	var entry *CatalogEntry
	for i := range dated {
		res := ClassifiedResult{Observation: dated[i]}
		res.Matched = Match(dated[i].RawMarker, catalog)
		res.Classification = Classify(*dated[i].NumericValue, res.Matched)
		if entry == nil {
			entry = res.Matched
		}
		layout.Points = append(layout.Points, res)
	}

	dataMin, dataMax := *dated[0].NumericValue, *dated[0].NumericValue
	for _, obs := range dated[1:] {
		if *obs.NumericValue < dataMin {
			dataMin = *obs.NumericValue
		}
		if *obs.NumericValue > dataMax {
			dataMax = *obs.NumericValue
		}
	}

	top := dataMax
	if entry != nil {
		if srange := ParseRange(entry.StandardRange); srange != nil && srange.High > top {
			top = srange.High
		}
		if entry.OptimalMax != nil && *entry.OptimalMax > top {
			top = *entry.OptimalMax
		}
	}
	if top > 0 {
		layout.YTop = top * 1.2
	} else {
		layout.YTop = 1
	}
	if dataMin < 0 {
		layout.YBottom = dataMin * 0.9
	}

	first, last := *dated[0].Date, *dated[len(dated)-1].Date
	span := dayGap(first, last)
	if span < 30 {
		span = 30
	}
	threshold := int(float64(span) * staggerSpanFraction)

	staggered := Stagger(events, threshold)

	laneHeight := (layout.YTop - layout.YBottom) * 0.08
	labelInset := (layout.YTop - layout.YBottom) * 0.06
	for _, ev := range staggered {
		placed := PlacedEvent{
			StaggeredEvent: ev,
			LabelY:         layout.YTop - float64(ev.Lane)*laneHeight - labelInset,
			ShortLabel:     truncateLabel(ev.Label),
		}
		layout.Events = append(layout.Events, placed)
	}

	return layout
}

func truncateLabel(label string) string {
	runes := []rune(strings.TrimSpace(label))
	if len(runes) <= maxEventLabelLen {
		return string(runes)
	}
	return string(runes[:maxEventLabelLen]) + "…"
}
