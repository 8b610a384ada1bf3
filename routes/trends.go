/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	htmltemplate "html/template"
	"net/http"
	"sort"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/labtrail/labtrail/clinical"
	"github.com/labtrail/labtrail/db"
)

// MarkerCount is one entry in the trends page marker selector.
type MarkerCount struct {
	Key         string
	DisplayName string
	Count       int
}

// Trends renders the per-marker history chart with intervention
// annotations.
func Trends(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	data["IsTrends"] = true
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		webLogger.Error("Failed to resolve patient", "error", err)
		SetErrorFlash(s, "No patient found")
		c.Redirect("/", http.StatusSeeOther)
		return
	}
	data["Patient"] = patient

	stored, err := db.ListObservations(ctx, patient.ID.String())
	if err != nil {
		webLogger.Error("Failed to fetch observations", "error", err)
		data["Error"] = "Failed to load observations"
		t.HTML(http.StatusOK, "trends")
		return
	}

	markers := markerCounts(stored)
	data["Markers"] = markers

	if len(markers) == 0 {
		t.HTML(http.StatusOK, "trends")
		return
	}

	selected := c.Query("marker")
	if selected == "" {
		selected = markers[0].Key
	}
	data["Selected"] = selected

	events, err := db.ListEvents(ctx, patient.ID.String())
	if err != nil {
		webLogger.Error("Failed to fetch events", "error", err)
		data["Error"] = "Failed to load events"
		t.HTML(http.StatusOK, "trends")
		return
	}

	chart, err := generateTrendChart(db.ToClinicalSeries(stored), db.ToClinicalEvents(events), selected)
	if err != nil {
		webLogger.Error("Failed to generate chart", "marker", selected, "error", err)
		data["Error"] = "Failed to generate chart"
		t.HTML(http.StatusOK, "trends")
		return
	}
	data["Chart"] = htmltemplate.HTML(chart)

	t.HTML(http.StatusOK, "trends")
}

// markerCounts lists the distinct canonical markers present in a patient's
// dated observations, most tested first.
func markerCounts(stored []db.LabObservation) []MarkerCount {
	catalog := clinical.DefaultCatalog()
	counts := make(map[string]*MarkerCount)

	for i := range stored {
		if stored[i].ObservedAt == nil || stored[i].NumericValue == nil {
			continue
		}
		key := stored[i].CanonicalKey
		mc, ok := counts[key]
		if !ok {
			display := stored[i].RawMarker
			if entry := clinical.Match(stored[i].RawMarker, catalog); entry != nil {
				display = entry.Biomarker
			}
			mc = &MarkerCount{Key: key, DisplayName: display}
			counts[key] = mc
		}
		mc.Count++
	}

	markers := make([]MarkerCount, 0, len(counts))
	for _, mc := range counts {
		markers = append(markers, *mc)
	}
	sort.Slice(markers, func(i, j int) bool {
		if markers[i].Count != markers[j].Count {
			return markers[i].Count > markers[j].Count
		}
		return markers[i].DisplayName < markers[j].DisplayName
	})

	return markers
}

// generateTrendChart renders one marker's history as an echarts line chart:
// classified points, reference band mark lines, and intervention
// annotations placed on their stagger lanes.
func generateTrendChart(series []clinical.Observation, events []clinical.Event, markerKey string) (string, error) {
	layout := clinical.LayoutTrend(series, events, markerKey, clinical.DefaultCatalog())

	if len(layout.Points) == 0 {
		return "", nil
	}

	title := layout.Points[0].DisplayName()
	var unitLabel string
	var entry *clinical.CatalogEntry
	for _, point := range layout.Points {
		if point.Matched != nil {
			entry = point.Matched
			unitLabel = point.Matched.Unit
			break
		}
	}

	// X axis is the union of observation and event dates so annotations can
	// sit between draws.
	const axisFormat = "Jan 2, 2006"
	seen := make(map[string]bool)
	var xAxis []string
	appendDate := func(label string) {
		if !seen[label] {
			seen[label] = true
			xAxis = append(xAxis, label)
		}
	}
	for _, point := range layout.Points {
		appendDate(point.Date.Format(axisFormat))
	}
	for _, ev := range layout.Events {
		appendDate(ev.Date.Format(axisFormat))
	}
	sortAxisDates(xAxis, axisFormat)

	index := make(map[string]int, len(xAxis))
	for i, label := range xAxis {
		index[label] = i
	}

	// Gap markers keep series aligned with the merged axis.
	values := make([]opts.LineData, len(xAxis))
	for i := range values {
		values[i] = opts.LineData{Value: "-"}
	}
	for _, point := range layout.Points {
		i := index[point.Date.Format(axisFormat)]
		values[i] = opts.LineData{
			Value:  *point.NumericValue,
			Name:   string(point.Classification.Status),
			Symbol: "circle",
		}
	}

	annotations := make([]opts.LineData, len(xAxis))
	for i := range annotations {
		annotations[i] = opts.LineData{Value: "-"}
	}
	for _, ev := range layout.Events {
		i := index[ev.Date.Format(axisFormat)]
		annotations[i] = opts.LineData{
			Value:  ev.LabelY,
			Name:   ev.ShortLabel,
			Symbol: "triangle",
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unitLabel,
			Min:  layout.YBottom,
			Max:  layout.YTop,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
	}

	if entry != nil {
		var markLineItems []interface{}
		if srange := clinical.ParseRange(entry.StandardRange); srange != nil {
			if srange.Low > 0 {
				markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{
					Name:  "Ref Min",
					YAxis: srange.Low,
				})
			}
			markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{
				Name:  "Ref Max",
				YAxis: srange.High,
			})
		}
		if entry.OptimalMin != nil && *entry.OptimalMin != 0 {
			markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{
				Name:  "Opt Min",
				YAxis: *entry.OptimalMin,
			})
		}
		if entry.OptimalMax != nil {
			markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{
				Name:  "Opt Max",
				YAxis: *entry.OptimalMax,
			})
		}

		if len(markLineItems) > 0 {
			// Dashed gray reference lines, no arrows.
			seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
				s.MarkLines = &opts.MarkLines{
					Data: markLineItems,
					MarkLineStyle: opts.MarkLineStyle{
						Symbol: []string{"none", "none"},
						LineStyle: &opts.LineStyle{
							Color: "rgba(128, 128, 128, 0.6)",
							Type:  "dashed",
							Width: 1.5,
						},
					},
				}
			})
		}
	}

	line.SetXAxis(xAxis).
		AddSeries(title, values).
		SetSeriesOptions(seriesOpts...)

	if len(layout.Events) > 0 {
		line.AddSeries("Interventions", annotations,
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol: opts.Bool(true),
			}),
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}",
			}),
			charts.WithLineStyleOpts(opts.LineStyle{
				Opacity: opts.Float(0),
			}),
		)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// sortAxisDates orders axis labels chronologically. Labels come from
// time.Format so re-parsing cannot fail; unparseable labels sort first.
func sortAxisDates(labels []string, format string) {
	sort.SliceStable(labels, func(i, j int) bool {
		a, errA := parseAxisDate(labels[i], format)
		b, errB := parseAxisDate(labels[j], format)
		if errA != nil || errB != nil {
			return errA != nil && errB == nil
		}
		return a.Before(b)
	})
}

func parseAxisDate(label, format string) (time.Time, error) {
	return time.Parse(format, label)
}
