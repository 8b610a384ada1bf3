/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/labtrail/labtrail/clinical"
	"github.com/labtrail/labtrail/db"
)

// ResultRow is a classified result with its display classes resolved for
// the templates. DeltaArrow and DeltaClass carry the change since the
// previous test, colored by the marker's polarity: a rising HDL is good
// news, a rising LDL is not.
type ResultRow struct {
	clinical.ClassifiedResult
	Class      string
	DeltaArrow string
	DeltaClass string
}

// CategoryGroup is one dashboard section: a marker category with its
// classified rows for the selected report date.
type CategoryGroup struct {
	Name string
	Rows []ResultRow
}

// resolvePatient picks the patient for a request: the "patient" query
// parameter when present, otherwise the primary patient.
func resolvePatient(ctx context.Context, c flamego.Context) (*db.Patient, error) {
	if id := c.Query("patient"); id != "" {
		return db.GetPatient(ctx, id)
	}
	return db.GetPrimaryPatient(ctx)
}

// statusClass maps a classification status to its display class.
func statusClass(status clinical.Status) string {
	switch status {
	case clinical.StatusOptimal:
		return "c-blue"
	case clinical.StatusInRange:
		return "c-green"
	case clinical.StatusBorderline:
		return "c-orange"
	case clinical.StatusOutOfRange:
		return "c-red"
	default:
		return "c-grey"
	}
}

// Dashboard renders the main report view: KPI counts, attention-first rows
// grouped by marker category, and data-quality notices for the selected
// report date.
func Dashboard(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	data["IsDashboard"] = true
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		log.Printf("Error resolving patient: %v", err)
		data["NoPatient"] = true
		t.HTML(http.StatusOK, "dashboard")
		return
	}
	data["Patient"] = patient

	dates, err := db.ListReportDates(ctx, patient.ID.String())
	if err != nil {
		log.Printf("Error fetching report dates: %v", err)
		data["Error"] = "Failed to load report dates"
		t.HTML(http.StatusOK, "dashboard")
		return
	}
	data["ReportDates"] = dates

	if len(dates) == 0 {
		t.HTML(http.StatusOK, "dashboard")
		return
	}

	reportDate := dates[0]
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			SetErrorFlash(s, "Invalid report date")
			c.Redirect("/", http.StatusSeeOther)
			return
		}
		reportDate = parsed
	}
	data["ReportDate"] = reportDate

	if err := populateReportData(ctx, data, patient.ID.String(), reportDate); err != nil {
		log.Printf("Error building report: %v", err)
		data["Error"] = "Failed to load observations"
		t.HTML(http.StatusOK, "dashboard")
		return
	}

	unparsed, err := db.ListUnparsedObservations(ctx, patient.ID.String())
	if err != nil {
		log.Printf("Error fetching unparsed rows: %v", err)
	} else {
		data["UnparsedCount"] = len(unparsed)
	}

	t.HTML(http.StatusOK, "dashboard")
}

// populateReportData classifies a patient's observations for one report
// date and fills the template keys shared by the dashboard and the
// read-only share view.
func populateReportData(ctx context.Context, data template.Data, patientID string, reportDate time.Time) error {
	stored, err := db.ListObservations(ctx, patientID)
	if err != nil {
		return err
	}

	series := db.ToClinicalSeries(stored)
	report := clinical.ClassifyReport(series, reportDate, clinical.DefaultCatalog())

	data["Report"] = report
	data["Tested"] = len(report.Results)
	data["Optimal"] = report.Counts[clinical.StatusOptimal]
	data["InRange"] = report.Counts[clinical.StatusInRange]
	data["Borderline"] = report.Counts[clinical.StatusBorderline]
	data["OutOfRange"] = report.Counts[clinical.StatusOutOfRange]
	data["Mismatch"] = report.Counts[clinical.StatusUnitMismatch] + report.Counts[clinical.StatusError]
	data["Attention"] = toResultRows(report.Attention())
	data["Categories"] = groupByCategory(report.Results)
	data["UnmatchedCount"] = len(report.Unmatched)

	return nil
}

// groupByCategory splits classified rows into category sections, keeping
// severity order inside each section. Sections appear alphabetically with
// "Other" last.
func groupByCategory(results []clinical.ClassifiedResult) []CategoryGroup {
	byName := make(map[string][]ResultRow)
	for _, res := range results {
		cat := clinical.CategoryFor(res.DisplayName())
		byName[cat] = append(byName[cat], toResultRow(res))
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == "Other" {
			return false
		}
		if names[j] == "Other" {
			return true
		}
		return names[i] < names[j]
	})

	groups := make([]CategoryGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, CategoryGroup{Name: name, Rows: byName[name]})
	}

	return groups
}

func toResultRow(res clinical.ClassifiedResult) ResultRow {
	row := ResultRow{ClassifiedResult: res, Class: statusClass(res.Classification.Status)}
	row.DeltaArrow, row.DeltaClass = deltaStyle(res)
	return row
}

// deltaStyle resolves the arrow and color for a row's delta. Direction
// alone says nothing; whether the move is welcome depends on the marker's
// polarity (a rising HDL is good news, a rising LDL is not), so rows
// without a catalog match stay uncolored.
func deltaStyle(res clinical.ClassifiedResult) (arrow, class string) {
	if res.Delta == nil || *res.Delta == 0 {
		return "", ""
	}

	rising := *res.Delta > 0
	if rising {
		arrow = "▲"
	} else {
		arrow = "▼"
	}

	if res.Matched == nil {
		return arrow, ""
	}
	if rising == res.Matched.HigherIsBetter {
		return arrow, "d-better"
	}
	return arrow, "d-worse"
}

func toResultRows(results []clinical.ClassifiedResult) []ResultRow {
	rows := make([]ResultRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, toResultRow(res))
	}
	return rows
}
