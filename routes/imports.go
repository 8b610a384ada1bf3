/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/labtrail/labtrail/clinical"
	"github.com/labtrail/labtrail/db"
)

const importUploadMaxBytes = 10 << 20

// columnMap holds the resolved index of each recognized CSV column.
// unitCol is -1 when the upload carries no unit column.
type columnMap struct {
	markerCol int
	valueCol  int
	dateCol   int
	unitCol   int
}

var errMissingColumns = errors.New("missing required columns")

// sniffColumns maps a CSV header row onto the marker/value/date/unit roles
// by substring matching, so exports from different labs land on the same
// pipeline. Marker, value, and date columns are required; the first header
// matching each role wins.
func sniffColumns(headers []string) (columnMap, error) {
	cols := columnMap{markerCol: -1, valueCol: -1, dateCol: -1, unitCol: -1}

	for i, h := range headers {
		c := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.markerCol < 0 && containsAny(c, "marker", "biomarker", "test", "name", "analyte"):
			cols.markerCol = i
		case cols.valueCol < 0 && containsAny(c, "result", "reading", "value", "concentration"):
			cols.valueCol = i
		case cols.dateCol < 0 && containsAny(c, "time", "collected", "date"):
			cols.dateCol = i
		case cols.unitCol < 0 && strings.Contains(c, "unit"):
			cols.unitCol = i
		}
	}

	var missing []string
	if cols.dateCol < 0 {
		missing = append(missing, "date")
	}
	if cols.markerCol < 0 {
		missing = append(missing, "marker")
	}
	if cols.valueCol < 0 {
		missing = append(missing, "value")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", errMissingColumns, strings.Join(missing, ", "))
	}

	return cols, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// buildIngestRows normalizes parsed CSV records into storable observations.
// Rows with an empty marker cell are dropped; rows whose date or value fail
// to parse are kept with nil fields so the review page can surface them.
func buildIngestRows(patientID string, records [][]string, cols columnMap) []db.IngestObservation {
	unitVocab := clinical.UnitVocabulary(clinical.DefaultCatalog())

	var rows []db.IngestObservation
	for _, rec := range records {
		if cols.markerCol >= len(rec) || cols.valueCol >= len(rec) || cols.dateCol >= len(rec) {
			continue
		}

		rawMarker := strings.TrimSpace(rec[cols.markerCol])
		if rawMarker == "" {
			continue
		}
		rawValue := strings.TrimSpace(rec[cols.valueCol])
		rawDate := strings.TrimSpace(rec[cols.dateCol])

		var unit string
		if cols.unitCol >= 0 && cols.unitCol < len(rec) {
			unit = strings.TrimSpace(rec[cols.unitCol])
		}

		rows = append(rows, db.IngestObservation{
			Observation: clinical.Observation{
				PatientID:    patientID,
				RawMarker:    rawMarker,
				RawValue:     rawValue,
				Unit:         unit,
				Date:         clinical.ParseFlexibleDate(rawDate),
				CanonicalKey: clinical.CanonicalizeMarker(rawMarker),
				NumericValue: clinical.NormalizeValue(rawValue, unitVocab),
			},
			RawDate: rawDate,
		})
	}

	return rows
}

// ImportPage renders the CSV upload form along with any rows from earlier
// uploads that could not be fully parsed.
func ImportPage(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	data["IsImport"] = true
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		log.Printf("Error resolving patient: %v", err)
		SetErrorFlash(s, "No patient found")
		c.Redirect("/patients", http.StatusSeeOther)
		return
	}
	data["Patient"] = patient

	unparsed, err := db.ListUnparsedObservations(ctx, patient.ID.String())
	if err != nil {
		log.Printf("Error fetching unparsed rows: %v", err)
		data["Error"] = "Failed to load unparsed rows"
		t.HTML(http.StatusOK, "import")
		return
	}
	data["Unparsed"] = unparsed

	t.HTML(http.StatusOK, "import")
}

// ImportCSV ingests an uploaded lab report CSV for the selected patient.
func ImportCSV(c flamego.Context, s session.Session) {
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		log.Printf("Error resolving patient: %v", err)
		SetErrorFlash(s, "No patient found")
		c.Redirect("/patients", http.StatusSeeOther)
		return
	}

	if err := c.Request().ParseMultipartForm(importUploadMaxBytes); err != nil {
		log.Printf("Error parsing upload form: %v", err)
		SetErrorFlash(s, "Failed to parse upload form")
		c.Redirect("/import", http.StatusSeeOther)
		return
	}

	file, header, err := c.Request().FormFile("csv_file")
	if err != nil {
		log.Printf("Error reading upload file: %v", err)
		SetErrorFlash(s, "No file uploaded or invalid file")
		c.Redirect("/import", http.StatusSeeOther)
		return
	}
	defer file.Close()

	rows, err := parseUpload(file, patient.ID.String())
	if err != nil {
		log.Printf("Error parsing CSV %s: %v", header.Filename, err)
		SetErrorFlash(s, fmt.Sprintf("Could not read %s: %v", header.Filename, err))
		c.Redirect("/import", http.StatusSeeOther)
		return
	}
	if len(rows) == 0 {
		SetWarningFlash(s, "No data rows found in the uploaded file")
		c.Redirect("/import", http.StatusSeeOther)
		return
	}

	written, err := db.ReplaceObservations(ctx, patient.ID.String(), rows)
	if err != nil {
		log.Printf("Error storing observations: %v", err)
		SetErrorFlash(s, "Failed to store observations")
		c.Redirect("/import", http.StatusSeeOther)
		return
	}

	unparsed := 0
	for _, row := range rows {
		if row.Date == nil || row.NumericValue == nil {
			unparsed++
		}
	}

	msg := fmt.Sprintf("Imported %d results from %s", written, header.Filename)
	if unparsed > 0 {
		msg += fmt.Sprintf(" (%d need review)", unparsed)
		SetWarningFlash(s, msg)
	} else {
		SetSuccessFlash(s, msg)
	}
	c.Redirect("/", http.StatusSeeOther)
}

// parseUpload reads a CSV stream into ingest rows. The first record is the
// header row used for column sniffing.
func parseUpload(r io.Reader, patientID string) ([]db.IngestObservation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("file is empty")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	cols, err := sniffColumns(headers)
	if err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read data rows: %w", err)
	}

	return buildIngestRows(patientID, records, cols), nil
}

// DeleteObservation removes a single stored result, typically an unparsed
// row the user does not want to keep.
func DeleteObservation(c flamego.Context, s session.Session) {
	id := c.Param("id")

	if err := db.DeleteObservation(c.Request().Context(), id); err != nil {
		log.Printf("Error deleting observation %s: %v", id, err)
		SetErrorFlash(s, "Failed to delete result")
	} else {
		SetSuccessFlash(s, "Result deleted")
	}

	c.Redirect("/import", http.StatusSeeOther)
}
