/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/labtrail/labtrail/clinical"
)

// IngestObservation is one normalized upload row together with the raw date
// cell it came from, kept for the unparsed-rows listing.
type IngestObservation struct {
	clinical.Observation
	RawDate string
}

// ReplaceObservations persists a batch of ingested rows for one patient
// using the fingerprint deduplication contract: an incoming row with the
// same fingerprint as a stored one replaces it, so re-uploading a report is
// idempotent and the last upload wins. Returns the number of rows written.
func ReplaceObservations(ctx context.Context, patientID string, rows []IngestObservation) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to roll back observation transaction", "error", err)
		}
	}()

	query := `
		INSERT INTO lab_observations
			(patient_id, raw_marker, raw_value, unit, raw_date, observed_at,
			 canonical_key, numeric_value, fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (patient_id, fingerprint) DO UPDATE SET
			raw_marker = EXCLUDED.raw_marker,
			raw_value = EXCLUDED.raw_value,
			unit = EXCLUDED.unit,
			raw_date = EXCLUDED.raw_date,
			observed_at = EXCLUDED.observed_at,
			numeric_value = EXCLUDED.numeric_value,
			updated_at = NOW()
	`

	written := 0
	for _, row := range rows {
		var unit *string
		if row.Unit != "" {
			u := row.Unit
			unit = &u
		}

		fingerprint := clinical.Fingerprint(row.Date, row.CanonicalKey, row.NumericValue)

		_, err := tx.Exec(ctx, query,
			patientID, row.RawMarker, row.RawValue, unit, row.RawDate,
			row.Date, row.CanonicalKey, row.NumericValue, fingerprint,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert observation: %w", err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit observations: %w", err)
	}

	return written, nil
}

// ListObservations returns all stored observations for a patient, newest
// report first, dateless rows last.
func ListObservations(ctx context.Context, patientID string) ([]LabObservation, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, patient_id, raw_marker, raw_value, unit, raw_date, observed_at,
		       canonical_key, numeric_value, fingerprint, created_at, updated_at
		FROM lab_observations
		WHERE patient_id = $1
		ORDER BY observed_at DESC NULLS LAST, raw_marker ASC
	`

	rows, err := pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ListUnparsedObservations returns rows whose date or value could not be
// parsed at ingestion. These are surfaced on the import page rather than
// silently dropped.
func ListUnparsedObservations(ctx context.Context, patientID string) ([]LabObservation, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, patient_id, raw_marker, raw_value, unit, raw_date, observed_at,
		       canonical_key, numeric_value, fingerprint, created_at, updated_at
		FROM lab_observations
		WHERE patient_id = $1 AND (observed_at IS NULL OR numeric_value IS NULL)
		ORDER BY created_at DESC
	`

	rows, err := pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unparsed observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ListReportDates returns the distinct observation dates for a patient,
// newest first, for the dashboard's report selector.
func ListReportDates(ctx context.Context, patientID string) ([]time.Time, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT DISTINCT observed_at
		FROM lab_observations
		WHERE patient_id = $1 AND observed_at IS NOT NULL
		ORDER BY observed_at DESC
	`

	rows, err := pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan report date: %w", err)
		}
		dates = append(dates, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report dates: %w", err)
	}

	return dates, nil
}

// DeleteObservation removes one stored observation.
func DeleteObservation(ctx context.Context, id string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `DELETE FROM lab_observations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete observation: %w", err)
	}

	return nil
}

func scanObservations(rows pgx.Rows) ([]LabObservation, error) {
	var observations []LabObservation
	for rows.Next() {
		var o LabObservation
		err := rows.Scan(
			&o.ID, &o.PatientID, &o.RawMarker, &o.RawValue, &o.Unit, &o.RawDate,
			&o.ObservedAt, &o.CanonicalKey, &o.NumericValue, &o.Fingerprint,
			&o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return observations, nil
}

// ToClinical converts a stored observation to its in-memory form for the
// classification and trend boundaries.
func (o *LabObservation) ToClinical() clinical.Observation {
	obs := clinical.Observation{
		PatientID:    o.PatientID.String(),
		RawMarker:    o.RawMarker,
		RawValue:     o.RawValue,
		Date:         o.ObservedAt,
		CanonicalKey: o.CanonicalKey,
		NumericValue: o.NumericValue,
	}
	if o.Unit != nil {
		obs.Unit = *o.Unit
	}
	return obs
}

// ToClinicalSeries converts stored observations in bulk.
func ToClinicalSeries(observations []LabObservation) []clinical.Observation {
	series := make([]clinical.Observation, 0, len(observations))
	for i := range observations {
		series = append(series, observations[i].ToClinical())
	}
	return series
}
