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
)

// PatientSummary is a patient row joined with observation counts for the
// patient list page.
type PatientSummary struct {
	Patient
	ObservationCount int
	LastReportDate   *time.Time
}

// CreatePatientInput carries the patient intake form fields.
type CreatePatientInput struct {
	Name        string
	MRN         *string
	DateOfBirth *time.Time
	Sex         *Sex
	HeightCm    *float64
	WeightKg    *float64
	Notes       *string
	IsPrimary   bool
}

// ListPatients returns all patients with their observation counts, primary
// patient first.
func ListPatients(ctx context.Context) ([]PatientSummary, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT p.id, p.name, p.mrn, p.date_of_birth, p.sex, p.height_cm, p.weight_kg,
		       p.notes, p.is_primary, p.created_at, p.updated_at,
		       COUNT(o.id), MAX(o.observed_at)
		FROM patients p
		LEFT JOIN lab_observations o ON o.patient_id = p.id
		GROUP BY p.id
		ORDER BY p.is_primary DESC, p.name ASC
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []PatientSummary
	for rows.Next() {
		var p PatientSummary
		err := rows.Scan(
			&p.ID, &p.Name, &p.MRN, &p.DateOfBirth, &p.Sex, &p.HeightCm, &p.WeightKg,
			&p.Notes, &p.IsPrimary, &p.CreatedAt, &p.UpdatedAt,
			&p.ObservationCount, &p.LastReportDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, nil
}

// GetPatient returns a single patient by ID
func GetPatient(ctx context.Context, id string) (*Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var p Patient
	query := `
		SELECT id, name, mrn, date_of_birth, sex, height_cm, weight_kg, notes,
		       is_primary, created_at, updated_at
		FROM patients
		WHERE id = $1
	`

	err := pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.MRN, &p.DateOfBirth, &p.Sex, &p.HeightCm, &p.WeightKg,
		&p.Notes, &p.IsPrimary, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &p, nil
}

// GetPrimaryPatient returns the primary patient, if any.
func GetPrimaryPatient(ctx context.Context) (*Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var p Patient
	query := `
		SELECT id, name, mrn, date_of_birth, sex, height_cm, weight_kg, notes,
		       is_primary, created_at, updated_at
		FROM patients
		WHERE is_primary
		LIMIT 1
	`

	err := pool.QueryRow(ctx, query).Scan(
		&p.ID, &p.Name, &p.MRN, &p.DateOfBirth, &p.Sex, &p.HeightCm, &p.WeightKg,
		&p.Notes, &p.IsPrimary, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary patient: %w", err)
	}

	return &p, nil
}

// CreatePatient inserts a patient and returns its ID. When input.IsPrimary
// is set, any existing primary flag is cleared first.
func CreatePatient(ctx context.Context, input CreatePatientInput) (string, error) {
	if pool == nil {
		return "", ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to roll back patient transaction", "error", err)
		}
	}()

	if input.IsPrimary {
		if _, err := tx.Exec(ctx, `UPDATE patients SET is_primary = FALSE WHERE is_primary`); err != nil {
			return "", fmt.Errorf("failed to clear primary patient: %w", err)
		}
	}

	var id string
	query := `
		INSERT INTO patients (name, mrn, date_of_birth, sex, height_cm, weight_kg, notes, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err = tx.QueryRow(ctx, query,
		input.Name, input.MRN, input.DateOfBirth, input.Sex,
		input.HeightCm, input.WeightKg, input.Notes, input.IsPrimary,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create patient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit patient: %w", err)
	}

	return id, nil
}

// UpdatePatient updates a patient's profile fields.
func UpdatePatient(ctx context.Context, id string, input CreatePatientInput) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to roll back patient transaction", "error", err)
		}
	}()

	if input.IsPrimary {
		if _, err := tx.Exec(ctx, `UPDATE patients SET is_primary = FALSE WHERE is_primary AND id <> $1`, id); err != nil {
			return fmt.Errorf("failed to clear primary patient: %w", err)
		}
	}

	query := `
		UPDATE patients
		SET name = $2, mrn = $3, date_of_birth = $4, sex = $5, height_cm = $6,
		    weight_kg = $7, notes = $8, is_primary = $9, updated_at = NOW()
		WHERE id = $1
	`

	_, err = tx.Exec(ctx, query,
		id, input.Name, input.MRN, input.DateOfBirth, input.Sex,
		input.HeightCm, input.WeightKg, input.Notes, input.IsPrimary,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit patient: %w", err)
	}

	return nil
}

// DeletePatient removes a patient and, via cascade, its observations,
// events and share links.
func DeletePatient(ctx context.Context, id string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	return nil
}
