/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/labtrail/labtrail/clinical"
)

// CreateEventInput carries the add-intervention form fields. Duplicate
// events (same date, same label) are allowed; two dose changes on one day
// are two events.
type CreateEventInput struct {
	PatientID string
	EventDate time.Time
	Label     string
	Category  string
	Notes     *string
}

// CreateEvent inserts an intervention event and returns its ID.
func CreateEvent(ctx context.Context, input CreateEventInput) (string, error) {
	if pool == nil {
		return "", ErrDatabaseConnectionNotInitialized
	}

	var id string
	query := `
		INSERT INTO intervention_events (patient_id, event_date, label, category, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := pool.QueryRow(ctx, query,
		input.PatientID, input.EventDate, input.Label, input.Category, input.Notes,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return id, nil
}

// ListEvents returns all intervention events for a patient in date order.
func ListEvents(ctx context.Context, patientID string) ([]InterventionEvent, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, patient_id, event_date, label, category, notes, created_at
		FROM intervention_events
		WHERE patient_id = $1
		ORDER BY event_date ASC, created_at ASC
	`

	rows, err := pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []InterventionEvent
	for rows.Next() {
		var e InterventionEvent
		err := rows.Scan(
			&e.ID, &e.PatientID, &e.EventDate, &e.Label, &e.Category,
			&e.Notes, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// DeleteEvent removes one intervention event.
func DeleteEvent(ctx context.Context, id string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `DELETE FROM intervention_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

// ToClinical converts a stored event to its chart-layout form.
func (e *InterventionEvent) ToClinical() clinical.Event {
	ev := clinical.Event{
		Date:     e.EventDate,
		Label:    e.Label,
		Category: clinical.EventCategory(e.Category),
	}
	if e.Notes != nil {
		ev.Notes = *e.Notes
	}
	return ev
}

// ToClinicalEvents converts stored events in bulk.
func ToClinicalEvents(events []InterventionEvent) []clinical.Event {
	out := make([]clinical.Event, 0, len(events))
	for i := range events {
		out = append(out, events[i].ToClinical())
	}
	return out
}
