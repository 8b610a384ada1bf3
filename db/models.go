/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"
)

// Sex is the recorded sex of a patient, used for display only; reference
// ranges in the catalog are not sex-adjusted.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Patient is a tracked person. A single-user install typically has one
// primary patient; additional patients cover family members.
type Patient struct {
	ID          uuid.UUID
	Name        string
	MRN         *string
	DateOfBirth *time.Time
	Sex         *Sex
	HeightCm    *float64
	WeightKg    *float64
	Notes       *string
	IsPrimary   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Age returns the patient's age in whole years at the given date, or nil
// when no date of birth is recorded.
func (p *Patient) Age(at time.Time) *int {
	if p.DateOfBirth == nil {
		return nil
	}
	years := at.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return &years
}

// LabObservation is one stored lab result row. Raw fields are kept verbatim
// so unparseable rows stay visible; ObservedAt and NumericValue are nil when
// the corresponding raw field could not be parsed. Fingerprint is the
// deduplication key: re-uploading the same report replaces rather than
// duplicates.
type LabObservation struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	RawMarker    string
	RawValue     string
	Unit         *string
	RawDate      string
	ObservedAt   *time.Time
	CanonicalKey string
	NumericValue *float64
	Fingerprint  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InterventionEvent is a dated annotation (medication started, lifestyle
// change, procedure) shown on trend charts.
type InterventionEvent struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	EventDate time.Time
	Label     string
	Category  string
	Notes     *string
	CreatedAt time.Time
}

// ShareLink grants read-only dashboard access for one patient via an
// unguessable token.
type ShareLink struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Token     string
	Label     *string
	Revoked   bool
	CreatedAt time.Time
}
