/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/labtrail/labtrail/db"
)

// Patients lists all tracked patients.
func Patients(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	data["IsPatients"] = true

	patients, err := db.ListPatients(c.Request().Context())
	if err != nil {
		log.Printf("Error fetching patients: %v", err)
		data["Error"] = "Failed to load patients"
		t.HTML(http.StatusOK, "patients")
		return
	}
	data["Patients"] = patients

	t.HTML(http.StatusOK, "patients")
}

// NewPatient renders the empty patient form.
func NewPatient(c flamego.Context, t template.Template, data template.Data) {
	data["IsPatients"] = true
	data["FormAction"] = "/patients/new"
	t.HTML(http.StatusOK, "patient_form")
}

// EditPatient renders the patient form with existing values.
func EditPatient(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	data["IsPatients"] = true
	id := c.Param("id")

	patient, err := db.GetPatient(c.Request().Context(), id)
	if err != nil {
		log.Printf("Error fetching patient %s: %v", id, err)
		SetErrorFlash(s, "Patient not found")
		c.Redirect("/patients", http.StatusSeeOther)
		return
	}
	data["EditPatient"] = patient
	data["FormAction"] = "/patients/" + id + "/edit"

	t.HTML(http.StatusOK, "patient_form")
}

// CreatePatient adds a patient from the form post.
func CreatePatient(c flamego.Context, s session.Session) {
	input, ok := patientInputFromForm(c, s)
	if !ok {
		c.Redirect("/patients/new", http.StatusSeeOther)
		return
	}

	if _, err := db.CreatePatient(c.Request().Context(), input); err != nil {
		log.Printf("Error creating patient: %v", err)
		SetErrorFlash(s, "Failed to create patient")
		c.Redirect("/patients/new", http.StatusSeeOther)
		return
	}

	SetSuccessFlash(s, "Patient created")
	c.Redirect("/patients", http.StatusSeeOther)
}

// UpdatePatient saves edits to an existing patient.
func UpdatePatient(c flamego.Context, s session.Session) {
	id := c.Param("id")

	input, ok := patientInputFromForm(c, s)
	if !ok {
		c.Redirect("/patients/"+id+"/edit", http.StatusSeeOther)
		return
	}

	if err := db.UpdatePatient(c.Request().Context(), id, input); err != nil {
		log.Printf("Error updating patient %s: %v", id, err)
		SetErrorFlash(s, "Failed to update patient")
		c.Redirect("/patients/"+id+"/edit", http.StatusSeeOther)
		return
	}

	SetSuccessFlash(s, "Patient updated")
	c.Redirect("/patients", http.StatusSeeOther)
}

// DeletePatient removes a patient and all their data.
func DeletePatient(c flamego.Context, s session.Session) {
	id := c.Param("id")

	if err := db.DeletePatient(c.Request().Context(), id); err != nil {
		log.Printf("Error deleting patient %s: %v", id, err)
		SetErrorFlash(s, "Failed to delete patient")
	} else {
		SetSuccessFlash(s, "Patient deleted")
	}

	c.Redirect("/patients", http.StatusSeeOther)
}

// patientInputFromForm parses the shared create/edit form. On validation
// failure it sets a flash and returns ok false; the caller picks the
// redirect target.
func patientInputFromForm(c flamego.Context, s session.Session) (db.CreatePatientInput, bool) {
	var input db.CreatePatientInput

	input.Name = strings.TrimSpace(c.Request().FormValue("name"))
	if input.Name == "" {
		SetErrorFlash(s, "Patient name is required")
		return input, false
	}

	if mrn := strings.TrimSpace(c.Request().FormValue("mrn")); mrn != "" {
		input.MRN = &mrn
	}

	if dob := c.Request().FormValue("date_of_birth"); dob != "" {
		parsed, err := time.Parse("2006-01-02", dob)
		if err != nil {
			SetErrorFlash(s, "Invalid date of birth")
			return input, false
		}
		input.DateOfBirth = &parsed
	}

	if sex := c.Request().FormValue("sex"); sex != "" {
		parsed := db.Sex(sex)
		if parsed != db.SexMale && parsed != db.SexFemale && parsed != db.SexOther {
			SetErrorFlash(s, "Invalid sex value")
			return input, false
		}
		input.Sex = &parsed
	}

	var ok bool
	if input.HeightCm, ok = optionalFloat(c, s, "height_cm", "Invalid height"); !ok {
		return input, false
	}
	if input.WeightKg, ok = optionalFloat(c, s, "weight_kg", "Invalid weight"); !ok {
		return input, false
	}

	if notes := strings.TrimSpace(c.Request().FormValue("notes")); notes != "" {
		input.Notes = &notes
	}

	input.IsPrimary = c.Request().FormValue("is_primary") == "on"

	return input, true
}

func optionalFloat(c flamego.Context, s session.Session, field, errMsg string) (*float64, bool) {
	raw := strings.TrimSpace(c.Request().FormValue(field))
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		SetErrorFlash(s, errMsg)
		return nil, false
	}
	return &parsed, true
}
