/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/labtrail/labtrail/clinical"
	"github.com/labtrail/labtrail/db"
)

// eventCategories are the selectable intervention categories, in form
// display order.
var eventCategories = []clinical.EventCategory{
	clinical.CategoryMedication,
	clinical.CategorySupplement,
	clinical.CategoryLifestyle,
	clinical.CategoryProcedure,
}

// Events lists a patient's intervention events with the add form.
func Events(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	data["IsEvents"] = true
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		log.Printf("Error resolving patient: %v", err)
		SetErrorFlash(s, "No patient found")
		c.Redirect("/patients", http.StatusSeeOther)
		return
	}
	data["Patient"] = patient
	data["Categories"] = eventCategories

	events, err := db.ListEvents(ctx, patient.ID.String())
	if err != nil {
		log.Printf("Error fetching events: %v", err)
		data["Error"] = "Failed to load events"
		t.HTML(http.StatusOK, "events")
		return
	}
	data["Events"] = events

	t.HTML(http.StatusOK, "events")
}

// CreateEvent adds an intervention event from the form post.
func CreateEvent(c flamego.Context, s session.Session) {
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		log.Printf("Error resolving patient: %v", err)
		SetErrorFlash(s, "No patient found")
		c.Redirect("/patients", http.StatusSeeOther)
		return
	}

	label := strings.TrimSpace(c.Request().FormValue("label"))
	if label == "" {
		SetErrorFlash(s, "Event label is required")
		c.Redirect("/events", http.StatusSeeOther)
		return
	}

	eventDate, err := time.Parse("2006-01-02", c.Request().FormValue("event_date"))
	if err != nil {
		SetErrorFlash(s, "Invalid event date")
		c.Redirect("/events", http.StatusSeeOther)
		return
	}

	category := c.Request().FormValue("category")
	if !validCategory(category) {
		SetErrorFlash(s, "Invalid event category")
		c.Redirect("/events", http.StatusSeeOther)
		return
	}

	var notes *string
	if n := strings.TrimSpace(c.Request().FormValue("notes")); n != "" {
		notes = &n
	}

	_, err = db.CreateEvent(ctx, db.CreateEventInput{
		PatientID: patient.ID.String(),
		EventDate: eventDate,
		Label:     label,
		Category:  category,
		Notes:     notes,
	})
	if err != nil {
		log.Printf("Error creating event: %v", err)
		SetErrorFlash(s, "Failed to create event")
		c.Redirect("/events", http.StatusSeeOther)
		return
	}

	SetSuccessFlash(s, "Event added")
	c.Redirect("/events", http.StatusSeeOther)
}

// DeleteEvent removes an intervention event.
func DeleteEvent(c flamego.Context, s session.Session) {
	id := c.Param("id")

	if err := db.DeleteEvent(c.Request().Context(), id); err != nil {
		log.Printf("Error deleting event %s: %v", id, err)
		SetErrorFlash(s, "Failed to delete event")
	} else {
		SetSuccessFlash(s, "Event deleted")
	}

	c.Redirect("/events", http.StatusSeeOther)
}

func validCategory(category string) bool {
	for _, c := range eventCategories {
		if string(c) == category {
			return true
		}
	}
	return false
}
