/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/skip2/go-qrcode"

	"github.com/labtrail/labtrail/db"
)

// ShareView is one share link prepared for display: the full URL to hand
// out and its QR code as an inline image.
type ShareView struct {
	db.ShareLink
	URL    string
	QRCode string
}

// Shares lists a patient's share links with their QR codes and the create
// form.
func Shares(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	data["IsShares"] = true
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		webLogger.Error("Failed to resolve patient", "error", err)
		SetErrorFlash(s, "No patient found")
		c.Redirect("/patients", http.StatusSeeOther)
		return
	}
	data["Patient"] = patient

	links, err := db.ListShareLinks(ctx, patient.ID.String())
	if err != nil {
		webLogger.Error("Failed to fetch share links", "error", err)
		data["Error"] = "Failed to load share links"
		t.HTML(http.StatusOK, "shares")
		return
	}

	base := requestBaseURL(c.Request().Request)
	views := make([]ShareView, 0, len(links))
	for _, link := range links {
		view := ShareView{ShareLink: link, URL: base + "/share/" + link.Token}
		if !link.Revoked {
			qr, err := generateShareQRCode(view.URL)
			if err != nil {
				webLogger.Error("Failed to generate QR code", "share", link.ID, "error", err)
			} else {
				view.QRCode = qr
			}
		}
		views = append(views, view)
	}
	data["Shares"] = views

	t.HTML(http.StatusOK, "shares")
}

// CreateShare mints a new read-only share link for the patient.
func CreateShare(c flamego.Context, s session.Session) {
	ctx := c.Request().Context()

	patient, err := resolvePatient(ctx, c)
	if err != nil {
		webLogger.Error("Failed to resolve patient", "error", err)
		SetErrorFlash(s, "No patient found")
		c.Redirect("/patients", http.StatusSeeOther)
		return
	}

	var label *string
	if l := strings.TrimSpace(c.Request().FormValue("label")); l != "" {
		label = &l
	}

	if _, err := db.CreateShareLink(ctx, patient.ID.String(), label); err != nil {
		webLogger.Error("Failed to create share link", "error", err)
		SetErrorFlash(s, "Failed to create share link")
		c.Redirect("/shares", http.StatusSeeOther)
		return
	}

	SetSuccessFlash(s, "Share link created")
	c.Redirect("/shares", http.StatusSeeOther)
}

// RevokeShare invalidates a share link. The row is kept so the list shows
// what was shared and when.
func RevokeShare(c flamego.Context, s session.Session) {
	id := c.Param("id")

	if err := db.RevokeShareLink(c.Request().Context(), id); err != nil {
		webLogger.Error("Failed to revoke share link", "share", id, "error", err)
		SetErrorFlash(s, "Failed to revoke share link")
	} else {
		SetSuccessFlash(s, "Share link revoked")
	}

	c.Redirect("/shares", http.StatusSeeOther)
}

// SharedDashboard serves the read-only report view for a share token. It is
// reachable without a session; revoked or unknown tokens get a 404.
func SharedDashboard(c flamego.Context, t template.Template, data template.Data) {
	ctx := c.Request().Context()
	token := c.Param("token")

	link, err := db.GetShareLinkByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, db.ErrShareNotFound) {
			webLogger.Error("Failed to look up share token", "error", err)
		}
		http.NotFound(c.ResponseWriter(), c.Request().Request)
		return
	}

	patient, err := db.GetPatient(ctx, link.PatientID.String())
	if err != nil {
		webLogger.Error("Failed to fetch shared patient", "error", err)
		http.NotFound(c.ResponseWriter(), c.Request().Request)
		return
	}
	data["Patient"] = patient
	data["ShareToken"] = token

	dates, err := db.ListReportDates(ctx, patient.ID.String())
	if err != nil {
		webLogger.Error("Failed to fetch report dates", "error", err)
		data["Error"] = "Failed to load report dates"
		t.HTML(http.StatusOK, "shared")
		return
	}
	data["ReportDates"] = dates

	if len(dates) == 0 {
		t.HTML(http.StatusOK, "shared")
		return
	}

	reportDate := dates[0]
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err == nil {
			reportDate = parsed
		}
	}
	data["ReportDate"] = reportDate

	if err := populateReportData(ctx, data, patient.ID.String(), reportDate); err != nil {
		webLogger.Error("Failed to build shared report", "error", err)
		data["Error"] = "Failed to load observations"
	}

	t.HTML(http.StatusOK, "shared")
}

// ShareQRCode serves a share link's QR code as a PNG, for printing or
// saving rather than scanning off the screen.
func ShareQRCode(c flamego.Context) {
	ctx := c.Request().Context()
	id := c.Param("id")

	link, err := db.GetShareLinkByID(ctx, id)
	if err != nil {
		webLogger.Error("Failed to fetch share link", "share", id, "error", err)
		http.NotFound(c.ResponseWriter(), c.Request().Request)
		return
	}
	if link.Revoked {
		http.NotFound(c.ResponseWriter(), c.Request().Request)
		return
	}

	url := requestBaseURL(c.Request().Request) + "/share/" + link.Token
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		webLogger.Error("Failed to generate QR code", "share", id, "error", err)
		http.Error(c.ResponseWriter(), "failed to generate qr code", http.StatusInternalServerError)
		return
	}

	c.ResponseWriter().Header().Set("Content-Type", "image/png")
	if _, err := c.ResponseWriter().Write(png); err != nil {
		webLogger.Error("Failed to write QR code response", "error", err)
	}
}

func generateShareQRCode(value string) (string, error) {
	png, err := qrcode.Encode(value, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate qr code: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}

// requestBaseURL reconstructs the externally visible scheme and host for
// building absolute share URLs.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
