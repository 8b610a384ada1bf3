/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import "strings"

// CatalogEntry is one canonical biomarker in the reference catalog: static
// clinical knowledge, loaded once and read-only afterwards. StandardRange is
// kept as the free-text master-table form and run through ParseRange when
// classifying. The optimal bounds are explicit optionals; nil means "no
// optimal floor/ceiling defined", which is not the same thing as zero.
type CatalogEntry struct {
	// Biomarker is the canonical display name.
	Biomarker string
	// StandardRange is the reference band as written in the master table,
	// e.g. "264-916" or "<150".
	StandardRange string
	// OptimalMin and OptimalMax bound the clinician-defined target band.
	OptimalMin *float64
	OptimalMax *float64
	// Unit is the canonical reporting unit.
	Unit string
	// Keywords is the comma-separated alias list used for fuzzy matching.
	Keywords string
	// HigherIsBetter marks markers where more is clinically desirable
	// (HDL, ferritin, vitamin D) as opposed to ones where less is
	// (LDL, triglycerides).
	HigherIsBetter bool
	// AbsoluteMax is a hard ceiling that flips the status to out-of-range
	// regardless of the nominal reference band (e.g. PSA above 4.0).
	AbsoluteMax *float64
	// NoEdgeBuffer disables the near-edge borderline buffer for markers
	// where hugging the range edge is not a finding in itself.
	NoEdgeBuffer bool
}

// MatchThreshold is the strict lower bound a similarity score must exceed
// for a fuzzy match to be accepted. High on purpose: clinically distinct
// markers ("Free Testosterone" vs "Total Testosterone") must not collapse
// into each other, and an unmatched marker stays visibly excluded instead of
// silently wrong.
const MatchThreshold = 0.85

// EdgeBufferFraction is the share of the standard-range span treated as a
// borderline buffer near either edge when no optimal band is defined.
const EdgeBufferFraction = 0.025

// ptr is a helper to create pointers to float64 literals
func ptr(f float64) *float64 {
	return &f
}

// DefaultCatalog returns the built-in reference catalog. This is the
// authoritative in-process source of truth for ranges, aliases and
// per-marker overrides; it never changes during a session and is safe to
// share across concurrent classification calls.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{
			Biomarker:     "Total Testosterone",
			StandardRange: "264-916",
			OptimalMin:    ptr(600), OptimalMax: ptr(1000),
			Unit:           "ng/dL",
			Keywords:       "TOTAL TESTOSTERONE, TOTAL T, TESTOSTERONE",
			HigherIsBetter: true,
		},
		{
			Biomarker:     "Free Testosterone",
			StandardRange: "8.7-25.1",
			OptimalMin:    ptr(15), OptimalMax: ptr(25),
			Unit:           "pg/mL",
			Keywords:       "FREE TESTOSTERONE, FREE T, F-TESTO",
			HigherIsBetter: true,
		},
		{
			Biomarker:     "Haematocrit",
			StandardRange: "38.3-48.6",
			OptimalMin:    ptr(40), OptimalMax: ptr(50),
			Unit:     "%",
			Keywords: "HCT, HEMATOCRIT, HAEMATOCRIT, PCV",
		},
		{
			Biomarker:     "Oestradiol",
			StandardRange: "7.6-42.6",
			OptimalMin:    ptr(20), OptimalMax: ptr(35),
			Unit:     "pg/mL",
			Keywords: "E2, ESTRADIOL, OESTRADIOL, 17-BETA",
		},
		{
			Biomarker:     "PSA",
			StandardRange: "0-4.0",
			OptimalMax:    ptr(2.5),
			Unit:          "ng/mL",
			Keywords:      "PSA, PROSTATE SPECIFIC ANTIGEN",
			// Above this the nominal band no longer matters.
			AbsoluteMax: ptr(4.0),
		},
		{
			Biomarker:     "LDL Cholesterol",
			StandardRange: "0-100",
			OptimalMax:    ptr(90),
			Unit:          "mg/dL",
			Keywords:      "LDL, LDL CHOLESTEROL, BAD CHOLESTEROL",
			NoEdgeBuffer:  true,
		},
		{
			Biomarker:      "HDL Cholesterol",
			StandardRange:  "40-100",
			OptimalMin:     ptr(50),
			Unit:           "mg/dL",
			Keywords:       "HDL, HDL CHOLESTEROL, GOOD CHOLESTEROL",
			HigherIsBetter: true,
		},
		{
			Biomarker:     "Non-HDL Cholesterol",
			StandardRange: "<130",
			OptimalMax:    ptr(90),
			Unit:          "mg/dL",
			Keywords:      "NON-HDL, NON HDL CHOLESTEROL",
			NoEdgeBuffer:  true,
		},
		{
			Biomarker:     "Total Cholesterol",
			StandardRange: "<200",
			Unit:          "mg/dL",
			Keywords:      "CHOLESTEROL, TOTAL CHOLESTEROL",
			NoEdgeBuffer:  true,
		},
		{
			Biomarker:     "Triglycerides",
			StandardRange: "<150",
			OptimalMax:    ptr(100),
			Unit:          "mg/dL",
			Keywords:      "TRIGLYCERIDES, TRIG, TG",
			NoEdgeBuffer:  true,
		},
		{
			Biomarker:     "Ferritin",
			StandardRange: "30-400",
			OptimalMin:    ptr(50), OptimalMax: ptr(150),
			Unit:           "ug/L",
			Keywords:       "FERRITIN",
			HigherIsBetter: true,
		},
		{
			Biomarker:     "Vitamin D",
			StandardRange: "30-100",
			OptimalMin:    ptr(50), OptimalMax: ptr(80),
			Unit:           "ng/mL",
			Keywords:       "VITAMIN D, 25-OH VITAMIN D, 25 OH, CALCIFEROL",
			HigherIsBetter: true,
		},
		{
			Biomarker:      "Vitamin B12",
			StandardRange:  "200-900",
			OptimalMin:     ptr(500),
			Unit:           "pg/mL",
			Keywords:       "B12, VITAMIN B12, COBALAMIN",
			HigherIsBetter: true,
		},
		{
			Biomarker:     "HbA1c",
			StandardRange: "4.0-5.6",
			OptimalMax:    ptr(5.3),
			Unit:          "%",
			Keywords:      "HBA1C, A1C, GLYCATED HAEMOGLOBIN",
		},
		{
			Biomarker:     "Fasting Glucose",
			StandardRange: "70-99",
			OptimalMin:    ptr(75), OptimalMax: ptr(90),
			Unit:     "mg/dL",
			Keywords: "GLUCOSE, FASTING GLUCOSE, FBS, SUGAR FASTING",
		},
		{
			Biomarker:     "TSH",
			StandardRange: "0.4-4.0",
			OptimalMin:    ptr(1.0), OptimalMax: ptr(2.5),
			Unit:     "mIU/L",
			Keywords: "TSH, THYROID STIMULATING HORMONE",
		},
		{
			Biomarker:     "SHBG",
			StandardRange: "16.5-55.9",
			Unit:          "nmol/L",
			Keywords:      "SHBG, SEX HORMONE BINDING GLOBULIN",
		},
		{
			Biomarker:      "DHEA-S",
			StandardRange:  "164-530",
			OptimalMin:     ptr(350),
			Unit:           "ug/dL",
			Keywords:       "DHEA, DHEA-S, DHEA SULFATE",
			HigherIsBetter: true,
		},
		{
			Biomarker:     "Creatinine",
			StandardRange: "0.74-1.35",
			Unit:          "mg/dL",
			Keywords:      "CREATININE",
			NoEdgeBuffer:  true,
		},
		{
			Biomarker:     "Urea",
			StandardRange: "2.5-7.8",
			Unit:          "mmol/L",
			Keywords:      "UREA, BUN",
			NoEdgeBuffer:  true,
		},
		{
			Biomarker:      "Magnesium",
			StandardRange:  "1.7-2.2",
			OptimalMin:     ptr(2.0),
			Unit:           "mg/dL",
			Keywords:       "MAGNESIUM",
			HigherIsBetter: true,
		},
	}
}

// UnitVocabulary returns the distinct unit strings of the catalog, longest
// first, for stripping stray unit suffixes from value cells.
func UnitVocabulary(catalog []CatalogEntry) []string {
	seen := make(map[string]bool)
	var units []string
	for _, entry := range catalog {
		if entry.Unit == "" || seen[entry.Unit] {
			continue
		}
		seen[entry.Unit] = true
		units = append(units, entry.Unit)
	}

	// Longest first so "ng/mL" is removed before a bare "L" alias could be.
	for i := 0; i < len(units)-1; i++ {
		for j := i + 1; j < len(units); j++ {
			if len(units[j]) > len(units[i]) {
				units[i], units[j] = units[j], units[i]
			}
		}
	}

	return units
}

// aliases splits an entry's keyword field into canonicalized alias keys,
// preserving order.
func (e *CatalogEntry) aliases() []string {
	parts := strings.Split(e.Keywords, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		keys = append(keys, CanonicalizeMarker(part))
	}

	return keys
}
