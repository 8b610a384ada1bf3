/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numberPattern matches the first signed or unsigned decimal or integer
// literal in a cell. Alternation order matters: the decimal branch must win
// so "4.5" is not read as "4".
var numberPattern = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// specimenPrefixPattern matches a single leading specimen-source shorthand
// (serum/plasma/blood/urine) such as "S-" or "U- ".
var specimenPrefixPattern = regexp.MustCompile(`^[SPBU]-\s*`)

// sourceWords are specimen and qualifier words stripped anywhere in a marker
// name so that e.g. "Serum Total Testosterone" and "Testosterone" produce the
// same canonical key.
var sourceWords = []string{"SERUM", "PLASMA", "BLOOD", "TOTAL"}

// NormalizeValue converts a raw value cell into a number. It tolerates
// thousands separators, stray unit suffixes from the given vocabulary, micro
// glyph variants, and inequality markers. The inequality itself is discarded:
// a reported "<0.1" becomes 0.1. This is a known limitation kept for
// compatibility with previously ingested data.
//
// Returns nil when the cell is empty or contains no parseable numeric
// literal.
func NormalizeValue(raw string, unitVocab []string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	// Lab exports sometimes carry a mangled micro sign; fold both the micro
	// sign and Greek mu onto ASCII "u" before unit stripping.
	s = strings.ReplaceAll(s, "µ", "u")
	s = strings.ReplaceAll(s, "μ", "u")

	upper := strings.ToUpper(s)
	for _, unit := range unitVocab {
		u := strings.ToUpper(strings.ReplaceAll(unit, " ", ""))
		if u == "" {
			continue
		}
		for {
			idx := strings.Index(upper, u)
			if idx < 0 {
				break
			}
			s = s[:idx] + s[idx+len(u):]
			upper = upper[:idx] + upper[idx+len(u):]
		}
	}

	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")

	literal := numberPattern.FindString(s)
	if literal == "" {
		return nil
	}

	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil
	}

	return &value
}

// CanonicalizeMarker produces the canonical marker key for a free-text
// biomarker name: uppercased, specimen words and a single leading
// specimen-source prefix removed, whitespace collapsed. The same key is used
// for time-series grouping and as the left-hand side of fuzzy matching.
func CanonicalizeMarker(raw string) string {
	m := strings.ToUpper(strings.TrimSpace(raw))
	for _, word := range sourceWords {
		m = strings.ReplaceAll(m, word, "")
	}
	m = specimenPrefixPattern.ReplaceAllString(strings.TrimSpace(m), "")

	return strings.Join(strings.Fields(m), " ")
}

// flexibleDateFormats lists the date layouts accepted from lab reports, in
// the order they are attempted.
var flexibleDateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2006.01.02",
	time.RFC3339,
}

// ParseFlexibleDate parses a report date in any of the accepted layouts.
// Returns nil if the string is empty or matches none of them; callers must
// keep such rows visible as unparsed rather than dropping them.
func ParseFlexibleDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	for _, layout := range flexibleDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}

	return nil
}
