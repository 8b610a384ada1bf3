/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import (
	"fmt"
	"math"
	"strings"
)

// Status is the classification outcome for a single numeric result.
type Status string

// Status values, best to worst: OPTIMAL > IN RANGE > BORDERLINE >
// OUT OF RANGE. UNIT MISMATCH and ERROR are data-quality outcomes, not
// clinical ones.
const (
	StatusOptimal      Status = "OPTIMAL"
	StatusInRange      Status = "IN RANGE"
	StatusBorderline   Status = "BORDERLINE"
	StatusOutOfRange   Status = "OUT OF RANGE"
	StatusUnitMismatch Status = "UNIT MISMATCH"
	StatusError        Status = "ERROR"
)

// Severity ranks used for attention-first sorting; lower means more urgent.
// OPTIMAL outranks plain IN RANGE (4 vs 3) everywhere in this codebase.
const (
	SeverityOutOfRange = 1
	SeverityBorderline = 2
	SeverityInRange    = 3
	SeverityOptimal    = 4
	SeverityInert      = 5 // unknown range, unit mismatch, per-row errors
)

// Classification is the outcome of classifying one value against one
// catalog entry.
type Classification struct {
	Status     Status
	Severity   int
	RefDisplay string
}

// Attention reports whether this outcome should appear in the
// attention-required bucket. Unit mismatches and unknown-range rows are data
// quality flags and stay out of the clinical counts.
func (c Classification) Attention() bool {
	return c.Status == StatusOutOfRange || c.Status == StatusBorderline
}

// Classify places a numeric value against a catalog entry's bands.
//
// Precedence, first rule wins: the order-of-magnitude unit-mismatch guard,
// the per-marker absolute ceiling, the standard range, the optimal band
// (borderline when inside standard but outside optimal), the near-edge
// buffer, and finally plain in-range. When neither a standard nor an
// optimal band is defined the result is IN RANGE at the inert severity with
// an empty reference display, so unknown markers do not crowd genuine
// findings.
//
// Classify never panics for a row; any internal failure degrades to
// StatusError so one malformed catalog entry cannot take down a report.
func Classify(value float64, entry *CatalogEntry) (c Classification) {
	defer func() {
		if r := recover(); r != nil {
			c = Classification{Status: StatusError, Severity: SeverityInert, RefDisplay: ""}
		}
	}()

	if entry == nil {
		return Classification{Status: StatusInRange, Severity: SeverityInert}
	}

	srange := ParseRange(entry.StandardRange)
	refDisplay := ""
	if srange != nil {
		refDisplay = strings.TrimSpace(fmt.Sprintf("%g - %g %s", srange.Low, srange.High, entry.Unit))
	}

	// A value more than an order of magnitude outside the band is almost
	// certainly a unit confusion (mg/dL vs mmol/L), not an emergency.
	if srange != nil && srange.Low > 0 &&
		(value < srange.Low/10 || value > srange.High*10) {
		return Classification{Status: StatusUnitMismatch, Severity: SeverityInert, RefDisplay: refDisplay}
	}

	if entry.AbsoluteMax != nil && value > *entry.AbsoluteMax {
		return Classification{Status: StatusOutOfRange, Severity: SeverityOutOfRange, RefDisplay: refDisplay}
	}

	if srange != nil {
		if (srange.Low > 0 && value < srange.Low) || (srange.High > 0 && value > srange.High) {
			return Classification{Status: StatusOutOfRange, Severity: SeverityOutOfRange, RefDisplay: refDisplay}
		}
	}

	hasOptimal := entry.OptimalMin != nil || entry.OptimalMax != nil

	if hasOptimal {
		checkMin := math.Inf(-1)
		checkMax := math.Inf(1)
		switch {
		case entry.OptimalMin != nil:
			checkMin = *entry.OptimalMin
		case srange != nil:
			checkMin = srange.Low
		}
		switch {
		case entry.OptimalMax != nil:
			checkMax = *entry.OptimalMax
		case srange != nil && srange.High > 0:
			checkMax = srange.High
		}

		if value >= checkMin && value <= checkMax {
			return Classification{Status: StatusOptimal, Severity: SeverityOptimal, RefDisplay: refDisplay}
		}

		return Classification{Status: StatusBorderline, Severity: SeverityBorderline, RefDisplay: refDisplay}
	}

	if srange == nil {
		return Classification{Status: StatusInRange, Severity: SeverityInert}
	}

	if !entry.NoEdgeBuffer {
		span := srange.High - srange.Low
		if span > 0 {
			buffer := span * EdgeBufferFraction
			if value < srange.Low+buffer || value > srange.High-buffer {
				return Classification{Status: StatusBorderline, Severity: SeverityBorderline, RefDisplay: refDisplay}
			}
		}
	}

	return Classification{Status: StatusInRange, Severity: SeverityInRange, RefDisplay: refDisplay}
}
