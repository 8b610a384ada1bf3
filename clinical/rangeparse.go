/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import (
	"regexp"
	"strconv"
	"strings"
)

// Range is a parsed reference band. Low may legitimately be zero (e.g. a
// "<4.0" style range); an absent range is represented by a nil *Range, never
// by a zero-valued one.
type Range struct {
	Low  float64
	High float64
}

// digitGapPattern matches whitespace wedged between two digits, as produced
// by some lab PDFs ("1 024").
var digitGapPattern = regexp.MustCompile(`(\d)\s+(\d)`)

// boundPattern matches an unsigned decimal or integer literal. Range bounds
// are matched unsigned so the hyphen separating the two bounds is never
// consumed as a minus sign ("0-4.0" must read as 0 and 4.0, not 0 and -4).
var boundPattern = regexp.MustCompile(`\d*\.\d+|\d+`)

// ParseRange extracts a (low, high) pair from a free-text reference range
// such as "264-916", "0 – 4.0" or "<4.0". A lone "less-than" bound yields
// (0, high); a single bare literal is treated as the high bound. Returns nil
// when no numeric literal is present.
func ParseRange(raw string) *Range {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "—", "-")
	s = strings.ReplaceAll(s, ",", ".")
	for {
		collapsed := digitGapPattern.ReplaceAllString(s, "$1$2")
		if collapsed == s {
			break
		}
		s = collapsed
	}

	literals := boundPattern.FindAllString(s, -1)

	if strings.Contains(s, "<") && len(literals) > 0 {
		high, err := strconv.ParseFloat(literals[0], 64)
		if err != nil {
			return nil
		}
		return &Range{Low: 0, High: high}
	}

	switch {
	case len(literals) >= 2:
		low, errLow := strconv.ParseFloat(literals[0], 64)
		high, errHigh := strconv.ParseFloat(literals[1], 64)
		if errLow != nil || errHigh != nil {
			return nil
		}
		return &Range{Low: low, High: high}
	case len(literals) == 1:
		high, err := strconv.ParseFloat(literals[0], 64)
		if err != nil {
			return nil
		}
		return &Range{Low: 0, High: high}
	default:
		return nil
	}
}
