/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import (
	"sort"
	"time"
)

// Delta computes the signed change for one canonical marker between the
// observation at asOf and the most recent observation strictly before it.
// This is deliberately a two-point delta ("change since last test"), not a
// moving average. Returns nil when there is no observation at asOf, no prior
// observation, or either numeric value is missing.
func Delta(series []Observation, markerKey string, asOf time.Time) *float64 {
	var dated []Observation
	for _, obs := range series {
		if obs.CanonicalKey == markerKey && obs.Date != nil {
			dated = append(dated, obs)
		}
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Before(*dated[j].Date)
	})

	var current, previous *Observation
	for i := range dated {
		switch {
		case dated[i].Date.Equal(asOf):
			current = &dated[i]
		case dated[i].Date.Before(asOf):
			previous = &dated[i]
		}
	}

	if current == nil || previous == nil {
		return nil
	}
	if current.NumericValue == nil || previous.NumericValue == nil {
		return nil
	}

	d := *current.NumericValue - *previous.NumericValue

	return &d
}
