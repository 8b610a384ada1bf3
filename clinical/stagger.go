/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import (
	"sort"
	"time"
)

// StaggeredEvent is an intervention event with the lane (vertical tier)
// assigned to its chart annotation. Within any lane, consecutive events are
// always more than the stagger threshold apart.
type StaggeredEvent struct {
	Event
	Lane int
}

// Stagger assigns lanes to dated events so that annotations on a timeline do
// not collide. Greedy first-fit over time-sorted events: each event takes
// the lowest lane whose previous occupant is more than thresholdDays before
// it. First-fit is enough here; the goal is visual non-collision, not
// optimal packing, and the single pass keeps layouts deterministic.
func Stagger(events []Event, thresholdDays int) []StaggeredEvent {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	laneLast := make(map[int]time.Time)
	staggered := make([]StaggeredEvent, 0, len(sorted))

	for _, event := range sorted {
		lane := 0
		for {
			last, occupied := laneLast[lane]
			if !occupied || dayGap(last, event.Date) > thresholdDays {
				laneLast[lane] = event.Date
				staggered = append(staggered, StaggeredEvent{Event: event, Lane: lane})
				break
			}
			lane++
		}
	}

	return staggered
}

// dayGap returns the number of whole days from a to b.
func dayGap(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
