/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import "strings"

// Match resolves a raw marker name to a catalog entry, or nil when nothing
// in the catalog is close enough. The two-pass order and first-entry-wins
// tie-breaking are observable behavior: callers rely on reruns against the
// same catalog order producing the same entry.
//
// Pass one looks for an exact canonicalized alias hit. Pass two scores every
// alias with SimilarityRatio and keeps the single best entry, accepted only
// when its score strictly exceeds MatchThreshold. Aliases whose "NON"
// containment disagrees with the input are skipped during scoring so that
// "HDL" cannot absorb "Non-HDL Cholesterol" observations.
func Match(rawMarker string, catalog []CatalogEntry) *CatalogEntry {
	key := CanonicalizeMarker(rawMarker)

	for i := range catalog {
		for _, alias := range catalog[i].aliases() {
			if alias == key {
				return &catalog[i]
			}
		}
	}

	var best *CatalogEntry
	bestScore := 0.0
	keyHasNon := strings.Contains(key, "NON")

	for i := range catalog {
		for _, alias := range catalog[i].aliases() {
			if strings.Contains(alias, "NON") != keyHasNon {
				continue
			}
			score := SimilarityRatio(key, alias)
			if score > bestScore {
				bestScore = score
				best = &catalog[i]
			}
		}
	}

	if bestScore > MatchThreshold {
		return best
	}

	return nil
}
