/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

// SimilarityRatio computes a Ratcliff/Obershelp similarity ratio in [0, 1]
// between two strings: twice the number of characters in matching blocks
// divided by the total length. Matching blocks are found by repeatedly
// locating the longest common substring and recursing on the unmatched
// pieces to its left and right, preferring the earliest occurrence in a and
// then in b on ties. The matcher threshold was calibrated against this exact
// ratio; substituting a different metric requires re-tuning it.
func SimilarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	matched := matchingTotal(a, b, 0, len(a), 0, len(b))

	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// matchingTotal returns the total size of all matching blocks within
// a[alo:ahi] and b[blo:bhi].
func matchingTotal(a, b string, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}

	total := size
	total += matchingTotal(a, b, alo, i, blo, j)
	total += matchingTotal(a, b, i+size, ahi, j+size, bhi)

	return total
}

// longestMatch finds the longest block where a[i:i+size] == b[j:j+size]
// within the given windows. Ties resolve to the smallest i, then smallest j.
func longestMatch(a, b string, alo, ahi, blo, bhi int) (besti, bestj, size int) {
	besti, bestj = alo, blo

	// j2len[j] holds the length of the match ending at a[i-1], b[j] from the
	// previous row of the implicit DP table.
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > size {
				besti, bestj, size = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	return besti, bestj, size
}
