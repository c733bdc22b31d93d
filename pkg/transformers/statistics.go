// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"cmp"
	"math"
	"slices"
)

// mostFrequent returns the most frequent value. Ties resolve to the smallest
// value, so the result does not depend on input order.
func mostFrequent[T cmp.Ordered](values []T) (T, bool) {
	if len(values) == 0 {
		return *new(T), false
	}

	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	var mode T
	maxCount := 0
	for v, count := range counts {
		if count > maxCount || (count == maxCount && v < mode) {
			mode, maxCount = v, count
		}
	}
	return mode, true
}

// quantile returns the q-th quantile (0 <= q <= 1) of the values using linear
// interpolation between the closest ranks.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
