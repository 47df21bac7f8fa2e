// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gesture

import "math"

// DTW returns the dynamic time warping distance between a and b: the square
// root of the minimal accumulated squared difference over all monotone
// alignments of the two series. Runs in O(len(a)·len(b)) time and
// O(len(b)) memory. Either series being empty yields +Inf.
func DTW(a, b []float64) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = math.Inf(1)
	}

	for i := 1; i <= n; i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			d := a[i-1] - b[j-1]
			best := prev[j-1]
			if prev[j] < best {
				best = prev[j]
			}
			if curr[j-1] < best {
				best = curr[j-1]
			}
			curr[j] = d*d + best
		}
		prev, curr = curr, prev
	}
	return math.Sqrt(prev[m])
}
