// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package virality

import "math"

// CascadePoint is one minute of a projected cascade timeline.
type CascadePoint struct {
	Minute          int     `json:"minute"`
	NewPosts        float64 `json:"new_posts"`
	CumulativeReach float64 `json:"cumulative_reach"`
}

// Cascade projects a per-minute timeline for a spread profile over the given
// horizon: exponential growth toward the peak, exponential decay after it,
// with cumulative reach saturating at the expected reach. Forecasting only;
// never used to mutate stored state.
func Cascade(spread Spread, horizonMinutes int) []CascadePoint {
	if horizonMinutes <= 0 {
		return nil
	}

	peak := math.Max(spread.PeakTimeMinutes, 1)
	growTau := math.Max(peak/3, 1)
	decayTau := math.Max(peak/2, 1)

	points := make([]CascadePoint, 0, horizonMinutes)
	for m := 1; m <= horizonMinutes; m++ {
		t := float64(m)

		var rate float64
		if t <= peak {
			rate = spread.Velocity * math.Exp((t-peak)/growTau)
		} else {
			rate = spread.Velocity * math.Exp(-(t-peak)/decayTau)
		}

		reach := spread.ExpectedReach * (1 - math.Exp(-t/peak))

		points = append(points, CascadePoint{
			Minute:          m,
			NewPosts:        rate,
			CumulativeReach: reach,
		})
	}
	return points
}
