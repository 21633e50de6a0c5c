package stats

import (
	"math"

	"pledgestats/internal/core"
)

// Growth computes the period-over-period percentage change between two totals,
// rounded to one decimal place for display.
//
// Zero-baseline semantics: when the previous period had no pledges and the
// current one has some, the metric reports +100.0 with FromZero set. This keeps
// "grew from nothing" distinguishable from "no data" without emitting a value
// derived from a division by zero. Both periods empty is 0% (no change).
func Growth(current, previous int64) core.GrowthMetric {
	m := core.GrowthMetric{Count: current, PrevCount: previous}
	switch {
	case previous == 0 && current == 0:
		// no change
	case previous == 0:
		m.Value = 100.0
		m.FromZero = true
	default:
		m.Value = round1(float64(current-previous) / float64(previous) * 100)
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
