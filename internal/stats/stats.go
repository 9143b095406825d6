// Package stats reduces per-run durations, in seconds, to summary values.
package stats

import "math"

var (
	denominators = []float64{3600, 60, 1, 1e-3, 1e-6, 1e-9}
	units        = []string{"h", "m", "s", "ms", "µs", "ns"}
)

// MeanStdDev returns the mean and the population standard deviation
// (divisor N, not N-1). An empty input yields (0, 0).
func MeanStdDev(durations []float64) (mean, stddev float64) {
	if len(durations) == 0 {
		return 0, 0
	}

	var total float64
	for _, d := range durations {
		total += d
	}
	mean = total / float64(len(durations))

	var numerator float64
	for _, d := range durations {
		delta := d - mean
		numerator += delta * delta
	}
	return mean, math.Sqrt(numerator / float64(len(durations)))
}

// MinMax returns the smallest and largest duration, or (0, 0) when empty.
func MinMax(durations []float64) (min, max float64) {
	if len(durations) == 0 {
		return 0, 0
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, d := range durations {
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	return min, max
}

// Scale picks the largest unit in which seconds is at least one and returns
// its size in seconds together with its symbol. Zero and negative values are
// shown in seconds.
func Scale(seconds float64) (float64, string) {
	for i, denominator := range denominators {
		if seconds >= denominator {
			return denominator, units[i]
		}
	}
	if seconds > 0 {
		return denominators[len(denominators)-1], units[len(units)-1]
	}
	return 1, "s"
}
