// Package signal turns ordered per-domain value histories into momentum
// features: winsorized rolling z-scores, EMA, velocity, acceleration and
// streaks. Every function is pure and safe for concurrent use.
package signal

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Preprocessing constants.
const (
	DefaultWindow   = 60
	lowerPercentile = 0.01
	upperPercentile = 0.99
)

// Preprocess winsorizes values at the 1st/99th percentile and returns the
// rolling z-score of each point over the last DefaultWindow points.
func Preprocess(values []float64) ([]float64, error) {
	return PreprocessWindow(values, DefaultWindow)
}

// PreprocessWindow is Preprocess with an explicit window cap.
func PreprocessWindow(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if err := checkFinite(values); err != nil {
		return nil, err
	}
	return zScores(Winsorize(values), window), nil
}

// Winsorize clamps every value to [p1, p99] of the input without
// reordering it. The percentile indices are floor(n*0.01) and
// floor(n*0.99) into a sorted copy, clamped to [0, n-1].
func Winsorize(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return []float64{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo := sorted[percentileIndex(n, lowerPercentile)]
	hi := sorted[percentileIndex(n, upperPercentile)]

	out := make([]float64, n)
	for i, v := range values {
		switch {
		case v < lo:
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = v
		}
	}
	return out
}

func percentileIndex(n int, p float64) int {
	idx := int(math.Floor(float64(n) * p))
	return max(0, min(idx, n-1))
}

// zScores computes, for each i, the population z-score of values[i] within
// the last min(window, i+1) values. Flat windows score 0.
func zScores(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		w := values[max(0, i-window+1) : i+1]
		if flat(w) {
			continue
		}
		mean, std := stat.PopMeanStdDev(w, nil)
		if std == 0 {
			continue
		}
		out[i] = (values[i] - mean) / std
	}
	return out
}

// flat reports whether every value in w is identical. Checking this
// directly keeps constant windows at exactly 0 even when the floating
// mean is not exact.
func flat(w []float64) bool {
	for _, v := range w[1:] {
		if v != w[0] {
			return false
		}
	}
	return true
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return nil
}
