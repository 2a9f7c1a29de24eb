package signal

import "fmt"

// DefaultAlpha is the daily EMA smoothing factor.
const DefaultAlpha = 0.3

// EMA returns the exponential moving average of values:
// ema[0] = values[0], ema[i] = alpha*values[i] + (1-alpha)*ema[i-1].
func EMA(values []float64, alpha float64) ([]float64, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAlpha, alpha)
	}
	if err := checkFinite(values); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out, nil
}

// Velocity returns the first difference of an EMA series with velocity[0] = 0.
func Velocity(ema []float64) []float64 {
	return diff(ema)
}

// Acceleration returns the first difference of a velocity series with acceleration[0] = 0.
func Acceleration(velocity []float64) []float64 {
	return diff(velocity)
}

func diff(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}
