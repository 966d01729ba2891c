package telemetry

import "math"

// Wrap180 maps any angle in degrees onto (-180, 180]. The boundary maps to
// +180 (Wrap180(180) == Wrap180(-180) == 180) and the function is
// idempotent.
func Wrap180(a float64) float64 {
	if a > -180.0 && a <= 180.0 {
		return a
	}
	r := math.Mod(a+180.0, 360.0)
	if r <= 0 {
		r += 360.0
	}
	return r - 180.0
}

// AngleDiffDeg returns the minimal signed difference a-b in degrees, in
// (-180, 180]. Use this wherever two orientations are compared; a plain
// subtraction is wrong near the wrap point.
func AngleDiffDeg(a, b float64) float64 {
	return Wrap180(a - b)
}

// UnwrapDeg removes artificial 360° discontinuities from a wrapped angle
// sequence, producing a continuous signal of the same length with the first
// value preserved. Each output element depends on the cumulative turn count,
// so the result is only meaningful as a whole sequence.
//
// The turn count is tracked as an integer and applied as a single
// +/-360·k term per element, so re-wrapping the output reproduces the input
// exactly for already-wrapped sequences.
func UnwrapDeg(a []float64) []float64 {
	out := make([]float64, len(a))
	if len(a) == 0 {
		return out
	}
	out[0] = a[0]
	turns := 0
	for i := 1; i < len(a); i++ {
		d := a[i] - a[i-1]
		if d > 180.0 {
			turns--
		} else if d <= -180.0 {
			turns++
		}
		out[i] = a[i] + 360.0*float64(turns)
	}
	return out
}
