package telemetry

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AlignmentResult is the per-session transform that reconciles the IMU yaw
// with the GPS heading: a mounting polarity and a constant mechanical
// offset. It is derived once from the full session and applied uniformly.
type AlignmentResult struct {
	Sign           int     `json:"sign"`       // +1 or -1
	OffsetDeg      float64 `json:"offset_deg"` // in (-180, 180]
	ResidualStdDeg float64 `json:"residual_std_deg"`
	TrustedSamples int     `json:"trusted_samples"`
}

// Identity reports whether the alignment is the passthrough result returned
// for sessions with no heading-trusted samples.
func (r AlignmentResult) Identity() bool {
	return r.Sign == 1 && r.OffsetDeg == 0 && r.TrustedSamples == 0
}

// AlignYawToHeading searches over {sign, constant offset} for the transform
// that best aligns the unwrapped IMU yaw to the unwrapped GPS heading.
//
// Two orientation sensors may disagree in sign (mirrored mounting) and by a
// constant mechanical offset. For each candidate sign the constant offset is
// the circular mean of the per-sample signed difference to heading over the
// trusted subset (speed at or above the heading threshold, heading defined),
// and the candidate's error is the standard deviation of the residual
// difference after removing that offset. The lower-error candidate wins;
// ties keep +1.
//
// The search is over exactly these two discrete hypotheses, never
// gradient-based: a sign flip is not continuous, and a local offset optimum
// would be ambiguous between the two polarities.
//
// The winning transform is applied to the full unwrapped yaw sequence, not
// just the trusted subset. An empty trusted subset returns the yaw unchanged
// with an identity result; a best-effort passthrough beats a hard failure.
func AlignYawToHeading(yawUnwrapped []float64, headingUnwrapped Channel, speed []float64, cfg Config) ([]float64, AlignmentResult) {
	trusted := make([]int, 0, len(yawUnwrapped))
	for i := range yawUnwrapped {
		if speed[i] >= cfg.HeadingSpeedThreshMPH && headingUnwrapped[i].Valid {
			trusted = append(trusted, i)
		}
	}
	if len(trusted) == 0 {
		out := make([]float64, len(yawUnwrapped))
		copy(out, yawUnwrapped)
		return out, AlignmentResult{Sign: 1, OffsetDeg: 0}
	}

	best := AlignmentResult{Sign: 1, TrustedSamples: len(trusted)}
	bestErr := math.Inf(1)
	for _, sign := range []float64{1, -1} {
		diffRad := make([]float64, len(trusted))
		for k, i := range trusted {
			diffRad[k] = AngleDiffDeg(sign*yawUnwrapped[i], headingUnwrapped[i].Float64) * math.Pi / 180.0
		}
		offsetDeg := stat.CircularMean(diffRad, nil) * 180.0 / math.Pi

		residual := make([]float64, len(trusted))
		for k, i := range trusted {
			residual[k] = AngleDiffDeg(sign*yawUnwrapped[i]-offsetDeg, headingUnwrapped[i].Float64)
		}
		// StdDev needs two samples; a singleton session still has to pick a
		// candidate deterministically, so call its spread zero.
		err := 0.0
		if len(residual) > 1 {
			err = stat.StdDev(residual, nil)
		}

		if err < bestErr {
			bestErr = err
			best.Sign = int(sign)
			best.OffsetDeg = Wrap180(offsetDeg)
			best.ResidualStdDeg = err
		}
	}

	aligned := make([]float64, len(yawUnwrapped))
	for i, y := range yawUnwrapped {
		aligned[i] = float64(best.Sign)*y - best.OffsetDeg
	}
	return aligned, best
}
