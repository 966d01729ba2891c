package telemetry

import (
	"fmt"
	"math"

	"github.com/banshee-data/lap.report/internal/monitoring"
)

// Result carries every derived channel for a session, each aligned
// index-for-index with the input samples, plus the lap list and the winning
// alignment. Consumers (API, dashboard, reports) read it; they never
// recompute or mutate it.
type Result struct {
	// Heading channels. Undefined everywhere when no sample is ever
	// heading-trusted.
	Heading          Channel `json:"heading_deg"`
	HeadingUnwrapped Channel `json:"heading_unwrapped"`

	// Yaw channels. YawAligned is the smoothed unwrapped track used for
	// slip; YawAlignedDeg is its wrapped display copy.
	YawUnwrapped  []float64 `json:"yaw_unwrapped"`
	YawAligned    []float64 `json:"yaw_aligned_unwrapped"`
	YawAlignedDeg []float64 `json:"yaw_aligned_deg"`

	Slip Channel `json:"slip_deg"`

	AccelX   []float64 `json:"accel_x_g_filt"`
	AccelY   []float64 `json:"accel_y_g_filt"`
	AccelZ   []float64 `json:"accel_z_g_filt"`
	AccelMag []float64 `json:"accel_mag_g"`

	RPMRaw Channel `json:"rpm_raw"`
	RPM    Channel `json:"rpm_smooth"`

	// Great-circle distance to the gate center per sample, for diagnostics.
	GateDistM []float64 `json:"gate_dist_m"`

	Laps      []Lap           `json:"laps"`
	Alignment AlignmentResult `json:"alignment"`
}

// validateSamples rejects sessions the pipeline cannot process. Malformed
// input is the only condition that aborts a run; everything downstream is
// absorbed into typed results (identity alignment, empty lap list, undefined
// channel values).
func validateSamples(samples []Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("session has no samples")
	}
	for i, s := range samples {
		for _, f := range []struct {
			name string
			v    float64
		}{
			{"time_s", s.TimeS},
			{"lat", s.Lat},
			{"lon", s.Lon},
			{"speed_mph", s.SpeedMPH},
			{"yaw_deg", s.YawDeg},
			{"accel_x_g", s.AccelXG},
			{"accel_y_g", s.AccelYG},
			{"accel_z_g", s.AccelZG},
		} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return fmt.Errorf("sample %d: %s is not finite", i, f.name)
			}
		}
		if s.SpeedMPH < 0 {
			return fmt.Errorf("sample %d: negative speed %g", i, s.SpeedMPH)
		}
		if i > 0 && s.TimeS < samples[i-1].TimeS {
			return fmt.Errorf("sample %d: time %g before previous sample's %g",
				i, s.TimeS, samples[i-1].TimeS)
		}
	}
	return nil
}

// Process runs the full derivation pipeline over one complete session. The
// sample slice is borrowed read-only; all outputs are newly allocated.
// Output depends only on samples and cfg, never on wall-clock time.
func Process(samples []Sample, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateSamples(samples); err != nil {
		return nil, fmt.Errorf("malformed session: %w", err)
	}

	n := len(samples)
	speed := make([]float64, n)
	yawRaw := make([]float64, n)
	for i, s := range samples {
		speed[i] = s.SpeedMPH
		yawRaw[i] = Wrap180(s.YawDeg)
	}

	res := &Result{}
	res.Heading, res.HeadingUnwrapped = BuildHeading(samples, cfg)

	res.YawUnwrapped = UnwrapDeg(yawRaw)
	alignedRaw, alignment := AlignYawToHeading(res.YawUnwrapped, res.HeadingUnwrapped, speed, cfg)
	res.Alignment = alignment
	res.YawAligned = EMA(alignedRaw, cfg.YawAlpha)
	res.YawAlignedDeg = make([]float64, n)
	for i, v := range res.YawAligned {
		res.YawAlignedDeg[i] = Wrap180(v)
	}

	res.AccelX, res.AccelY, res.AccelZ, res.AccelMag = SmoothAccel(samples, cfg)
	res.Slip = SlipAngle(res.YawAligned, res.HeadingUnwrapped, samples, cfg)
	res.RPMRaw, res.RPM = EngineRPM(samples, cfg)
	res.Laps, res.GateDistM = DetectLaps(samples, cfg)

	monitoring.Logf("processed session: %d samples, %d laps, yaw sign %+d offset %+.1f° (residual σ %.2f° over %d trusted)",
		n, len(res.Laps), alignment.Sign, alignment.OffsetDeg,
		alignment.ResidualStdDeg, alignment.TrustedSamples)
	return res, nil
}
