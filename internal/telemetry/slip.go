package telemetry

// SlipAngle computes the gated, smoothed body-to-direction-of-travel angle:
// the signed difference between the aligned (smoothed, unwrapped) yaw and
// the unwrapped heading, wrapped for output.
//
// Slip is only physically meaningful when the vehicle is moving fast enough
// and the yaw fusion is GPS-corrected; everywhere else the sample is
// undefined, and smoothing must never manufacture a defined value there. The
// gated signal is hold-last-valid filled before the EMA so the filter state
// is not contaminated by gaps, then re-masked to exactly the originally
// gated positions.
//
// If no sample passes the gate the whole channel is undefined.
func SlipAngle(yawAlignedUnwrapped []float64, headingUnwrapped Channel, samples []Sample, cfg Config) Channel {
	gated := NewChannel(len(samples))
	for i, s := range samples {
		if s.SpeedMPH >= cfg.SlipSpeedThreshMPH && s.YawMode == YawModeGPS && headingUnwrapped[i].Valid {
			gated[i] = F(Wrap180(yawAlignedUnwrapped[i] - headingUnwrapped[i].Float64))
		}
	}

	dense, ok := gated.HoldLastValid()
	if !ok {
		return gated
	}
	return MaskLike(EMA(dense, cfg.SlipAlpha), gated)
}
