package telemetry

// BuildHeading constructs the continuous GPS-derived heading for a session.
//
// Raw GPS course is only trustworthy above the heading speed threshold;
// below it the course is noise-dominated. The build is:
//
//  1. Gate: keep the raw course only where speed is at or above the
//     threshold and the sample actually carries a course fix.
//  2. Hold-last-valid fill: samples before the first trusted value take that
//     value; later gaps hold the previous trusted value.
//  3. ShiftBack by the configured GPS heading lag to line up with IMU yaw.
//  4. Unwrap, then EMA with the heading alpha.
//  5. Wrap180 per sample for the reported heading channel.
//
// The unwrapped smoothed intermediate is returned as its own channel:
// downstream alignment and slip math must operate on continuous values, or
// spurious 360° jumps would corrupt the circular mean and residual.
//
// If no sample is ever trusted, both channels are entirely undefined.
func BuildHeading(samples []Sample, cfg Config) (heading, headingUnwrapped Channel) {
	n := len(samples)
	gated := NewChannel(n)
	for i, s := range samples {
		if s.SpeedMPH >= cfg.HeadingSpeedThreshMPH && s.GPSHeadingDeg.Valid {
			gated[i] = F(s.GPSHeadingDeg.Float64)
		}
	}

	dense, ok := gated.HoldLastValid()
	if !ok {
		return NewChannel(n), NewChannel(n)
	}

	t := make([]float64, n)
	for i, s := range samples {
		t[i] = s.TimeS
	}
	shifted := ShiftBack(dense, t, cfg.GPSHeadingLagS)

	unwrapped := EMA(UnwrapDeg(shifted), cfg.HeadingAlpha)
	wrapped := make([]float64, n)
	for i, v := range unwrapped {
		wrapped[i] = Wrap180(v)
	}
	return DenseChannel(wrapped), DenseChannel(unwrapped)
}
