package telemetry

// EngineRPM converts per-sample tachometer pulse counts into engine speed:
// pulses over the sample's time delta gives pulses per second, times 60 over
// pulses-per-revolution gives RPM.
//
// Degenerate samples are undefined, never zero or infinite:
//   - the first sample has no prior delta and borrows the second sample's
//     (a lone sample has no delta at all);
//   - a zero time delta is never divided;
//   - zero or negative pulse counts mean the engine is not confirmed
//     turning, which is not the same thing as 0 RPM.
//
// The raw channel is returned alongside the smoothed one; the smoothed
// channel is hold-last-valid filled, EMA'd with the RPM alpha, and re-masked
// to exactly the raw channel's validity.
func EngineRPM(samples []Sample, cfg Config) (raw, smoothed Channel) {
	n := len(samples)
	raw = NewChannel(n)

	dt := make([]Value, n)
	for i := 1; i < n; i++ {
		d := samples[i].TimeS - samples[i-1].TimeS
		if d != 0 {
			dt[i] = F(d)
		}
	}
	if n > 1 {
		dt[0] = dt[1]
	}

	for i := 0; i < n; i++ {
		if !dt[i].Valid || samples[i].TachPulses <= 0 {
			continue
		}
		pps := samples[i].TachPulses / dt[i].Float64
		raw[i] = F(pps * 60.0 / cfg.PulsesPerRev)
	}

	dense, ok := raw.HoldLastValid()
	if !ok {
		return raw, NewChannel(n)
	}
	return raw, MaskLike(EMA(dense, cfg.RPMAlpha), raw)
}
