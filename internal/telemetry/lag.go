package telemetry

// ShiftBack resamples sig backward in time by lagS seconds: the value
// reported at t[i] is the original signal's value at t[i]+lagS, obtained by
// linear interpolation against the (t, sig) pairs. Query times beyond the
// last timestamp hold the last sample; times before the first hold the
// first.
//
// The GPS-derived heading reflects the true heading with latency relative to
// the IMU's yaw fusion; shifting it backward re-synchronizes the two streams
// before they are compared. This is a real-valued resampling rather than an
// index shift because sample spacing is not guaranteed uniform.
func ShiftBack(sig, t []float64, lagS float64) []float64 {
	out := make([]float64, len(sig))
	if len(sig) == 0 {
		return out
	}
	// Query times are t[i]+lagS and t is non-decreasing, so a single
	// forward cursor covers the whole pass.
	j := 0
	n := len(t)
	for i := range out {
		ts := t[i] + lagS
		for j < n-1 && t[j+1] < ts {
			j++
		}
		switch {
		case ts <= t[0]:
			out[i] = sig[0]
		case ts >= t[n-1]:
			out[i] = sig[n-1]
		default:
			// t[j] <= ts <= t[j+1]; repeated timestamps collapse to the
			// earlier sample's value.
			dt := t[j+1] - t[j]
			if dt <= 0 {
				out[i] = sig[j]
				continue
			}
			frac := (ts - t[j]) / dt
			out[i] = sig[j] + frac*(sig[j+1]-sig[j])
		}
	}
	return out
}
