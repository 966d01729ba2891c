package telemetry

// Lap is one start/finish-to-start/finish segment. StartTime and EndTime are
// interpolated crossing times with sub-sample precision; StartIdx and EndIdx
// are the sample indices just inside the gate at each crossing. Laps are
// immutable once detected.
type Lap struct {
	Lap       int     `json:"lap"` // 1-based, sequential over kept laps only
	StartIdx  int     `json:"start_idx"`
	EndIdx    int     `json:"end_idx"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	LapTimeS  float64 `json:"lap_time_s"`
}

// Window is the half-open sample index range covering the lap, clamped to a
// session of n samples.
func (l Lap) Window(n int) (lo, hi int) {
	lo, hi = l.StartIdx, l.EndIdx+1
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// FindLap locates a kept lap by its displayed number.
func FindLap(laps []Lap, number int) (Lap, bool) {
	for _, l := range laps {
		if l.Lap == number {
			return l, true
		}
	}
	return Lap{}, false
}

// DetectLaps segments a session into laps from crossings of the start/finish
// geofence, a circle of the configured radius around the gate coordinate.
//
// A sample is inside the gate when its great-circle distance to the center
// is within the radius. A crossing is an outside-to-inside transition
// between consecutive samples; the first sample's state is the session's
// initial condition and generates no event. The exact crossing time comes
// from linear interpolation of the distance between the two bracketing
// samples: equal distances take the later sample's time, otherwise the
// fractional position where the distance equals the radius is solved and
// clamped to [0, 1].
//
// Consecutive crossings define a lap. A lap shorter than the configured
// minimum is a spurious double-trigger from GPS jitter near the gate
// boundary; it is discarded outright (never merged) and does not consume a
// lap number. A session with fewer than two crossings yields no laps, which
// is not an error.
//
// The per-sample gate distance is also returned for diagnostics and
// plotting. Single O(n) pass.
func DetectLaps(samples []Sample, cfg Config) ([]Lap, []float64) {
	n := len(samples)
	dists := make([]float64, n)
	for i, s := range samples {
		dists[i] = HaversineM(s.Lat, s.Lon, cfg.GateLat, cfg.GateLon)
	}
	if n == 0 {
		return nil, dists
	}

	type crossing struct {
		idx int
		t   float64
	}
	var crossings []crossing
	insidePrev := dists[0] <= cfg.GateRadiusM
	for i := 1; i < n; i++ {
		inside := dists[i] <= cfg.GateRadiusM
		if inside && !insidePrev {
			dA, dB := dists[i-1], dists[i]
			tA, tB := samples[i-1].TimeS, samples[i].TimeS
			tCross := tB
			if dA != dB {
				ratio := (dA - cfg.GateRadiusM) / (dA - dB)
				if ratio < 0 {
					ratio = 0
				} else if ratio > 1 {
					ratio = 1
				}
				tCross = tA + ratio*(tB-tA)
			}
			crossings = append(crossings, crossing{idx: i, t: tCross})
		}
		insidePrev = inside
	}

	var laps []Lap
	for j := 1; j < len(crossings); j++ {
		a, b := crossings[j-1], crossings[j]
		lapT := b.t - a.t
		if lapT < cfg.MinLapTimeS {
			continue
		}
		laps = append(laps, Lap{
			Lap:       len(laps) + 1,
			StartIdx:  a.idx,
			EndIdx:    b.idx,
			StartTime: a.t,
			EndTime:   b.t,
			LapTimeS:  lapT,
		})
	}
	return laps, dists
}
