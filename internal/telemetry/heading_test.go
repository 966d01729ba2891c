package telemetry

import (
	"math"
	"testing"
)

func headingTestConfig() Config {
	cfg := DefaultConfig()
	cfg.GPSHeadingLagS = 0   // isolate the gating/fill behavior
	cfg.HeadingAlpha = 1.0   // no smoothing
	return cfg
}

func TestBuildHeadingGateAndFill(t *testing.T) {
	cfg := headingTestConfig()

	samples := []Sample{
		{TimeS: 0.0, SpeedMPH: 2, GPSHeadingDeg: F(999)}, // below threshold, course is noise
		{TimeS: 0.1, SpeedMPH: 3, GPSHeadingDeg: F(999)},
		{TimeS: 0.2, SpeedMPH: 15, GPSHeadingDeg: F(40)}, // first trusted
		{TimeS: 0.3, SpeedMPH: 4, GPSHeadingDeg: F(999)}, // gap: hold 40
		{TimeS: 0.4, SpeedMPH: 20, GPSHeadingDeg: F(60)},
		{TimeS: 0.5, SpeedMPH: 20, GPSHeadingDeg: Value{}}, // no fix: hold 60
	}

	heading, unwrapped := BuildHeading(samples, cfg)
	want := []float64{40, 40, 40, 40, 60, 60}
	for i := range want {
		if !heading[i].Valid {
			t.Fatalf("heading[%d] undefined", i)
		}
		if math.Abs(heading[i].Float64-want[i]) > 1e-9 {
			t.Errorf("heading[%d] = %g, want %g", i, heading[i].Float64, want[i])
		}
		if !unwrapped[i].Valid {
			t.Errorf("unwrapped[%d] undefined", i)
		}
	}
}

func TestBuildHeadingUnwrappedIsContinuous(t *testing.T) {
	cfg := headingTestConfig()

	// Heading sweeps through the ±180 wrap; the unwrapped channel must not
	// jump while the wrapped one re-enters range.
	samples := []Sample{
		{TimeS: 0, SpeedMPH: 30, GPSHeadingDeg: F(170)},
		{TimeS: 1, SpeedMPH: 30, GPSHeadingDeg: F(178)},
		{TimeS: 2, SpeedMPH: 30, GPSHeadingDeg: F(-176)},
		{TimeS: 3, SpeedMPH: 30, GPSHeadingDeg: F(-168)},
	}
	heading, unwrapped := BuildHeading(samples, cfg)

	wantUnwrapped := []float64{170, 178, 184, 192}
	for i := range wantUnwrapped {
		if math.Abs(unwrapped[i].Float64-wantUnwrapped[i]) > 1e-9 {
			t.Errorf("unwrapped[%d] = %g, want %g", i, unwrapped[i].Float64, wantUnwrapped[i])
		}
		if got, raw := heading[i].Float64, samples[i].GPSHeadingDeg.Float64; math.Abs(AngleDiffDeg(got, raw)) > 1e-9 {
			t.Errorf("heading[%d] = %g, want %g re-wrapped", i, got, raw)
		}
	}
}

func TestBuildHeadingLagCompensation(t *testing.T) {
	cfg := headingTestConfig()
	cfg.GPSHeadingLagS = 0.4

	// Course ramps 10°/s; pulling it 0.4s forward adds 4°.
	var samples []Sample
	for i := 0; i < 20; i++ {
		ts := float64(i) * 0.1
		samples = append(samples, Sample{TimeS: ts, SpeedMPH: 30, GPSHeadingDeg: F(10 * ts)})
	}
	heading, _ := BuildHeading(samples, cfg)
	for i := 0; i < 15; i++ { // away from the held tail
		want := 10*samples[i].TimeS + 4
		if math.Abs(heading[i].Float64-want) > 1e-9 {
			t.Errorf("heading[%d] = %g, want %g", i, heading[i].Float64, want)
		}
	}
}

func TestBuildHeadingNeverTrusted(t *testing.T) {
	cfg := headingTestConfig()
	samples := []Sample{
		{TimeS: 0, SpeedMPH: 1, GPSHeadingDeg: F(10)},
		{TimeS: 1, SpeedMPH: 2, GPSHeadingDeg: F(20)},
	}
	heading, unwrapped := BuildHeading(samples, cfg)
	if heading.AnyValid() || unwrapped.AnyValid() {
		t.Error("expected entirely undefined heading channels")
	}
	if len(heading) != len(samples) || len(unwrapped) != len(samples) {
		t.Errorf("channel lengths %d/%d, want %d", len(heading), len(unwrapped), len(samples))
	}
}
