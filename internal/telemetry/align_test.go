package telemetry

import (
	"math"
	"testing"
)

// A mirrored-mount session: the IMU reports yaw = -heading + 47°. The
// aligner must recover sign -1 and the constant bias, leaving a near-zero
// residual.
func TestAlignYawToHeadingMirroredMount(t *testing.T) {
	cfg := DefaultConfig()

	n := 200
	heading := make([]float64, n)
	yawWrapped := make([]float64, n)
	speed := make([]float64, n)
	for i := 0; i < n; i++ {
		h := float64(i) * 2.0 // two slow continuous turns
		heading[i] = h
		yawWrapped[i] = Wrap180(-h + 47.0)
		speed[i] = cfg.HeadingSpeedThreshMPH + 20
	}
	yawUnwrapped := UnwrapDeg(yawWrapped)

	aligned, res := AlignYawToHeading(yawUnwrapped, DenseChannel(heading), speed, cfg)

	if res.Sign != -1 {
		t.Fatalf("sign = %+d, want -1", res.Sign)
	}
	if math.Abs(math.Abs(res.OffsetDeg)-47.0) > 1e-6 {
		t.Errorf("offset = %g, want magnitude 47", res.OffsetDeg)
	}
	if res.ResidualStdDeg > 1e-6 {
		t.Errorf("residual std = %g, want ~0", res.ResidualStdDeg)
	}
	if res.TrustedSamples != n {
		t.Errorf("trusted samples = %d, want %d", res.TrustedSamples, n)
	}
	for i := range aligned {
		if d := AngleDiffDeg(aligned[i], heading[i]); math.Abs(d) > 1e-6 {
			t.Fatalf("aligned[%d] off heading by %g°", i, d)
		}
	}
}

func TestAlignYawToHeadingStraightMount(t *testing.T) {
	cfg := DefaultConfig()

	n := 100
	heading := make([]float64, n)
	yaw := make([]float64, n)
	speed := make([]float64, n)
	for i := 0; i < n; i++ {
		heading[i] = float64(i) * 3.0
		yaw[i] = heading[i] - 12.0
		speed[i] = 40
	}

	_, res := AlignYawToHeading(yaw, DenseChannel(heading), speed, cfg)
	if res.Sign != 1 {
		t.Fatalf("sign = %+d, want +1", res.Sign)
	}
	if math.Abs(res.OffsetDeg-(-12.0)) > 1e-6 {
		t.Errorf("offset = %g, want -12", res.OffsetDeg)
	}
}

// A session where nothing is heading-trusted falls back to an identity
// transform and yaw passthrough instead of failing.
func TestAlignYawToHeadingDegenerateSession(t *testing.T) {
	cfg := DefaultConfig()

	yaw := []float64{10, 20, 30}
	heading := NewChannel(3) // heading never defined
	speed := []float64{2, 3, 4}

	aligned, res := AlignYawToHeading(yaw, heading, speed, cfg)
	if res.Sign != 1 || res.OffsetDeg != 0 {
		t.Fatalf("got %+v, want identity", res)
	}
	if !res.Identity() {
		t.Error("Identity() = false on an identity result")
	}
	for i := range yaw {
		if aligned[i] != yaw[i] {
			t.Errorf("aligned[%d] = %g, want unchanged %g", i, aligned[i], yaw[i])
		}
	}
	// Passthrough must still be a copy, not the caller's slice.
	aligned[0] = 999
	if yaw[0] != 10 {
		t.Error("aligner mutated the caller's yaw slice")
	}
}

func TestAlignYawToHeadingSingleTrustedSample(t *testing.T) {
	cfg := DefaultConfig()

	yaw := []float64{30}
	heading := DenseChannel([]float64{10})
	speed := []float64{50}

	_, res := AlignYawToHeading(yaw, heading, speed, cfg)
	if res.TrustedSamples != 1 {
		t.Fatalf("trusted = %d, want 1", res.TrustedSamples)
	}
	// Both hypotheses have zero spread on a singleton; ties keep +1.
	if res.Sign != 1 {
		t.Errorf("sign = %+d, want +1 on tie", res.Sign)
	}
}
