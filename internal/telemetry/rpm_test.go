package telemetry

import (
	"math"
	"testing"
)

func TestEngineRPM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PulsesPerRev = 120 // 1 pulse per 0.5s -> 1 RPM per pulse/s scaling below

	t.Run("basic_conversion", func(t *testing.T) {
		samples := []Sample{
			{TimeS: 0.0, TachPulses: 60},
			{TimeS: 0.5, TachPulses: 60},
			{TimeS: 1.0, TachPulses: 120},
		}
		raw, _ := EngineRPM(samples, cfg)
		// 60 pulses / 0.5s = 120 pps -> 120*60/120 = 60 RPM.
		want := []float64{60, 60, 120}
		for i := range want {
			if !raw[i].Valid {
				t.Fatalf("raw[%d] undefined", i)
			}
			if math.Abs(raw[i].Float64-want[i]) > 1e-9 {
				t.Errorf("raw[%d] = %g, want %g", i, raw[i].Float64, want[i])
			}
		}
	})

	t.Run("first_sample_borrows_second_delta", func(t *testing.T) {
		samples := []Sample{
			{TimeS: 10.0, TachPulses: 30},
			{TimeS: 10.5, TachPulses: 30},
		}
		raw, _ := EngineRPM(samples, cfg)
		if !raw[0].Valid {
			t.Fatal("raw[0] undefined; first delta should borrow the second")
		}
		if raw[0].Float64 != raw[1].Float64 {
			t.Errorf("raw[0] = %g, raw[1] = %g; equal pulse counts should match", raw[0].Float64, raw[1].Float64)
		}
	})

	t.Run("zero_pulses_is_no_value_not_zero", func(t *testing.T) {
		samples := []Sample{
			{TimeS: 0.0, TachPulses: 10},
			{TimeS: 0.5, TachPulses: 0},
			{TimeS: 1.0, TachPulses: -3},
		}
		raw, smoothed := EngineRPM(samples, cfg)
		if raw[1].Valid || raw[2].Valid {
			t.Error("zero/negative pulses produced a defined RPM")
		}
		if smoothed[1].Valid || smoothed[2].Valid {
			t.Error("smoothing manufactured RPM where raw is undefined")
		}
	})

	t.Run("zero_time_delta_is_no_value_not_inf", func(t *testing.T) {
		samples := []Sample{
			{TimeS: 0.0, TachPulses: 10},
			{TimeS: 0.5, TachPulses: 10},
			{TimeS: 0.5, TachPulses: 10}, // repeated timestamp
		}
		raw, _ := EngineRPM(samples, cfg)
		if raw[2].Valid {
			t.Errorf("raw[2] = %+v, want undefined for zero delta", raw[2])
		}
		for i, v := range raw {
			if v.Valid && (math.IsInf(v.Float64, 0) || math.IsNaN(v.Float64)) {
				t.Errorf("raw[%d] = %g, non-finite value leaked", i, v.Float64)
			}
		}
	})

	t.Run("single_sample_has_no_delta", func(t *testing.T) {
		raw, smoothed := EngineRPM([]Sample{{TimeS: 0, TachPulses: 50}}, cfg)
		if raw[0].Valid || smoothed[0].Valid {
			t.Error("a lone sample has no time delta and must be undefined")
		}
	})

	t.Run("never_turning_engine", func(t *testing.T) {
		samples := []Sample{
			{TimeS: 0.0, TachPulses: 0},
			{TimeS: 0.5, TachPulses: 0},
		}
		raw, smoothed := EngineRPM(samples, cfg)
		if raw.AnyValid() || smoothed.AnyValid() {
			t.Error("expected entirely undefined RPM channels")
		}
		if len(smoothed) != len(samples) {
			t.Errorf("smoothed length %d, want %d", len(smoothed), len(samples))
		}
	})
}
