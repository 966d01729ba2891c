package telemetry

import "fmt"

// Config holds the session-wide processing parameters. It is supplied once
// per Process call and never mutated during a run.
type Config struct {
	// Start/finish geofence.
	GateLat     float64
	GateLon     float64
	GateRadiusM float64
	MinLapTimeS float64

	// Speed gates (mph, matching the logger's native speed channel).
	HeadingSpeedThreshMPH float64 // trust GPS heading only at or above this
	SlipSpeedThreshMPH    float64 // show slip only at or above this

	// GPS heading latency relative to the IMU yaw fusion.
	GPSHeadingLagS float64

	// Per-channel EMA smoothing factors, each in (0, 1].
	HeadingAlpha float64
	YawAlpha     float64
	SlipAlpha    float64
	AccelAlpha   float64
	RPMAlpha     float64

	PulsesPerRev float64
}

// DefaultConfig returns the tuning the logger was calibrated against.
func DefaultConfig() Config {
	return Config{
		GateLat:     33.825590689244244,
		GateLon:     -118.28829968858749,
		GateRadiusM: 3,
		MinLapTimeS: 5,

		HeadingSpeedThreshMPH: 10.0,
		SlipSpeedThreshMPH:    25.0,

		GPSHeadingLagS: 0.4,

		HeadingAlpha: 0.10,
		YawAlpha:     0.05,
		SlipAlpha:    0.15,
		AccelAlpha:   0.20,
		RPMAlpha:     0.20,

		PulsesPerRev: 128.0,
	}
}

// Validate checks that the configuration is usable for a pipeline run.
func (c Config) Validate() error {
	if c.GateRadiusM <= 0 {
		return fmt.Errorf("gate radius must be positive, got %g", c.GateRadiusM)
	}
	if c.MinLapTimeS < 0 {
		return fmt.Errorf("minimum lap time must be non-negative, got %g", c.MinLapTimeS)
	}
	if c.HeadingSpeedThreshMPH < 0 || c.SlipSpeedThreshMPH < 0 {
		return fmt.Errorf("speed thresholds must be non-negative")
	}
	if c.GPSHeadingLagS < 0 {
		return fmt.Errorf("GPS heading lag must be non-negative, got %g", c.GPSHeadingLagS)
	}
	for _, a := range []struct {
		name  string
		alpha float64
	}{
		{"heading", c.HeadingAlpha},
		{"yaw", c.YawAlpha},
		{"slip", c.SlipAlpha},
		{"accel", c.AccelAlpha},
		{"rpm", c.RPMAlpha},
	} {
		if a.alpha <= 0 || a.alpha > 1 {
			return fmt.Errorf("%s alpha must be in (0, 1], got %g", a.name, a.alpha)
		}
	}
	if c.PulsesPerRev <= 0 {
		return fmt.Errorf("pulses per revolution must be positive, got %g", c.PulsesPerRev)
	}
	return nil
}
