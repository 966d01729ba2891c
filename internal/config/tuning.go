// Package config loads the optional JSON tuning file that overrides the
// pipeline's built-in defaults (gate location, speed gates, smoothing
// alphas, tach calibration).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/lap.report/internal/telemetry"
)

// TuningConfig is the root of the tuning file. All fields are optional;
// anything omitted keeps the default the logger was calibrated against, so
// partial configs are safe.
type TuningConfig struct {
	// Start/finish geofence
	GateLat     *float64 `json:"gate_lat,omitempty"`
	GateLon     *float64 `json:"gate_lon,omitempty"`
	GateRadiusM *float64 `json:"gate_radius_m,omitempty"`
	MinLapTimeS *float64 `json:"min_lap_time_s,omitempty"`

	// Trust gates
	HeadingSpeedThreshMPH *float64 `json:"heading_speed_thresh_mph,omitempty"`
	SlipSpeedThreshMPH    *float64 `json:"slip_speed_thresh_mph,omitempty"`
	GPSHeadingLagS        *float64 `json:"gps_heading_lag_s,omitempty"`

	// Per-channel smoothing
	HeadingAlpha *float64 `json:"heading_alpha,omitempty"`
	YawAlpha     *float64 `json:"yaw_alpha,omitempty"`
	SlipAlpha    *float64 `json:"slip_alpha,omitempty"`
	AccelAlpha   *float64 `json:"accel_alpha,omitempty"`
	RPMAlpha     *float64 `json:"rpm_alpha,omitempty"`

	// Tach calibration
	PulsesPerRev *float64 `json:"pulses_per_rev,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the resolved configuration. Validation runs on the fully
// resolved pipeline config so an override can never combine with the
// defaults into something unusable.
func (c *TuningConfig) Validate() error {
	return c.Pipeline().Validate()
}

// Pipeline resolves the overrides onto the built-in defaults.
func (c *TuningConfig) Pipeline() telemetry.Config {
	out := telemetry.DefaultConfig()
	set := func(dst, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.GateLat, c.GateLat)
	set(&out.GateLon, c.GateLon)
	set(&out.GateRadiusM, c.GateRadiusM)
	set(&out.MinLapTimeS, c.MinLapTimeS)
	set(&out.HeadingSpeedThreshMPH, c.HeadingSpeedThreshMPH)
	set(&out.SlipSpeedThreshMPH, c.SlipSpeedThreshMPH)
	set(&out.GPSHeadingLagS, c.GPSHeadingLagS)
	set(&out.HeadingAlpha, c.HeadingAlpha)
	set(&out.YawAlpha, c.YawAlpha)
	set(&out.SlipAlpha, c.SlipAlpha)
	set(&out.AccelAlpha, c.AccelAlpha)
	set(&out.RPMAlpha, c.RPMAlpha)
	set(&out.PulsesPerRev, c.PulsesPerRev)
	return out
}
