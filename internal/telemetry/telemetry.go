// Package telemetry derives analysis-ready signals from a recorded logger
// session: a stabilized GPS heading, an IMU yaw track aligned to that heading,
// a gated slip angle, filtered acceleration, engine RPM from tachometer
// pulses, and lap boundaries from a start/finish geofence.
//
// The package is a batch pipeline over one complete session. All functions
// are pure transformations over an ordered sample slice: they never mutate
// their inputs, perform no I/O, and depend only on the samples and the
// Config, so results are reproducible run to run.
package telemetry

// YawMode classifies how the logger's onboard fusion produced the yaw value
// for a sample. Only GPS-corrected yaw is trusted for slip computation.
type YawMode int

const (
	YawModeGyroOnly YawMode = 0
	YawModeGPS      YawMode = 1
	YawModeMag      YawMode = 2
)

// Sample is one logger reading. Samples form an ordered sequence; callers
// must supply non-decreasing TimeS (Process rejects sessions that violate
// this rather than re-sorting).
type Sample struct {
	TimeS    float64 `json:"time_s"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	SpeedMPH float64 `json:"speed_mph"`

	YawDeg        float64 `json:"yaw_deg"` // onboard-fused body yaw, wraps at ±180
	YawMode       YawMode `json:"yaw_mode"`
	GPSHeadingDeg Value   `json:"yaw_gps_deg"` // raw GPS course; invalid without a fix

	AccelXG float64 `json:"accel_x_g"`
	AccelYG float64 `json:"accel_y_g"`
	AccelZG float64 `json:"accel_z_g"`

	// Carried for display only; core math uses the fused yaw.
	RollDeg    float64 `json:"roll_deg"`
	PitchDeg   float64 `json:"pitch_deg"`
	YawGyroDeg float64 `json:"yaw_gyro_deg"`
	YawMagDeg  float64 `json:"yaw_mag_deg"`

	TachPulses  float64 `json:"tach_pulses"`
	TachMinDtUs Value   `json:"tach_min_dt_us"` // diagnostic, unused by the pipeline
	ThrottlePct Value   `json:"throttle_pct"`   // newest log format only
}
