// Package esplog parses the ESP32 vehicle logger's headerless CSV files into
// the canonical telemetry sample shape.
//
// Three column layouts exist in the wild, distinguished purely by column
// count. Older layouts lack the tachometer and throttle channels; the loader
// supplies "no value" placeholders for those so the processing pipeline
// never has to branch on log-format version.
package esplog

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/banshee-data/lap.report/internal/telemetry"
)

// Column layouts by count. All start with the same 14 columns:
//
//	time_ms, ax, ay, az, roll, pitch,
//	yaw_fused, yaw_gyro, yaw_mag, yaw_gps,
//	lat, lon, spd_mph, yaw_mode
//
// 16 columns append tach_pulses and tach_min_dt_us; 17 columns further
// append throttle_pct.
const (
	colsNoTach       = 14
	colsTach         = 16
	colsTachThrottle = 17
)

// Load parses a complete logger CSV from r. Every row must have the same
// supported column count; a malformed cell rejects the whole file with an
// error naming the offending row and column.
func Load(r io.Reader) ([]telemetry.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated per row below for a better message

	var samples []telemetry.Sample
	nCols := 0
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++

		if nCols == 0 {
			nCols = len(record)
			switch nCols {
			case colsNoTach, colsTach, colsTachThrottle:
			default:
				return nil, fmt.Errorf("expected %d, %d, or %d columns, got %d: not a supported logger format",
					colsNoTach, colsTach, colsTachThrottle, nCols)
			}
		}
		if len(record) != nCols {
			return nil, fmt.Errorf("row %d: %d columns, want %d", row, len(record), nCols)
		}

		s, err := parseRow(record, row)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("log file contains no samples")
	}
	return samples, nil
}

// LoadFile parses the logger CSV at path.
func LoadFile(path string) ([]telemetry.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	samples, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

func parseRow(record []string, row int) (telemetry.Sample, error) {
	names := []string{
		"time_ms", "accel_x_g", "accel_y_g", "accel_z_g", "roll_deg", "pitch_deg",
		"yaw_deg", "yaw_gyro_deg", "yaw_mag_deg", "yaw_gps_deg",
		"lat", "lon", "speed_mph", "yaw_mode",
		"tach_pulses", "tach_min_dt_us", "throttle_pct",
	}
	vals := make([]float64, len(record))
	for i, cell := range record {
		v, err := parseCell(cell)
		if err != nil {
			return telemetry.Sample{}, fmt.Errorf("row %d, column %s: %w", row, names[i], err)
		}
		vals[i] = v
	}

	s := telemetry.Sample{
		TimeS:         vals[0] / 1000.0,
		AccelXG:       vals[1],
		AccelYG:       vals[2],
		AccelZG:       vals[3],
		RollDeg:       vals[4],
		PitchDeg:      vals[5],
		YawDeg:        vals[6],
		YawGyroDeg:    vals[7],
		YawMagDeg:     vals[8],
		GPSHeadingDeg: telemetry.F(vals[9]), // no-fix rows log NaN, which F maps to "no value"
		Lat:           vals[10],
		Lon:           vals[11],
		SpeedMPH:      vals[12],
		YawMode:       telemetry.YawMode(int(vals[13])),
	}
	if len(record) >= colsTach {
		s.TachPulses = vals[14]
		s.TachMinDtUs = telemetry.F(vals[15])
	}
	if len(record) >= colsTachThrottle {
		s.ThrottlePct = telemetry.F(vals[16])
	}
	return s, nil
}

// parseCell accepts the logger's numeric cells, including empty and "nan"
// cells (emitted on channels without data), which become NaN and are handled
// field-by-field above.
func parseCell(cell string) (float64, error) {
	if cell == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable value %q", cell)
	}
	return v, nil
}
