// Package report renders session channel plots to PNG and assembles them,
// with the session and lap summaries, into a printable PDF.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lap.report/internal/telemetry"
	"github.com/banshee-data/lap.report/internal/units"
)

var plotColors = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255}, // blue
	color.RGBA{R: 255, G: 127, B: 14, A: 255}, // orange
	color.RGBA{R: 44, G: 160, B: 44, A: 255},  // green
	color.RGBA{R: 214, G: 39, B: 40, A: 255},  // red
}

// series is one named line on a time plot. Undefined stretches of a sparse
// channel become gaps rather than interpolated segments.
type series struct {
	name   string
	points plotter.XYs
}

func channelSeries(name string, t []float64, ch telemetry.Channel) series {
	pts := make(plotter.XYs, 0, len(ch))
	for i, v := range ch {
		if v.Valid {
			pts = append(pts, plotter.XY{X: t[i], Y: v.Float64})
		}
	}
	return series{name: name, points: pts}
}

func denseSeries(name string, t, xs []float64) series {
	pts := make(plotter.XYs, len(xs))
	for i, v := range xs {
		pts[i] = plotter.XY{X: t[i], Y: v}
	}
	return series{name: name, points: pts}
}

// timePlot renders named series against session time and returns PNG bytes.
func timePlot(title, yLabel string, ss ...series) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	plotted := false
	for i, s := range ss {
		if len(s.points) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.points)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s line: %w", s.name, err)
		}
		line.Color = plotColors[i%len(plotColors)]
		p.Add(line)
		p.Legend.Add(s.name, line)
		plotted = true
	}
	if !plotted {
		return nil, fmt.Errorf("no defined values to plot for %q", title)
	}

	return renderPNG(p, vg.Points(800), vg.Points(300))
}

func renderPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write plot: %w", err)
	}
	return buf.Bytes(), nil
}

// SpeedPlot draws the speed trace in the requested units.
func SpeedPlot(samples []telemetry.Sample, targetUnits string) ([]byte, error) {
	t := timeAxis(samples)
	speeds := make([]float64, len(samples))
	for i, s := range samples {
		speeds[i] = units.ConvertSpeed(s.SpeedMPH, targetUnits)
	}
	return timePlot("Speed", "speed ("+targetUnits+")", denseSeries("speed", t, speeds))
}

// OrientationPlot overlays the aligned yaw on the GPS heading.
func OrientationPlot(samples []telemetry.Sample, result *telemetry.Result) ([]byte, error) {
	t := timeAxis(samples)
	return timePlot("Orientation", "degrees",
		channelSeries("heading (GPS)", t, result.Heading),
		denseSeries("yaw (aligned)", t, result.YawAlignedDeg))
}

// SlipPlot draws the slip angle where it is defined.
func SlipPlot(samples []telemetry.Sample, result *telemetry.Result) ([]byte, error) {
	t := timeAxis(samples)
	return timePlot("Slip Angle", "slip (deg)",
		channelSeries("slip", t, result.Slip))
}

// AccelPlot draws the filtered accelerometer axes and magnitude.
func AccelPlot(samples []telemetry.Sample, result *telemetry.Result) ([]byte, error) {
	t := timeAxis(samples)
	return timePlot("Acceleration", "g",
		denseSeries("longitudinal", t, result.AccelX),
		denseSeries("lateral", t, result.AccelY),
		denseSeries("vertical", t, result.AccelZ),
		denseSeries("magnitude", t, result.AccelMag))
}

// RPMPlot draws raw and smoothed engine speed.
func RPMPlot(samples []telemetry.Sample, result *telemetry.Result) ([]byte, error) {
	t := timeAxis(samples)
	return timePlot("Engine RPM", "rpm",
		channelSeries("raw", t, result.RPMRaw),
		channelSeries("smoothed", t, result.RPM))
}

// TrackPlot draws the driven line in local metres around the first sample.
func TrackPlot(samples []telemetry.Sample) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}
	const mPerDegLat = 111320.0
	lat0, lon0 := samples[0].Lat, samples[0].Lon
	mPerDegLon := mPerDegLat * math.Cos(lat0*math.Pi/180)

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{
			X: (s.Lon - lon0) * mPerDegLon,
			Y: (s.Lat - lat0) * mPerDegLat,
		}
	}

	p := plot.New()
	p.Title.Text = "Track"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build track line: %w", err)
	}
	line.Color = plotColors[0]
	p.Add(line)

	return renderPNG(p, vg.Points(500), vg.Points(500))
}

func timeAxis(samples []telemetry.Sample) []float64 {
	t := make([]float64, len(samples))
	for i, s := range samples {
		t[i] = s.TimeS
	}
	return t
}
