package dashboard

import (
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lap.report/internal/units"
)

// handleTrackChart renders the driven line as an XY scatter coloured by
// speed, with the start/finish gate marked.
func (d *Dashboard) handleTrackChart(w http.ResponseWriter, r *http.Request) {
	cd, ok := d.sessionFromQuery(w, r)
	if !ok {
		return
	}

	// Project lat/lon to local metres around the window's first sample so
	// the track is not squashed by the latitude cosine.
	const mPerDegLat = 111320.0
	lat0 := cd.samples[cd.lo].Lat
	lon0 := cd.samples[cd.lo].Lon
	mPerDegLon := mPerDegLat * math.Cos(lat0*math.Pi/180)

	data := make([]opts.ScatterData, 0, cd.hi-cd.lo)
	maxAbs, maxSpeed := 0.0, 0.0
	for i := cd.lo; i < cd.hi; i++ {
		s := cd.samples[i]
		x := (s.Lon - lon0) * mPerDegLon
		y := (s.Lat - lat0) * mPerDegLat
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}
		speed := units.ConvertSpeed(s.SpeedMPH, d.units)
		if speed > maxSpeed {
			maxSpeed = speed
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, speed}})
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxSpeed == 0 {
		maxSpeed = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "Track",
			Theme:      "dark",
			Width:      "900px",
			Height:     "900px",
			AssetsHost: echartsAssetsPrefix,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Track", Subtitle: cd.subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxSpeed),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries("track", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	d.render(w, scatter)
}

func (d *Dashboard) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	cd, ok := d.sessionFromQuery(w, r)
	if !ok {
		return
	}

	data := make([]opts.LineData, 0, cd.hi-cd.lo)
	for i := cd.lo; i < cd.hi; i++ {
		data = append(data, opts.LineData{Value: units.ConvertSpeed(cd.samples[i].SpeedMPH, d.units)})
	}

	line := newLine("Speed", cd.subtitle, d.speedLabel())
	line.SetXAxis(cd.times()).AddSeries("speed", data)
	d.render(w, line)
}

// handleOrientationChart overlays the aligned yaw on the GPS-derived
// heading; the two tracks should sit on top of each other on straights.
func (d *Dashboard) handleOrientationChart(w http.ResponseWriter, r *http.Request) {
	cd, ok := d.sessionFromQuery(w, r)
	if !ok {
		return
	}

	align := cd.result.Alignment
	line := newLine("Orientation", fmt.Sprintf("%s  |  sign %+d, offset %.1f deg, residual %.2f deg",
		cd.subtitle, align.Sign, align.OffsetDeg, align.ResidualStdDeg), "degrees")
	line.SetXAxis(cd.times()).
		AddSeries("heading (GPS)", lineData(cd.result.Heading, cd.lo, cd.hi)).
		AddSeries("yaw (aligned)", denseLineData(cd.result.YawAlignedDeg, cd.lo, cd.hi))
	d.render(w, line)
}

func (d *Dashboard) handleSlipChart(w http.ResponseWriter, r *http.Request) {
	cd, ok := d.sessionFromQuery(w, r)
	if !ok {
		return
	}

	line := newLine("Slip Angle", cd.subtitle, "slip (deg)")
	line.SetXAxis(cd.times()).
		AddSeries("slip", lineData(cd.result.Slip, cd.lo, cd.hi))
	d.render(w, line)
}

func (d *Dashboard) handleAccelChart(w http.ResponseWriter, r *http.Request) {
	cd, ok := d.sessionFromQuery(w, r)
	if !ok {
		return
	}

	line := newLine("Acceleration", cd.subtitle, "g")
	line.SetXAxis(cd.times()).
		AddSeries("longitudinal", denseLineData(cd.result.AccelX, cd.lo, cd.hi)).
		AddSeries("lateral", denseLineData(cd.result.AccelY, cd.lo, cd.hi)).
		AddSeries("vertical", denseLineData(cd.result.AccelZ, cd.lo, cd.hi)).
		AddSeries("magnitude", denseLineData(cd.result.AccelMag, cd.lo, cd.hi))
	d.render(w, line)
}

func (d *Dashboard) handleRPMChart(w http.ResponseWriter, r *http.Request) {
	cd, ok := d.sessionFromQuery(w, r)
	if !ok {
		return
	}

	line := newLine("Engine RPM", cd.subtitle, "rpm")
	line.SetXAxis(cd.times()).
		AddSeries("raw", lineData(cd.result.RPMRaw, cd.lo, cd.hi)).
		AddSeries("smoothed", lineData(cd.result.RPM, cd.lo, cd.hi))
	d.render(w, line)
}
