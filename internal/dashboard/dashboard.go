// Package dashboard renders browser-side session charts with go-echarts.
// Every chart endpoint is parameterised by session (and optionally lap) and
// renders a complete HTML document, so charts work standalone or inside the
// index page's iframes.
package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lap.report/internal/api"
	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/telemetry"
	"github.com/banshee-data/lap.report/internal/units"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// viridis, low to high. Same ramp for every value-coloured scatter.
var viridisColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

type Dashboard struct {
	data  *api.Server
	store *db.DB
	units string
}

func New(data *api.Server, store *db.DB, units string) *Dashboard {
	return &Dashboard{data: data, store: store, units: units}
}

func (d *Dashboard) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", d.handleIndex)
	mux.HandleFunc("/dashboard/track", d.handleTrackChart)
	mux.HandleFunc("/dashboard/speed", d.handleSpeedChart)
	mux.HandleFunc("/dashboard/orientation", d.handleOrientationChart)
	mux.HandleFunc("/dashboard/slip", d.handleSlipChart)
	mux.HandleFunc("/dashboard/accel", d.handleAccelChart)
	mux.HandleFunc("/dashboard/rpm", d.handleRPMChart)
}

func (d *Dashboard) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// chartData is one session's worth of samples and derived channels, already
// windowed to the requested lap.
type chartData struct {
	sessionID string
	lap       int // 0 when the full session is shown
	samples   []telemetry.Sample
	result    *telemetry.Result
	lo, hi    int
	subtitle  string
}

// sessionFromQuery resolves the session and optional lap query parameters.
// On failure it writes the error response and returns false.
func (d *Dashboard) sessionFromQuery(w http.ResponseWriter, r *http.Request) (*chartData, bool) {
	id := r.URL.Query().Get("session")
	if id == "" {
		d.writeJSONError(w, http.StatusBadRequest, "'session' parameter is required")
		return nil, false
	}

	samples, result, err := d.data.SessionData(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, db.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		d.writeJSONError(w, status, fmt.Sprintf("failed to load session: %v", err))
		return nil, false
	}

	cd := &chartData{
		sessionID: id,
		samples:   samples,
		result:    result,
		lo:        0,
		hi:        len(samples),
		subtitle:  fmt.Sprintf("session %s, full session", id),
	}
	if l := r.URL.Query().Get("lap"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			d.writeJSONError(w, http.StatusBadRequest, "invalid 'lap' parameter")
			return nil, false
		}
		lap, ok := telemetry.FindLap(result.Laps, n)
		if !ok {
			d.writeJSONError(w, http.StatusNotFound, "lap not found")
			return nil, false
		}
		cd.lap = n
		cd.lo, cd.hi = lap.Window(len(samples))
		cd.subtitle = fmt.Sprintf("session %s, lap %d (%.2fs)", id, n, lap.LapTimeS)
	}
	return cd, true
}

// times is the lap-windowed time axis, formatted for a category x-axis.
func (cd *chartData) times() []string {
	out := make([]string, 0, cd.hi-cd.lo)
	for i := cd.lo; i < cd.hi; i++ {
		out = append(out, fmt.Sprintf("%.2f", cd.samples[i].TimeS))
	}
	return out
}

// lineData converts a channel window to line points, leaving gaps where the
// channel is undefined.
func lineData(ch telemetry.Channel, lo, hi int) []opts.LineData {
	out := make([]opts.LineData, 0, hi-lo)
	for i := lo; i < hi; i++ {
		if ch[i].Valid {
			out = append(out, opts.LineData{Value: ch[i].Float64})
		} else {
			out = append(out, opts.LineData{Value: "-"})
		}
	}
	return out
}

func denseLineData(xs []float64, lo, hi int) []opts.LineData {
	out := make([]opts.LineData, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, opts.LineData{Value: xs[i]})
	}
	return out
}

// newLine builds a line chart with the shared page setup.
func newLine(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  title,
			Theme:      "dark",
			Width:      "1200px",
			Height:     "600px",
			AssetsHost: echartsAssetsPrefix,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	return line
}

// render writes the chart HTML, or a JSON error if rendering fails.
func (d *Dashboard) render(w http.ResponseWriter, chart interface{ Render(io.Writer) error }) {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		d.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (d *Dashboard) speedLabel() string {
	if units.IsValid(d.units) {
		return "speed (" + d.units + ")"
	}
	return "speed (mph)"
}
