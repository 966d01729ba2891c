package dashboard

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/banshee-data/lap.report/internal/monitoring"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"lapTime": func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%.2fs", *p)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<title>lap.report</title>
<style>
body { font-family: sans-serif; background: #100c2a; color: #eee; margin: 2em; }
a { color: #6ece58; }
table { border-collapse: collapse; margin-top: 1em; }
th, td { border: 1px solid #444; padding: 0.4em 0.8em; text-align: right; }
th { background: #1f1b3a; }
td.name { text-align: left; }
form { margin-top: 1.5em; padding: 1em; background: #1f1b3a; display: inline-block; }
</style>
</head>
<body>
<h1>lap.report</h1>
<p>Upload an ESP32 logger CSV to derive heading, slip, RPM and laps.</p>
<form action="/api/sessions" method="post" enctype="multipart/form-data">
<input type="file" name="logfile" accept=".csv" required>
<input type="submit" value="Upload session">
</form>
{{if .Sessions}}
<table>
<tr><th>Session</th><th>Created</th><th>Duration</th><th>Laps</th><th>Best lap</th><th>Max speed</th><th>Charts</th></tr>
{{range .Sessions}}
<tr>
<td class="name"><a href="/api/sessions/{{.ID}}">{{.Name}}</a></td>
<td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
<td>{{printf "%.0fs" .DurationS}}</td>
<td>{{.LapCount}}</td>
<td>{{lapTime .BestLapS}}</td>
<td>{{printf "%.1f" .MaxSpeedMPH}} mph</td>
<td class="name">
<a href="/dashboard/track?session={{.ID}}">track</a>
<a href="/dashboard/speed?session={{.ID}}">speed</a>
<a href="/dashboard/orientation?session={{.ID}}">orientation</a>
<a href="/dashboard/slip?session={{.ID}}">slip</a>
<a href="/dashboard/accel?session={{.ID}}">accel</a>
<a href="/dashboard/rpm?session={{.ID}}">rpm</a>
</td>
</tr>
{{end}}
</table>
{{else}}
<p>No sessions yet.</p>
{{end}}
</body>
</html>
`))

func (d *Dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		d.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessions, err := d.store.ListSessions(100)
	if err != nil {
		d.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, map[string]interface{}{"Sessions": sessions}); err != nil {
		// Headers are already out; just log it.
		monitoring.Logf("failed to render index: %v", err)
	}
}
