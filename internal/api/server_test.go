package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/monitoring"
	"github.com/banshee-data/lap.report/internal/telemetry"
	"github.com/banshee-data/lap.report/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

var testClockStart = time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.MigrateUp(db.MigrationsFS()); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	s := NewServer(database, telemetry.DefaultConfig(), "mph", t.TempDir())
	s.clock = timeutil.NewMockClock(testClockStart)
	return s
}

// testCSV builds a 16-column logger file: a steady 40mph run with a slow
// heading sweep and a mirrored yaw mount 30 degrees off.
func testCSV(n int) []byte {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		heading := telemetry.Wrap180(float64(i) * 0.3)
		yaw := telemetry.Wrap180(-heading + 30)
		fmt.Fprintf(&b, "%d,0.00,0.10,1.00,0.5,-0.3,%.3f,%.3f,%.3f,%.3f,33.0,-118.0,40.0,1,400,250\n",
			i*100, yaw, yaw, yaw, heading)
	}
	return b.Bytes()
}

func uploadRequest(t *testing.T, csv []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("logfile", "morning practice.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(csv); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doUpload(t *testing.T, s *Server, csv []byte) uploadResponse {
	t.Helper()
	rr := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rr, uploadRequest(t, csv))
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp uploadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

func TestUploadSession(t *testing.T) {
	s := newTestServer(t)
	resp := doUpload(t, s, testCSV(300))

	sess := resp.Session
	if sess == nil {
		t.Fatal("upload response has no session")
	}
	if sess.SampleCount != 300 {
		t.Errorf("SampleCount = %d, want 300", sess.SampleCount)
	}
	if sess.Name != "morning_practice.csv" {
		t.Errorf("Name = %q, want sanitized filename", sess.Name)
	}
	if !sess.CreatedAt.Equal(testClockStart) {
		t.Errorf("CreatedAt = %v, want %v", sess.CreatedAt, testClockStart)
	}
	if math.Abs(sess.DurationS-29.9) > 1e-9 {
		t.Errorf("DurationS = %g, want 29.9", sess.DurationS)
	}
	if sess.MaxSpeedMPH != 40 || sess.P50SpeedMPH != 40 {
		t.Errorf("speed stats = max %g p50 %g, want 40", sess.MaxSpeedMPH, sess.P50SpeedMPH)
	}
	if resp.Align.Sign != -1 {
		t.Errorf("alignment sign = %d, want -1 for the mirrored mount", resp.Align.Sign)
	}
	if sess.LapCount != 0 || sess.BestLapS != nil {
		t.Errorf("got %d laps, best %v; session never enters the gate", sess.LapCount, sess.BestLapS)
	}
}

func TestUploadRejectsMalformedLog(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	for name, csv := range map[string]string{
		"wrong column count": "1,2,3\n",
		"non-numeric cell":   "0,0,0,1,0,0,5,5,5,5,x,-118,40,1,0,250\n",
		"empty file":         "",
	} {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, uploadRequest(t, []byte(csv)))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestUploadRejectsUnprocessableLog(t *testing.T) {
	s := newTestServer(t)

	// Parses fine, but time runs backwards between the rows.
	csv := "1000,0,0,1,0,0,5,5,5,5,33,-118,40,1,0,250\n" +
		"500,0,0,1,0,0,5,5,5,5,33,-118,40,1,0,250\n"
	rr := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rr, uploadRequest(t, []byte(csv)))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body %s", rr.Code, rr.Body.String())
	}
}

func TestGetAndListSessions(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()
	resp := doUpload(t, s, testCSV(100))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/"+resp.Session.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var got db.Session
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if got.ID != resp.Session.ID || got.SampleCount != 100 {
		t.Errorf("got session %+v", got)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var list []db.Session
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != resp.Session.ID {
		t.Errorf("list = %+v, want the uploaded session", list)
	}
}

func TestGetSessionLaps(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()
	up := doUpload(t, s, lapCSV(800))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/"+up.Session.ID+"/laps", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var laps []telemetry.Lap
	if err := json.NewDecoder(rr.Body).Decode(&laps); err != nil {
		t.Fatalf("decode laps: %v", err)
	}
	if len(laps) != 3 {
		t.Fatalf("got %d laps, want 3", len(laps))
	}
	for i, lap := range laps {
		if lap.Lap != i+1 {
			t.Errorf("lap[%d].Lap = %d, want %d", i, lap.Lap, i+1)
		}
		if math.Abs(lap.LapTimeS-20) > 0.5 {
			t.Errorf("lap %d time = %gs, want near 20", lap.Lap, lap.LapTimeS)
		}
	}
}

func TestSessionNotFound(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	for _, path := range []string{
		"/api/sessions/nope",
		"/api/sessions/nope/laps",
		"/api/sessions/nope/channels",
	} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rr.Code)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()
	resp := doUpload(t, s, testCSV(100))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+resp.Session.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/"+resp.Session.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}

	// The saved CSV is gone too, so channels cannot be re-derived.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/"+resp.Session.ID+"/channels", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("channels after delete status = %d, want 404", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPut, "/api/sessions"},
		{http.MethodPost, "/api/sessions/abc/laps"},
		{http.MethodPost, "/api/config"},
	} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tc.method, tc.path, rr.Code)
		}
	}
}

func TestShowConfig(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var cfg map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg["units"] != "mph" {
		t.Errorf("units = %v, want mph", cfg["units"])
	}
	if _, ok := cfg["tuning"]; !ok {
		t.Error("config response missing tuning block")
	}
}
