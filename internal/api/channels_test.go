package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/lap.report/internal/telemetry"
)

func getChannels(t *testing.T, s *Server, url string) (channelsResponse, int) {
	t.Helper()
	rr := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	var resp channelsResponse
	if rr.Code == http.StatusOK {
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode channels response: %v", err)
		}
	}
	return resp, rr.Code
}

func TestChannelsDefaultSet(t *testing.T) {
	s := newTestServer(t)
	up := doUpload(t, s, testCSV(200))

	resp, code := getChannels(t, s, "/api/sessions/"+up.Session.ID+"/channels")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.TimeS) != 200 {
		t.Fatalf("time axis has %d points, want 200", len(resp.TimeS))
	}
	for _, name := range defaultChannels {
		ch, ok := resp.Channels[name]
		if !ok {
			t.Errorf("default response missing channel %q", name)
			continue
		}
		if len(ch) != 200 {
			t.Errorf("channel %q has %d points, want 200", name, len(ch))
		}
	}
}

func TestChannelsNamedAndConverted(t *testing.T) {
	s := newTestServer(t)
	up := doUpload(t, s, testCSV(200))

	resp, code := getChannels(t, s,
		"/api/sessions/"+up.Session.ID+"/channels?names=speed,gate_dist&units=kmph")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(resp.Channels))
	}

	speed := resp.Channels["speed"]
	if !speed[0].Valid {
		t.Fatal("speed[0] is undefined")
	}
	want := 40 * 1.609344
	if math.Abs(speed[0].Float64-want) > 1e-9 {
		t.Errorf("speed[0] = %g km/h, want %g", speed[0].Float64, want)
	}
	if resp.Units != "kmph" {
		t.Errorf("units = %q, want kmph", resp.Units)
	}
}

// lapCSV builds a session shuttling along a meridian through the default
// start/finish gate, passing it every 20 seconds. n samples at 10Hz.
func lapCSV(n int) []byte {
	const degPerMeter = 180 / (math.Pi * 6371000)
	cfg := telemetry.DefaultConfig()

	var b bytes.Buffer
	for i := 0; i < n; i++ {
		t := float64(i) * 0.1
		tm := math.Mod(t, 20)
		x := (tm - 10) * 10 // metres from the gate, sweeping through it
		lat := cfg.GateLat + x*degPerMeter
		fmt.Fprintf(&b, "%d,0,0,1,0,0,0,0,0,0,%.12f,%.12f,40.0,1,400,250\n",
			i*100, lat, cfg.GateLon)
	}
	return b.Bytes()
}

func TestChannelsLapWindow(t *testing.T) {
	s := newTestServer(t)
	up := doUpload(t, s, lapCSV(800)) // gate passes near t=10, 30, 50, 70

	if len(up.Laps) != 3 {
		t.Fatalf("got %d laps, want 3", len(up.Laps))
	}

	resp, code := getChannels(t, s, "/api/sessions/"+up.Session.ID+"/channels?lap=2&names=speed")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Lap != 2 {
		t.Errorf("lap = %d, want 2", resp.Lap)
	}
	if len(resp.TimeS) == 0 {
		t.Fatal("empty lap window")
	}
	first, last := resp.TimeS[0], resp.TimeS[len(resp.TimeS)-1]
	if first < 29.5 || first > 30.5 {
		t.Errorf("window starts at %gs, want near 30", first)
	}
	if last < 49.5 || last > 50.5 {
		t.Errorf("window ends at %gs, want near 50", last)
	}
	if len(resp.Channels["speed"]) != len(resp.TimeS) {
		t.Errorf("speed channel length %d != time axis length %d",
			len(resp.Channels["speed"]), len(resp.TimeS))
	}
}

func TestChannelsBadRequests(t *testing.T) {
	s := newTestServer(t)
	up := doUpload(t, s, testCSV(50))
	base := "/api/sessions/" + up.Session.ID + "/channels"

	for name, tc := range map[string]struct {
		url  string
		code int
	}{
		"unknown channel": {base + "?names=bogus", http.StatusBadRequest},
		"bad units":       {base + "?units=furlongs", http.StatusBadRequest},
		"bad lap":         {base + "?lap=zero", http.StatusBadRequest},
		"missing lap":     {base + "?lap=3", http.StatusNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			_, code := getChannels(t, s, tc.url)
			if code != tc.code {
				t.Errorf("status = %d, want %d", code, tc.code)
			}
		})
	}
}

func TestChannelsSurviveCacheEviction(t *testing.T) {
	s := newTestServer(t)
	up := doUpload(t, s, testCSV(100))

	s.mu.Lock()
	delete(s.cache, up.Session.ID)
	s.mu.Unlock()

	resp, code := getChannels(t, s, "/api/sessions/"+up.Session.ID+"/channels?names=speed")
	if code != http.StatusOK {
		t.Fatalf("status after eviction = %d, want 200", code)
	}
	if len(resp.TimeS) != 100 {
		t.Errorf("re-derived time axis has %d points, want 100", len(resp.TimeS))
	}
}

func TestChannelsGoneWithoutDataDir(t *testing.T) {
	s := newTestServer(t)
	s.dataDir = ""
	up := doUpload(t, s, testCSV(50))

	s.mu.Lock()
	delete(s.cache, up.Session.ID)
	s.mu.Unlock()

	_, code := getChannels(t, s, "/api/sessions/"+up.Session.ID+"/channels")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 once the cache entry is gone", code)
	}
}
