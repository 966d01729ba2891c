package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/telemetry"
	"github.com/banshee-data/lap.report/internal/units"
)

// defaultChannels is what a channels query returns when no names are asked
// for.
var defaultChannels = []string{"speed", "heading", "yaw_aligned", "slip", "rpm"}

type channelsResponse struct {
	SessionID string                       `json:"session_id"`
	Units     string                       `json:"units"`
	Lap       int                          `json:"lap,omitempty"`
	TimeS     []float64                    `json:"time_s"`
	Channels  map[string]telemetry.Channel `json:"channels"`
}

func (s *Server) getSessionChannels(w http.ResponseWriter, r *http.Request, id string) {
	sd, err := s.sessionData(id)
	if err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to load session data: %v", err))
		return
	}

	query := r.URL.Query()

	targetUnits := s.units
	if u := query.Get("units"); u != "" {
		if !units.IsValid(u) {
			s.writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid 'units' parameter; valid units are: %s", units.GetValidUnitsString()))
			return
		}
		targetUnits = u
	}

	names := defaultChannels
	if n := query.Get("names"); n != "" {
		names = strings.Split(n, ",")
	}

	lo, hi := 0, len(sd.samples)
	lapNum := 0
	if l := query.Get("lap"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'lap' parameter")
			return
		}
		lap, ok := telemetry.FindLap(sd.result.Laps, parsed)
		if !ok {
			s.writeJSONError(w, http.StatusNotFound, "lap not found")
			return
		}
		lapNum = parsed
		lo, hi = lap.Window(len(sd.samples))
	}

	resp := channelsResponse{
		SessionID: id,
		Units:     targetUnits,
		Lap:       lapNum,
		TimeS:     make([]float64, 0, hi-lo),
		Channels:  make(map[string]telemetry.Channel, len(names)),
	}
	for i := lo; i < hi; i++ {
		resp.TimeS = append(resp.TimeS, sd.samples[i].TimeS)
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		ch, ok := channelByName(name, sd)
		if !ok {
			s.writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("Unknown channel %q", name))
			return
		}
		ch = ch[lo:hi]
		if name == "speed" && targetUnits != "mph" {
			ch = convertSpeedChannel(ch, targetUnits)
		}
		resp.Channels[name] = ch
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// channelByName resolves a query name to an input or derived channel, all
// aligned index-for-index with the sample list.
func channelByName(name string, sd *sessionData) (telemetry.Channel, bool) {
	res := sd.result
	switch name {
	case "speed":
		return sampleChannel(sd.samples, func(sm telemetry.Sample) float64 { return sm.SpeedMPH }), true
	case "lat":
		return sampleChannel(sd.samples, func(sm telemetry.Sample) float64 { return sm.Lat }), true
	case "lon":
		return sampleChannel(sd.samples, func(sm telemetry.Sample) float64 { return sm.Lon }), true
	case "yaw":
		return sampleChannel(sd.samples, func(sm telemetry.Sample) float64 { return sm.YawDeg }), true
	case "yaw_aligned":
		return telemetry.DenseChannel(res.YawAlignedDeg), true
	case "yaw_unwrapped":
		return telemetry.DenseChannel(res.YawUnwrapped), true
	case "heading":
		return res.Heading, true
	case "heading_unwrapped":
		return res.HeadingUnwrapped, true
	case "slip":
		return res.Slip, true
	case "rpm":
		return res.RPM, true
	case "rpm_raw":
		return res.RPMRaw, true
	case "accel_x":
		return telemetry.DenseChannel(res.AccelX), true
	case "accel_y":
		return telemetry.DenseChannel(res.AccelY), true
	case "accel_z":
		return telemetry.DenseChannel(res.AccelZ), true
	case "accel_mag":
		return telemetry.DenseChannel(res.AccelMag), true
	case "gate_dist":
		return telemetry.DenseChannel(res.GateDistM), true
	case "throttle":
		ch := telemetry.NewChannel(len(sd.samples))
		for i, sm := range sd.samples {
			ch[i] = sm.ThrottlePct
		}
		return ch, true
	default:
		return nil, false
	}
}

func sampleChannel(samples []telemetry.Sample, field func(telemetry.Sample) float64) telemetry.Channel {
	dense := make([]float64, len(samples))
	for i, sm := range samples {
		dense[i] = field(sm)
	}
	return telemetry.DenseChannel(dense)
}

func convertSpeedChannel(ch telemetry.Channel, targetUnits string) telemetry.Channel {
	out := telemetry.NewChannel(len(ch))
	for i, v := range ch {
		if v.Valid {
			out[i] = telemetry.F(units.ConvertSpeed(v.Float64, targetUnits))
		}
	}
	return out
}
