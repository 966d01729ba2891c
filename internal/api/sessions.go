package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/esplog"
	"github.com/banshee-data/lap.report/internal/monitoring"
	"github.com/banshee-data/lap.report/internal/security"
	"github.com/banshee-data/lap.report/internal/telemetry"
)

// maxUploadBytes caps a single CSV upload. A full day of 50Hz logging is
// well under this.
const maxUploadBytes = 64 << 20

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSessions(w, r)
	case http.MethodPost:
		s.uploadSession(w, r)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "session id is required")
		return
	}

	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.getSession(w, r, id)
		case http.MethodDelete:
			s.deleteSession(w, r, id)
		default:
			s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	case "laps":
		if r.Method != http.MethodGet {
			s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.getSessionLaps(w, r, id)
	case "channels":
		if r.Method != http.MethodGet {
			s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.getSessionChannels(w, r, id)
	default:
		s.writeJSONError(w, http.StatusNotFound, "unknown session resource")
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	sessions, err := s.store.ListSessions(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

type uploadResponse struct {
	Session *db.Session               `json:"session"`
	Laps    []telemetry.Lap           `json:"laps"`
	Align   telemetry.AlignmentResult `json:"alignment"`
}

func (s *Server) uploadSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Failed to parse upload form")
		return
	}

	file, header, err := r.FormFile("logfile")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'logfile' form field")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	samples, err := esplog.Load(bytes.NewReader(raw))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to parse log: %v", err))
		return
	}

	result, err := telemetry.Process(samples, s.cfg)
	if err != nil {
		s.writeJSONError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("Failed to process log: %v", err))
		return
	}

	id := uuid.New().String()
	name := header.Filename
	if name == "" {
		name = id + ".csv"
	}
	name = security.SanitizeFilename(name)

	if s.dataDir != "" {
		if err := s.saveRawLog(id, raw); err != nil {
			monitoring.Logf("failed to save raw log for session %s: %v", id, err)
		}
	}

	session := db.NewSessionSummary(id, name, s.clock.Now(), samples, result)
	if err := s.store.InsertSession(session, result.Laps); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to store session: %v", err))
		return
	}

	s.mu.Lock()
	s.cache[id] = &sessionData{samples: samples, result: result}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, uploadResponse{
		Session: session,
		Laps:    result.Laps,
		Align:   result.Alignment,
	})
}

func (s *Server) saveRawLog(id string, raw []byte) error {
	path := filepath.Join(s.dataDir, id+".csv")
	if err := security.ValidatePathWithinDirectory(path, s.dataDir); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.store.GetSession(id)
	if err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to get session: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) getSessionLaps(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.store.GetSession(id); err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to get session: %v", err))
		return
	}

	laps, err := s.store.SessionLaps(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to get laps: %v", err))
		return
	}
	if laps == nil {
		laps = []telemetry.Lap{}
	}
	s.writeJSON(w, http.StatusOK, laps)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.DeleteSession(id); err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to delete session: %v", err))
		return
	}

	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()

	if s.dataDir != "" {
		path := filepath.Join(s.dataDir, id+".csv")
		if security.ValidatePathWithinDirectory(path, s.dataDir) == nil {
			os.Remove(path)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// SessionData returns the samples and derived channels for a session,
// re-deriving them from the stored CSV when they are not cached. Other
// surfaces (dashboard charts, report rendering) read session data through
// this.
func (s *Server) SessionData(id string) ([]telemetry.Sample, *telemetry.Result, error) {
	sd, err := s.sessionData(id)
	if err != nil {
		return nil, nil, err
	}
	return sd.samples, sd.result, nil
}

// sessionData returns the processed channel data for id, re-deriving it from
// the stored CSV if it has fallen out of the cache.
func (s *Server) sessionData(id string) (*sessionData, error) {
	s.mu.RLock()
	sd, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return sd, nil
	}

	if s.dataDir == "" {
		return nil, db.ErrSessionNotFound
	}
	path := filepath.Join(s.dataDir, id+".csv")
	if err := security.ValidatePathWithinDirectory(path, s.dataDir); err != nil {
		return nil, err
	}
	samples, err := esplog.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, db.ErrSessionNotFound
		}
		return nil, err
	}
	result, err := telemetry.Process(samples, s.cfg)
	if err != nil {
		return nil, err
	}

	sd = &sessionData{samples: samples, result: result}
	s.mu.Lock()
	s.cache[id] = sd
	s.mu.Unlock()
	return sd, nil
}
