package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lap.report/internal/telemetry"
)

// ErrSessionNotFound is returned for lookups of unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Session is the persisted summary of one processed logger session.
type Session struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	SampleCount    int       `json:"sample_count"`
	DurationS      float64   `json:"duration_s"`
	LapCount       int       `json:"lap_count"`
	YawSign        int       `json:"yaw_sign"`
	YawOffsetDeg   float64   `json:"yaw_offset_deg"`
	ResidualStdDeg float64   `json:"residual_std_deg"`
	TrustedSamples int       `json:"trusted_samples"`
	BestLapS       *float64  `json:"best_lap_s"` // nil when the session has no kept laps
	MaxSpeedMPH    float64   `json:"max_speed_mph"`
	P50SpeedMPH    float64   `json:"p50_speed_mph"`
	P85SpeedMPH    float64   `json:"p85_speed_mph"`
}

// NewSessionSummary derives the persisted summary row from a processed
// session. Speed percentiles are over the raw (unsmoothed) speed channel.
func NewSessionSummary(id, name string, createdAt time.Time, samples []telemetry.Sample, result *telemetry.Result) *Session {
	speeds := make([]float64, len(samples))
	for i, s := range samples {
		speeds[i] = s.SpeedMPH
	}
	sort.Float64s(speeds)

	session := &Session{
		ID:             id,
		Name:           name,
		CreatedAt:      createdAt.UTC(),
		SampleCount:    len(samples),
		LapCount:       len(result.Laps),
		YawSign:        result.Alignment.Sign,
		YawOffsetDeg:   result.Alignment.OffsetDeg,
		ResidualStdDeg: result.Alignment.ResidualStdDeg,
		TrustedSamples: result.Alignment.TrustedSamples,
	}
	if len(samples) > 1 {
		session.DurationS = samples[len(samples)-1].TimeS - samples[0].TimeS
	}
	if len(speeds) > 0 {
		session.MaxSpeedMPH = speeds[len(speeds)-1]
		session.P50SpeedMPH = stat.Quantile(0.50, stat.Empirical, speeds, nil)
		session.P85SpeedMPH = stat.Quantile(0.85, stat.Empirical, speeds, nil)
	}
	for _, lap := range result.Laps {
		if session.BestLapS == nil || lap.LapTimeS < *session.BestLapS {
			t := lap.LapTimeS
			session.BestLapS = &t
		}
	}
	return session
}

// InsertSession stores a session summary and its kept laps in one
// transaction.
func (db *DB) InsertSession(s *Session, laps []telemetry.Lap) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var bestLap sql.NullFloat64
	if s.BestLapS != nil {
		bestLap = sql.NullFloat64{Float64: *s.BestLapS, Valid: true}
	}
	_, err = tx.Exec(`
		INSERT INTO sessions (
			id, name, created_at, sample_count, duration_s, lap_count,
			yaw_sign, yaw_offset_deg, residual_std_deg, trusted_samples,
			best_lap_s, max_speed_mph, p50_speed_mph, p85_speed_mph
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.CreatedAt.UTC(), s.SampleCount, s.DurationS, s.LapCount,
		s.YawSign, s.YawOffsetDeg, s.ResidualStdDeg, s.TrustedSamples,
		bestLap, s.MaxSpeedMPH, s.P50SpeedMPH, s.P85SpeedMPH,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, lap := range laps {
		_, err = tx.Exec(`
			INSERT INTO laps (
				session_id, lap, start_idx, end_idx, start_time, end_time, lap_time_s
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, lap.Lap, lap.StartIdx, lap.EndIdx, lap.StartTime, lap.EndTime, lap.LapTimeS,
		)
		if err != nil {
			return fmt.Errorf("failed to insert lap %d: %w", lap.Lap, err)
		}
	}

	return tx.Commit()
}

// ListSessions returns stored session summaries, most recent first.
func (db *DB) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(sessionSelect+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession looks up one session summary by ID.
func (db *DB) GetSession(id string) (*Session, error) {
	rows, err := db.Query(sessionSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}
	s, err := scanSession(rows)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SessionLaps returns the kept laps of a session in lap order.
func (db *DB) SessionLaps(id string) ([]telemetry.Lap, error) {
	rows, err := db.Query(`
		SELECT lap, start_idx, end_idx, start_time, end_time, lap_time_s
		FROM laps WHERE session_id = ? ORDER BY lap`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query laps: %w", err)
	}
	defer rows.Close()

	var laps []telemetry.Lap
	for rows.Next() {
		var lap telemetry.Lap
		if err := rows.Scan(&lap.Lap, &lap.StartIdx, &lap.EndIdx,
			&lap.StartTime, &lap.EndTime, &lap.LapTimeS); err != nil {
			return nil, err
		}
		laps = append(laps, lap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return laps, nil
}

// DeleteSession removes a session and (through the foreign key cascade) its
// laps.
func (db *DB) DeleteSession(id string) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

const sessionSelect = `
	SELECT id, name, created_at, sample_count, duration_s, lap_count,
	       yaw_sign, yaw_offset_deg, residual_std_deg, trusted_samples,
	       best_lap_s, max_speed_mph, p50_speed_mph, p85_speed_mph
	FROM sessions`

func scanSession(rows *sql.Rows) (Session, error) {
	var s Session
	var bestLap sql.NullFloat64
	if err := rows.Scan(
		&s.ID, &s.Name, &s.CreatedAt, &s.SampleCount, &s.DurationS, &s.LapCount,
		&s.YawSign, &s.YawOffsetDeg, &s.ResidualStdDeg, &s.TrustedSamples,
		&bestLap, &s.MaxSpeedMPH, &s.P50SpeedMPH, &s.P85SpeedMPH,
	); err != nil {
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	if bestLap.Valid {
		s.BestLapS = &bestLap.Float64
	}
	return s, nil
}
