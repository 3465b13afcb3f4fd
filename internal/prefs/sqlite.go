package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// Compile-time interface check.
var _ domain.PreferenceStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	id                   INTEGER PRIMARY KEY CHECK (id = 1),
	measurement          TEXT    NOT NULL,
	voice_enabled        INTEGER NOT NULL,
	voice_rate           REAL    NOT NULL,
	voice_pitch          REAL    NOT NULL,
	voice_lang           TEXT    NOT NULL,
	auto_start_timers    INTEGER NOT NULL,
	confidence_threshold REAL    NOT NULL
);`

// SQLiteStore persists preferences in a single-row SQLite table, so
// they survive app restarts.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSQLiteStore opens, creating if needed, the preferences database
// at path. ":memory:" gives a throwaway store.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening preferences db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}
	return &SQLiteStore{db: db, log: log.Named("prefs")}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the stored preferences, or the defaults when the table is
// empty.
func (s *SQLiteStore) Load(ctx context.Context) (domain.Preferences, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT measurement, voice_enabled, voice_rate, voice_pitch, voice_lang,
       auto_start_timers, confidence_threshold
FROM preferences WHERE id = 1`)

	var (
		p           domain.Preferences
		measurement string
	)
	err := row.Scan(&measurement, &p.VoiceEnabled, &p.VoiceRate, &p.VoicePitch,
		&p.VoiceLang, &p.AutoStartTimers, &p.ConfidenceThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultPreferences(), nil
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("loading preferences: %w", err)
	}
	p.Measurement = domain.SystemFromString(measurement)
	return p, nil
}

// Save upserts the single preferences row.
func (s *SQLiteStore) Save(ctx context.Context, p domain.Preferences) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO preferences (id, measurement, voice_enabled, voice_rate, voice_pitch,
                         voice_lang, auto_start_timers, confidence_threshold)
VALUES (1, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	measurement          = excluded.measurement,
	voice_enabled        = excluded.voice_enabled,
	voice_rate           = excluded.voice_rate,
	voice_pitch          = excluded.voice_pitch,
	voice_lang           = excluded.voice_lang,
	auto_start_timers    = excluded.auto_start_timers,
	confidence_threshold = excluded.confidence_threshold`,
		p.Measurement.String(), p.VoiceEnabled, p.VoiceRate, p.VoicePitch,
		p.VoiceLang, p.AutoStartTimers, p.ConfidenceThreshold)
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	s.log.Debug("saved preferences (measurement=%s, voice=%v)", p.Measurement, p.VoiceEnabled)
	return nil
}
