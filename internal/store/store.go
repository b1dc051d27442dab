// Package store persists tuning sessions and piano profiles in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fehrm/attune/internal/tuning"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		a4_reference REAL NOT NULL,
		piano_offset_cents REAL NOT NULL DEFAULT 0,
		current_note_index INTEGER NOT NULL DEFAULT 0,
		created_at REAL NOT NULL,
		updated_at REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS completed_notes (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		note TEXT NOT NULL,
		final_cents REAL NOT NULL,
		completed_at REAL NOT NULL,
		PRIMARY KEY (session_id, position)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		created_at REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profile_notes (
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		midi INTEGER NOT NULL,
		frequency REAL NOT NULL,
		cents REAL NOT NULL,
		measured_at REAL NOT NULL,
		PRIMARY KEY (profile_id, idx)
	);
`

// Store reads and writes the attune database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the per-user database path, honoring XDG_DATA_HOME.
func DefaultDBPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "attune", "attune.sqlite")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "attune", "attune.sqlite")
}

// Open opens (and if necessary creates) the database with WAL enabled.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession upserts the session and rewrites its completed notes.
func (s *Store) SaveSession(sess *tuning.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save session: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, mode, a4_reference, piano_offset_cents, current_note_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			a4_reference = excluded.a4_reference,
			piano_offset_cents = excluded.piano_offset_cents,
			current_note_index = excluded.current_note_index,
			updated_at = excluded.updated_at
	`, sess.ID, string(sess.Mode), sess.A4Reference, sess.PianoOffsetCents,
		sess.CurrentNoteIndex, unixFromTime(sess.CreatedAt), unixFromTime(sess.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM completed_notes WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear completed notes: %w", err)
	}
	for i, note := range sess.CompletedNotes {
		_, err := tx.Exec(`
			INSERT INTO completed_notes (session_id, position, note, final_cents, completed_at)
			VALUES (?, ?, ?, ?, ?)
		`, sess.ID, i, note.Note, note.FinalCents, unixFromTime(note.Timestamp))
		if err != nil {
			return fmt.Errorf("insert completed note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// LoadSession loads one session with its completed notes, or nil when the id
// is unknown.
func (s *Store) LoadSession(id string) (*tuning.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, mode, a4_reference, piano_offset_cents, current_note_index, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := s.loadCompletedNotes(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// LoadMostRecentIncomplete returns the newest session whose cursor has not
// reached the last key, or nil when none exists.
func (s *Store) LoadMostRecentIncomplete() (*tuning.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, mode, a4_reference, piano_offset_cents, current_note_index, created_at, updated_at
		FROM sessions
		WHERE current_note_index < ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, tuning.NoteCount)
	sess, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := s.loadCompletedNotes(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ListSessions returns all sessions, most recently created first, without
// their completed-note lists.
func (s *Store) ListSessions() ([]*tuning.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, mode, a4_reference, piano_offset_cents, current_note_index, created_at, updated_at
		FROM sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*tuning.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// loadCompletedNotes fills in the session's completion list.
func (s *Store) loadCompletedNotes(sess *tuning.Session) error {
	rows, err := s.db.Query(`
		SELECT note, final_cents, completed_at
		FROM completed_notes
		WHERE session_id = ?
		ORDER BY position ASC
	`, sess.ID)
	if err != nil {
		return fmt.Errorf("query completed notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var note tuning.CompletedNote
		var completedAt float64
		if err := rows.Scan(&note.Note, &note.FinalCents, &completedAt); err != nil {
			return fmt.Errorf("scan completed note: %w", err)
		}
		note.Timestamp = timeFromUnix(completedAt)
		sess.CompletedNotes = append(sess.CompletedNotes, note)
	}
	return rows.Err()
}

// SaveProfile upserts a profile and rewrites its measurements.
func (s *Store) SaveProfile(p *tuning.PianoProfile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save profile: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO profiles (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, p.ID, unixFromTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM profile_notes WHERE profile_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear profile notes: %w", err)
	}
	for idx, note := range p.Notes {
		if note == nil {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO profile_notes (profile_id, idx, midi, frequency, cents, measured_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, idx, note.Midi, note.Frequency, note.Cents, unixFromTime(note.MeasuredAt))
		if err != nil {
			return fmt.Errorf("insert profile note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

// LoadMostRecentProfile returns the newest profile, or nil when none exists.
func (s *Store) LoadMostRecentProfile() (*tuning.PianoProfile, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at
		FROM profiles
		ORDER BY created_at DESC
		LIMIT 1
	`)

	p := &tuning.PianoProfile{}
	var createdAt float64
	if err := row.Scan(&p.ID, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.CreatedAt = timeFromUnix(createdAt)

	rows, err := s.db.Query(`
		SELECT idx, midi, frequency, cents, measured_at
		FROM profile_notes
		WHERE profile_id = ?
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("query profile notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx int
		note := &tuning.ProfiledNote{}
		var measuredAt float64
		if err := rows.Scan(&idx, &note.Midi, &note.Frequency, &note.Cents, &measuredAt); err != nil {
			return nil, fmt.Errorf("scan profile note: %w", err)
		}
		note.MeasuredAt = timeFromUnix(measuredAt)
		if idx >= 0 && idx < tuning.NoteCount {
			p.Notes[idx] = note
		}
	}
	return p, rows.Err()
}

// Reset deletes every session and profile.
func (s *Store) Reset() error {
	for _, stmt := range []string{
		`DELETE FROM completed_notes`,
		`DELETE FROM profile_notes`,
		`DELETE FROM sessions`,
		`DELETE FROM profiles`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*tuning.Session, error) {
	sess := &tuning.Session{}
	var mode string
	var createdAt, updatedAt float64
	if err := row.Scan(&sess.ID, &mode, &sess.A4Reference, &sess.PianoOffsetCents,
		&sess.CurrentNoteIndex, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Mode = tuning.Mode(mode)
	sess.CreatedAt = timeFromUnix(createdAt)
	sess.UpdatedAt = timeFromUnix(updatedAt)
	return sess, nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
