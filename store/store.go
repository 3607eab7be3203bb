// Package store persists pilots, finished runs and server settings in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNameTaken = errors.New("pilot name already taken")

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PilotRow represents a registered pilot
type PilotRow struct {
	ID        int64
	Name      string
	PassHash  string
	CreatedAt time.Time
}

// RunRow represents one finished life of a hero
type RunRow struct {
	ID         string
	PilotID    int64 // 0 for anonymous runs
	Score      int
	Kills      int
	ShotsFired int
	Pickups    int
	Duration   float64 // seconds
	Weapon     string  // primary weapon at the end of the run
	CreatedAt  time.Time
}

// ScoreEntry is one row of the leaderboard
type ScoreEntry struct {
	Rank     int     `json:"rank"`
	Pilot    string  `json:"pilot"`
	Score    int     `json:"score"`
	Kills    int     `json:"kills"`
	Duration float64 `json:"dur"`
	Weapon   string  `json:"weapon"`
}

// Open opens (or creates) the SQLite database
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL lets the leaderboard read while sessions write
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pilots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		pilot_id INTEGER REFERENCES pilots(id),
		score INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		shots INTEGER NOT NULL DEFAULT 0,
		pickups INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		weapon TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_pilot ON runs(pilot_id);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePilot registers a pilot and returns its ID
func (db *DB) CreatePilot(name, passHash string) (int64, error) {
	taken, err := db.NameExists(name)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, fmt.Errorf("create pilot %q: %w", name, ErrNameTaken)
	}
	res, err := db.conn.Exec(
		"INSERT INTO pilots (name, pass_hash) VALUES (?, ?)",
		name, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPilotByName returns a pilot by name, or nil if there is none
func (db *DB) GetPilotByName(name string) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, pass_hash, created_at FROM pilots WHERE name = ?",
		name,
	)
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Name, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPilotByID returns a pilot by ID, or nil if there is none
func (db *DB) GetPilotByID(id int64) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, pass_hash, created_at FROM pilots WHERE id = ?",
		id,
	)
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Name, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// NameExists checks if a pilot name is taken
func (db *DB) NameExists(name string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pilots WHERE name = ?", name).Scan(&count)
	return count > 0, err
}

// RecordRun stores a finished run and returns its generated ID
func (db *DB) RecordRun(r RunRow) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	var pilot interface{}
	if r.PilotID != 0 {
		pilot = r.PilotID
	}
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, pilot_id, score, kills, shots, pickups, duration, weapon)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, pilot, r.Score, r.Kills, r.ShotsFired, r.Pickups, r.Duration, r.Weapon,
	)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// RunsForPilot returns a pilot's most recent runs
func (db *DB) RunsForPilot(pilotID int64, limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, pilot_id, score, kills, shots, pickups, duration, weapon, created_at
		FROM runs
		WHERE pilot_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		pilotID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.PilotID, &r.Score, &r.Kills, &r.ShotsFired, &r.Pickups, &r.Duration, &r.Weapon, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// TopRuns returns the best runs by score. Anonymous runs show an empty pilot.
func (db *DB) TopRuns(limit int) ([]ScoreEntry, error) {
	rows, err := db.conn.Query(`
		SELECT COALESCE(p.name, ''), r.score, r.kills, r.duration, r.weapon
		FROM runs r LEFT JOIN pilots p ON p.id = r.pilot_id
		ORDER BY r.score DESC, r.duration ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScoreEntry
	rank := 1
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.Pilot, &e.Score, &e.Kills, &e.Duration, &e.Weapon); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetSetting returns a stored setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE name = ?", key).Scan(&value)
	if err != nil && err != sql.ErrNoRows {
		log.Printf("DB get setting %s: %v", key, err)
	}
	return value
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
