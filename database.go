package main

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection. The coordination core never reads
// from it on the hot path; it only receives writes from the analytics writer
// and serves the account tables for auth.
type DB struct {
	conn *sql.DB
}

// AccountRow represents an account record
type AccountRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
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
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		game_type TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		results TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		player_id TEXT NOT NULL DEFAULT '',
		room_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts(username);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	CREATE INDEX IF NOT EXISTS idx_results_game_type ON game_results(game_type);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Errorf("DB migration error: %v", err)
	}
	return err
}

// CreateAccount creates a new account (returns account ID)
func (db *DB) CreateAccount(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO accounts (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAccountByUsername fetches an account, or nil if absent
func (db *DB) GetAccountByUsername(username string) (*AccountRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM accounts WHERE username = ?",
		username,
	)
	var a AccountRow
	if err := row.Scan(&a.ID, &a.Username, &a.PassHash, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// UsernameExists checks whether a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM accounts WHERE username = ?", username).Scan(&n)
	return n > 0, err
}

// GetSetting returns a settings value ("" when unset)
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// InsertEvent persists one analytics event
func (db *DB) InsertEvent(evtType, playerID, roomID string, at time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO events (type, player_id, room_id, created_at) VALUES (?, ?, ?, ?)",
		evtType, playerID, roomID, at,
	)
	return err
}

// InsertGameResult persists a finished room's outcome
func (db *DB) InsertGameResult(roomID, gameType string, durationMs int64, results string) error {
	_, err := db.conn.Exec(
		"INSERT INTO game_results (room_id, game_type, duration_ms, results) VALUES (?, ?, ?, ?)",
		roomID, gameType, durationMs, results,
	)
	return err
}
