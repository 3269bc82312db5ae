package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/pkg/habit"
	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"
)

// Store keeps each user's collection as a JSON value in a key-value table.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_txlock=immediate&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes read-modify-write transactions.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			user_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			key_hash TEXT PRIMARY KEY,
			user_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			user_id TEXT PRIMARY KEY,
			token TEXT NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func readHabits(q querier, userID string) ([]habit.Habit, error) {
	out := []habit.Habit{}
	var raw string
	err := q.QueryRow(`SELECT value FROM kv WHERE user_id = ? AND key = ?`,
		storage.UserOrDefault(userID), storage.HabitsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode habits: %w", err)
	}
	return out, nil
}

func writeHabits(q querier, userID string, habits []habit.Habit) error {
	if habits == nil {
		habits = []habit.Habit{}
	}
	val, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("encode habits: %w", err)
	}
	_, err = q.Exec(`INSERT INTO kv (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		storage.UserOrDefault(userID), storage.HabitsKey, string(val))
	return err
}

func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	return readHabits(s.db, userID)
}

func (s *Store) ReplaceHabits(userID string, habits []habit.Habit) error {
	return writeHabits(s.db, userID, habits)
}

func (s *Store) UpdateHabits(userID string, fn storage.UpdateFunc) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current, err := readHabits(tx, userID)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := writeHabits(tx, userID, next); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO api_keys (key_hash, user_id) VALUES (?, ?)`, keyHash, userID)
	return err
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	err := s.db.QueryRow(`SELECT user_id FROM api_keys WHERE key_hash = ?`, keyHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key_hash FROM api_keys WHERE user_id = ? ORDER BY key_hash`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	_, err := s.db.Exec(`DELETE FROM api_keys WHERE key_hash = ?`, keyHash)
	return err
}

func (s *Store) PutRefreshToken(userID string, tok *oauth2.Token) error {
	val, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO refresh_tokens (user_id, token) VALUES (?, ?)`, userID, string(val))
	return err
}

func (s *Store) GetRefreshToken(userID string) (*oauth2.Token, bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT token FROM refresh_tokens WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal([]byte(raw), tok); err != nil {
		return nil, false, err
	}
	return tok, true, nil
}

func (s *Store) DeleteRefreshToken(userID string) error {
	_, err := s.db.Exec(`DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	return err
}

var _ storage.Store = (*Store)(nil)
