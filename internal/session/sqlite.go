package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kaiwa/internal/models"
)

// SQLiteStore persists sessions in a SQLite database so history survives restarts.
// Turn order is the insertion sequence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS turns (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session_seq ON turns(session_id, seq);
	`
	_, err := db.Exec(schema)
	return err
}

// GetOrCreate implements Store.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = NewID()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)`, id, time.Now(),
	); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, id string, turn models.Turn) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)`, id, now,
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		id, string(turn.Role), turn.Content, now,
	); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return tx.Commit()
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, id string, window int) ([]models.Turn, error) {
	if window <= 0 {
		return []models.Turn{}, nil
	}
	return s.queryTurns(ctx,
		`SELECT role, content FROM (
			SELECT seq, role, content FROM turns WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		id, window,
	)
}

// History implements Store.
func (s *SQLiteStore) History(ctx context.Context, id string) ([]models.Turn, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, models.NewError(models.ErrSessionNotFound, "history", fmt.Errorf("id %q", id))
	}
	return s.queryTurns(ctx,
		`SELECT role, content FROM turns WHERE session_id = ? ORDER BY seq ASC`, id)
}

func (s *SQLiteStore) queryTurns(ctx context.Context, query string, args ...interface{}) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]models.Turn, 0)
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		turns = append(turns, models.Turn{Role: models.Role(role), Content: content})
	}
	return turns, rows.Err()
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
