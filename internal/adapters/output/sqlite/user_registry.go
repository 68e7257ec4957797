package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS filebot_users (
    user_id    INTEGER PRIMARY KEY,
    created_at TEXT NOT NULL
)`

// UserRegistry struct - Secondary/Driven adapter for the user registry on a local SQLite file
type UserRegistry struct {
	db   *sql.DB
	path string
}

// Open creates or opens the registry database at path. ":memory:" keeps it in process.
func Open(path string) (*UserRegistry, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}

	return &UserRegistry{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (r *UserRegistry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Register inserts id unless already present
func (r *UserRegistry) Register(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO filebot_users (user_id, created_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		id,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("register user %d: %w", id, err)
	}
	return nil
}

// ListAll returns every registered id in ascending order
func (r *UserRegistry) ListAll(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM filebot_users ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// Ping checks the database is reachable
func (r *UserRegistry) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
