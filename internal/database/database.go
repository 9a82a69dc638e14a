// Package database persists the execution history in a local SQLite
// database.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"gitpilot/internal/execution"
)

// DB wraps the SQL database connection.
type DB struct {
	*sql.DB
}

// New opens (or creates) the SQLite database at path and prepares the
// schema. Use ":memory:" for an ephemeral database in tests.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite tolerates one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrapped := &DB{db}
	if err := wrapped.initialize(); err != nil {
		return nil, err
	}

	log.Println("✅ SQLite database ready")
	return wrapped, nil
}

func (db *DB) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		tool TEXT NOT NULL,
		status TEXT NOT NULL,
		args TEXT NOT NULL DEFAULT '{}',
		error_kind TEXT NOT NULL DEFAULT '',
		error_detail TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_executions_tool ON executions(tool);
	CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ExecutionRow is one persisted execution record.
type ExecutionRow struct {
	ID          string         `json:"id"`
	Tool        string         `json:"tool"`
	Status      string         `json:"status"`
	Args        map[string]any `json:"args"`
	ErrorKind   string         `json:"errorKind,omitempty"`
	ErrorDetail string         `json:"errorDetail,omitempty"`
	DurationMS  int64          `json:"durationMs"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// RecordExecution stores an execution result. Implements
// execution.Recorder.
func (db *DB) RecordExecution(ctx context.Context, res *execution.Result) error {
	args, err := json.Marshal(res.Args)
	if err != nil {
		args = []byte("{}")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO executions (id, tool, status, args, error_kind, error_detail, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ExecutionID, res.Tool, string(res.Status), string(args),
		res.ErrorKind, res.ErrorDetail, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// ListRecent returns the most recent executions, newest first. tool may
// be empty to list across all tools.
func (db *DB) ListRecent(ctx context.Context, tool string, limit int) ([]ExecutionRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, tool, status, args, error_kind, error_detail, duration_ms, created_at
		FROM executions`
	queryArgs := []any{}
	if tool != "" {
		query += " WHERE tool = ?"
		queryArgs = append(queryArgs, tool)
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	queryArgs = append(queryArgs, limit)

	rows, err := db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var out []ExecutionRow
	for rows.Next() {
		var row ExecutionRow
		var argsJSON string
		if err := rows.Scan(&row.ID, &row.Tool, &row.Status, &argsJSON,
			&row.ErrorKind, &row.ErrorDetail, &row.DurationMS, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &row.Args); err != nil {
			row.Args = map[string]any{}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountByStatus returns execution counts grouped by status.
func (db *DB) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM executions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Prune deletes records older than the retention window.
func (db *DB) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := db.ExecContext(ctx, `DELETE FROM executions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune executions: %w", err)
	}
	return res.RowsAffected()
}
