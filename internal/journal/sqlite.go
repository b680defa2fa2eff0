package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrtodp/fleetd/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) a SQLite database at dbPath and returns a
// Journal. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLite(dbPath string, logger *slog.Logger) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL keeps history reads from blocking outcome writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteJournal{
		db:     db,
		logger: logger.With("component", "journal"),
	}, nil
}

// Close closes the underlying database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// Migrate creates all required tables and indexes.
func (j *SQLiteJournal) Migrate(ctx context.Context) error {
	j.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, j.db)
}

// Record appends one outcome row.
func (j *SQLiteJournal) Record(ctx context.Context, e Entry) error {
	j.logger.Debug("sql", "op", "insert", "table", "task_history", "task_id", e.TaskID)

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO task_history (task_id, task_type, robot_id, state, detail, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TaskID, e.TaskType, e.RobotID, e.State, e.Detail, e.Priority,
		createdAt.Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns outcomes newest-first plus the total row count.
func (j *SQLiteJournal) Recent(ctx context.Context, opts model.ListOptions) ([]Entry, int, error) {
	opts.Clamp()
	j.logger.Debug("sql", "op", "select", "table", "task_history", "limit", opts.Limit, "offset", opts.Offset)

	countQuery := `SELECT COUNT(*) FROM task_history`
	listQuery := `SELECT id, task_id, task_type, robot_id, state, detail, priority, created_at
	 FROM task_history`
	var args []any
	if opts.State != "" {
		countQuery += ` WHERE state = ?`
		listQuery += ` WHERE state = ?`
		args = append(args, opts.State)
	}
	listQuery += ` ORDER BY id DESC LIMIT ? OFFSET ?`

	var total int
	if err := j.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := j.db.QueryContext(ctx, listQuery, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.TaskType, &e.RobotID, &e.State, &e.Detail, &e.Priority, &createdAt); err != nil {
			return nil, 0, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
