package journal

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the outcome history.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS task_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id    TEXT NOT NULL,
		task_type  TEXT NOT NULL DEFAULT '',
		robot_id   TEXT NOT NULL DEFAULT '',
		state      TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		priority   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_task_history_task_id ON task_history(task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_history_state ON task_history(state)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
