// Package journal persists terminal task outcomes. The journal is an
// append-only history for operators; the scheduler core never reads it
// back, and a write failure never fails the scheduling operation that
// produced the outcome.
package journal

import (
	"context"
	"time"

	"github.com/mrtodp/fleetd/pkg/model"
)

// Entry is one recorded task outcome.
type Entry struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	TaskType  string    `json:"task_type,omitempty"`
	RobotID   string    `json:"robot_id,omitempty"`
	State     string    `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	Priority  uint32    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryFrom builds an Entry from a terminal task snapshot.
func EntryFrom(snap model.TaskSnapshot) Entry {
	createdAt := time.Now().UTC()
	if snap.CompletedAt != nil {
		createdAt = snap.CompletedAt.UTC()
	}
	return Entry{
		TaskID:    snap.Task.ID,
		TaskType:  snap.Task.Type,
		RobotID:   snap.Robot,
		State:     snap.State.String(),
		Detail:    snap.Reason,
		Priority:  snap.Task.Priority,
		CreatedAt: createdAt,
	}
}

// Journal defines the outcome history layer.
type Journal interface {
	// Record appends one outcome.
	Record(ctx context.Context, e Entry) error

	// Recent returns outcomes newest-first with the total row count for
	// pagination. opts.State filters by task state when set.
	Recent(ctx context.Context, opts model.ListOptions) ([]Entry, int, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
