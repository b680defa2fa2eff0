package model

import (
	"fmt"
	"time"
)

// PayloadSize is the required length of a task's parameter vector. The
// robot command protocol carries exactly five numeric arguments per task;
// any other shape fails validation at admission.
const PayloadSize = 5

// Task is a unit of work submitted to the scheduler. Tasks are immutable
// after admission; only their lifecycle state changes, and that lives in
// the TaskSnapshot, not here.
type Task struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// Priority orders dispatch; higher is more urgent. Zero is rejected,
	// but only when the task is drained, not at admission.
	Priority uint32 `json:"priority"`

	// Deadline is an absolute timestamp in milliseconds since the Unix
	// epoch. Nil means the task never expires. Deadlines are evaluated at
	// dispatch time only; an expired task is dropped, not assigned.
	Deadline *int64 `json:"deadline,omitempty"`

	// TargetRobot pins the task to a specific robot. Admission verifies
	// the robot exists and covers RequiredCapabilities. Empty means any
	// eligible robot may take the task.
	TargetRobot string `json:"target_robot,omitempty"`

	RequiredCapabilities []string `json:"required_capabilities,omitempty"`

	// Payload is the command parameter vector, always PayloadSize long.
	Payload []float64 `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// DeadlineTime returns the deadline as a time.Time and whether one is set.
func (t *Task) DeadlineTime() (time.Time, bool) {
	if t.Deadline == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*t.Deadline), true
}

// DeadlineExceeded reports whether the task's deadline has passed at now.
// Tasks without a deadline never expire.
func (t *Task) DeadlineExceeded(now time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	return now.UnixMilli() > *t.Deadline
}

// Validate checks the submission-time contract: a non-empty id and a
// payload of exactly PayloadSize parameters. Priority zero is deliberately
// not checked here; the drain path rejects it instead.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}
	if len(t.Payload) != PayloadSize {
		return &PayloadSizeError{Got: len(t.Payload)}
	}
	return nil
}

// TaskSnapshot is the externally visible record of a submitted task: the
// task itself plus its current lifecycle state. Snapshots returned by the
// scheduler are copies; mutating one has no effect on the scheduler.
type TaskSnapshot struct {
	Task  Task      `json:"task"`
	State TaskState `json:"state"`

	// Robot is the assignee once State is ASSIGNED.
	Robot string `json:"robot,omitempty"`

	// Reason carries the failure or drop explanation for terminal
	// FAILED/DROPPED states.
	Reason string `json:"reason,omitempty"`

	SubmittedAt  time.Time  `json:"submitted_at"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// AssignmentRecord confirms a single assignment made by the batch drain
// path. A successful drain returns these in the order the tasks were
// popped, highest priority first.
type AssignmentRecord struct {
	TaskID  string `json:"task_id"`
	RobotID string `json:"robot_id"`
}

// String renders the confirmation in the fleet log format.
func (r AssignmentRecord) String() string {
	return fmt.Sprintf("Task %s assigned to %s", r.TaskID, r.RobotID)
}
