package model

// TaskState represents the lifecycle state of a submitted Task.
type TaskState string

const (
	TaskStatePending    TaskState = "PENDING"
	TaskStateDispatched TaskState = "DISPATCHED"
	TaskStateAssigned   TaskState = "ASSIGNED"
	TaskStateFailed     TaskState = "FAILED"
	TaskStateDropped    TaskState = "DROPPED"
)

// String returns the string representation of the task state.
func (s TaskState) String() string {
	return string(s)
}

// IsTerminal returns true if the task is in a final state.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateAssigned, TaskStateFailed, TaskStateDropped:
		return true
	}
	return false
}

// ValidTaskTransitions defines the allowed state transitions for Tasks.
// PENDING can complete directly because the batch drain path assigns
// without passing through DISPATCHED.
var ValidTaskTransitions = map[TaskState][]TaskState{
	TaskStatePending:    {TaskStateDispatched, TaskStateAssigned, TaskStateFailed, TaskStateDropped},
	TaskStateDispatched: {TaskStateAssigned, TaskStateFailed, TaskStateDropped},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	for _, allowed := range ValidTaskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
