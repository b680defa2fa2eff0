// Package delegate defines the assignment backend boundary. Given a task
// and the robots eligible to run it, a Delegator decides which robot
// executes. The scheduler never hard-codes assignment logic; every policy
// lives behind this interface.
package delegate

import (
	"context"

	"github.com/mrtodp/fleetd/pkg/model"
)

// Delegator picks the executing robot for a task.
type Delegator interface {
	// Assign returns the id of the robot that takes the task. eligible
	// holds the capability-compatible registered robots sorted by id; it
	// may be empty, in which case the backend decides how to fail.
	Assign(ctx context.Context, task *model.Task, eligible []model.Robot) (string, error)
}

// Func adapts a plain function to the Delegator interface.
type Func func(ctx context.Context, task *model.Task, eligible []model.Robot) (string, error)

// Assign implements Delegator.
func (f Func) Assign(ctx context.Context, task *model.Task, eligible []model.Robot) (string, error) {
	return f(ctx, task, eligible)
}
