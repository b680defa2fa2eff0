package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrtodp/fleetd/pkg/model"
)

// Dispatcher is the single consumer of the scheduler's dispatch channel.
// It applies the deadline drop policy and forwards surviving tasks to the
// assignment backend. Exactly one Dispatcher runs per Scheduler; the
// channel, not the Dispatcher, is what admission blocks on.
type Dispatcher struct {
	sched  *Scheduler
	logger *slog.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewDispatcher creates a dispatcher for the scheduler's channel.
func NewDispatcher(s *Scheduler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sched:  s,
		logger: logger.With("component", "dispatcher"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start consumes the dispatch channel. Blocks until ctx is cancelled or
// Stop is called.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("dispatcher started", "channel_capacity", cap(d.sched.dispatchCh))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping (context cancelled)")
			close(d.doneCh)
			return ctx.Err()
		case <-d.stopCh:
			d.logger.Info("dispatcher stopping (stop called)")
			close(d.doneCh)
			return nil
		case task := <-d.sched.dispatchCh:
			d.dispatchOne(ctx, task)
		}
	}
}

// Stop gracefully shuts down the dispatcher and waits for the in-flight
// task to finish.
func (d *Dispatcher) Stop() error {
	close(d.stopCh)
	<-d.doneCh
	return nil
}

// dispatchOne claims, deadline-checks, and assigns a single task. No
// scheduler lock is held across the backend call.
func (d *Dispatcher) dispatchOne(ctx context.Context, task *model.Task) {
	if !d.sched.claim(task.ID) {
		// A batch drain consumed the task before it arrived here.
		d.logger.Debug("task no longer queued, skipping", "task", task.ID)
		return
	}

	now := time.Now().UTC()
	if task.DeadlineExceeded(now) {
		late := now.UnixMilli() - *task.Deadline
		d.logger.Warn("task missed deadline", "task", task.ID, "late_ms", late)
		snap := d.sched.complete(task.ID, model.TaskStateDropped, "", fmt.Sprintf("missed deadline by %dms", late))
		d.sched.journalOutcome(ctx, snap)
		return
	}

	eligible := d.sched.eligibleFor(task)
	robotID, err := d.sched.delegate.Assign(ctx, task, eligible)
	if err != nil {
		d.logger.Error("assignment failed", "task", task.ID, "error", err)
		snap := d.sched.complete(task.ID, model.TaskStateFailed, "", err.Error())
		d.sched.journalOutcome(ctx, snap)
		return
	}

	d.logger.Info("task assigned", "task", task.ID, "robot", robotID)
	snap := d.sched.complete(task.ID, model.TaskStateAssigned, robotID, "")
	d.sched.journalOutcome(ctx, snap)
}
