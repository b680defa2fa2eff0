// Package sched implements the fleet scheduler core: admission control,
// the priority queue, the bounded dispatch channel, and the synchronous
// batch drain path. A Scheduler instance is explicitly constructed and
// owned by its caller; there is no package-level state.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mrtodp/fleetd/internal/delegate"
	"github.com/mrtodp/fleetd/internal/journal"
	"github.com/mrtodp/fleetd/internal/queue"
	"github.com/mrtodp/fleetd/internal/registry"
	"github.com/mrtodp/fleetd/pkg/model"
)

// Config holds scheduler configuration.
type Config struct {
	// ChannelCapacity bounds the dispatch channel. Admission blocks while
	// the channel is full; that backpressure is the only overflow policy.
	ChannelCapacity int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{ChannelCapacity: 100}
}

// Scheduler owns admission, status, and the batch drain. The scheduler
// lock guards the queue and the snapshot table; the capability registry
// carries its own lock and is always acquired and released before the
// scheduler lock, never inside it.
type Scheduler struct {
	registry *registry.Registry
	delegate delegate.Delegator
	journal  journal.Journal
	config   Config
	logger   *slog.Logger

	mu        sync.Mutex
	queue     *queue.Queue
	snapshots map[string]*model.TaskSnapshot

	dispatchCh chan *model.Task
	stats      stats
}

// New creates a scheduler. jrnl may be nil if outcome journaling is not
// wanted.
func New(reg *registry.Registry, d delegate.Delegator, jrnl journal.Journal, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = DefaultConfig().ChannelCapacity
	}
	return &Scheduler{
		registry:   reg,
		delegate:   d,
		journal:    jrnl,
		config:     cfg,
		logger:     logger.With("component", "scheduler"),
		queue:      queue.New(),
		snapshots:  make(map[string]*model.TaskSnapshot),
		dispatchCh: make(chan *model.Task, cfg.ChannelCapacity),
	}
}

// RegisterRobot adds a robot to the capability registry.
func (s *Scheduler) RegisterRobot(robot model.Robot) error {
	if err := s.registry.Register(robot); err != nil {
		return err
	}
	s.logger.Info("robot registered", "robot", robot.ID, "capabilities", robot.Capabilities)
	return nil
}

// Robots lists the registered fleet sorted by id.
func (s *Scheduler) Robots() []model.Robot {
	return s.registry.List()
}

// Robot looks up a single registered robot.
func (s *Scheduler) Robot(id string) (model.Robot, error) {
	return s.registry.Get(id)
}

// Schedule admits a task. Admission validates the submission, checks the
// target robot's capabilities, inserts into the queue, and performs a
// blocking send on the dispatch channel. A full channel makes the call
// wait; cancelling ctx abandons the wait and rolls the insert back, so a
// failed admission never leaves partial state. The returned snapshot is
// the admission ack (state PENDING).
func (s *Scheduler) Schedule(ctx context.Context, task *model.Task) (model.TaskSnapshot, error) {
	if err := task.Validate(); err != nil {
		return model.TaskSnapshot{}, err
	}

	// Registry before scheduler lock, and never both at once.
	if task.TargetRobot != "" {
		target, err := s.registry.Get(task.TargetRobot)
		if err != nil {
			return model.TaskSnapshot{}, err
		}
		if missing := target.MissingCapabilities(task.RequiredCapabilities); len(missing) > 0 {
			return model.TaskSnapshot{}, &model.CapabilityError{RobotID: target.ID, Missing: missing}
		}
	}

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	if snap, ok := s.snapshots[task.ID]; ok && !snap.State.IsTerminal() {
		s.mu.Unlock()
		return model.TaskSnapshot{}, &model.DuplicateTaskError{ID: task.ID}
	}
	s.queue.Insert(task)
	snap := &model.TaskSnapshot{
		Task:        *task,
		State:       model.TaskStatePending,
		SubmittedAt: time.Now().UTC(),
	}
	s.snapshots[task.ID] = snap
	ack := *snap
	s.mu.Unlock()

	select {
	case s.dispatchCh <- task:
	case <-ctx.Done():
		// Undo the insert unless a drain consumed the task while we were
		// waiting for channel room.
		s.mu.Lock()
		if s.queue.Remove(task.ID) != nil {
			delete(s.snapshots, task.ID)
		}
		s.mu.Unlock()
		return model.TaskSnapshot{}, ctx.Err()
	}

	s.stats.scheduled.Add(1)
	s.logger.Info("task admitted", "task", task.ID, "priority", task.Priority)
	return ack, nil
}

// Status returns a copy of the task's current snapshot. Reads are
// linearizable with admission: once Schedule has returned, Status sees at
// least the PENDING state.
func (s *Scheduler) Status(id string) (model.TaskSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return model.TaskSnapshot{}, false
	}
	return *snap, true
}

// QueueDepth reports the number of queued, not-yet-dispatched tasks.
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// DrainAndProcess synchronously pops every queued task in priority order
// and assigns each through the backend, bypassing the dispatch channel.
// The scheduler lock is held across the whole loop, including the backend
// calls, so concurrent admissions wait and the drain owns one consistent
// queue. A zero-priority pop aborts with ErrZeroPriority; a backend error
// aborts with that error verbatim. Tasks popped before an abort stay
// consumed; there is no rollback. On success the assignment confirmations
// come back in pop order.
func (s *Scheduler) DrainAndProcess(ctx context.Context) ([]model.AssignmentRecord, error) {
	// Fleet snapshot up front: drain must not touch the registry lock
	// while holding the scheduler lock.
	fleet := s.registry.List()

	s.mu.Lock()
	records, outcomes, err := s.drainLoop(ctx, fleet)
	s.mu.Unlock()

	for _, snap := range outcomes {
		s.journalOutcome(ctx, snap)
	}
	return records, err
}

// drainLoop runs the drain with the scheduler lock held by the caller.
func (s *Scheduler) drainLoop(ctx context.Context, fleet []model.Robot) ([]model.AssignmentRecord, []model.TaskSnapshot, error) {
	var records []model.AssignmentRecord
	var outcomes []model.TaskSnapshot

	for {
		task := s.queue.PopMax()
		if task == nil {
			return records, outcomes, nil
		}
		snap := s.snapshots[task.ID]

		if task.Priority == 0 {
			s.completeLocked(snap, model.TaskStateFailed, "", model.ErrZeroPriority.Error())
			outcomes = append(outcomes, *snap)
			s.logger.Warn("drain aborted on zero-priority task", "task", task.ID)
			return records, outcomes, model.ErrZeroPriority
		}

		robotID, err := s.delegate.Assign(ctx, task, eligibleFromFleet(fleet, task))
		if err != nil {
			s.completeLocked(snap, model.TaskStateFailed, "", err.Error())
			outcomes = append(outcomes, *snap)
			s.logger.Error("drain aborted on assignment failure", "task", task.ID, "error", err)
			return records, outcomes, err
		}

		s.completeLocked(snap, model.TaskStateAssigned, robotID, "")
		s.stats.drained.Add(1)
		outcomes = append(outcomes, *snap)
		records = append(records, model.AssignmentRecord{TaskID: task.ID, RobotID: robotID})
		s.logger.Info("task assigned (drain)", "task", task.ID, "robot", robotID)
	}
}

// Stats returns a point-in-time counter snapshot.
func (s *Scheduler) Stats() model.Stats {
	st := s.stats.snapshot()
	st.QueueDepth = s.QueueDepth()
	return st
}

// claim removes a channel-delivered task from the queue and marks it
// DISPATCHED. It returns false when the task is no longer queued, meaning
// a batch drain already consumed it and the dispatcher must skip it.
func (s *Scheduler) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Remove(id) == nil {
		return false
	}
	snap := s.snapshots[id]
	now := time.Now().UTC()
	snap.State = model.TaskStateDispatched
	snap.DispatchedAt = &now
	s.stats.dispatched.Add(1)
	return true
}

// complete records a terminal state for a task and returns a copy of the
// final snapshot for journaling.
func (s *Scheduler) complete(id string, state model.TaskState, robot, reason string) model.TaskSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return model.TaskSnapshot{}
	}
	s.completeLocked(snap, state, robot, reason)
	return *snap
}

// completeLocked applies a terminal transition and bumps the matching
// counter. Caller holds the scheduler lock.
func (s *Scheduler) completeLocked(snap *model.TaskSnapshot, state model.TaskState, robot, reason string) {
	now := time.Now().UTC()
	snap.State = state
	snap.Robot = robot
	snap.Reason = reason
	snap.CompletedAt = &now

	switch state {
	case model.TaskStateAssigned:
		s.stats.assigned.Add(1)
	case model.TaskStateFailed:
		s.stats.failed.Add(1)
	case model.TaskStateDropped:
		s.stats.deadlineMisses.Add(1)
	}
}

// eligibleFor resolves the robots the backend may pick from: the target
// robot when the task pins one, else every capability-compatible
// registered robot. Called without the scheduler lock held.
func (s *Scheduler) eligibleFor(task *model.Task) []model.Robot {
	if task.TargetRobot != "" {
		robot, err := s.registry.Get(task.TargetRobot)
		if err != nil {
			return nil
		}
		return []model.Robot{robot}
	}
	return s.registry.Eligible(task.RequiredCapabilities)
}

// eligibleFromFleet mirrors eligibleFor against a pre-read fleet
// snapshot, for the drain path where the registry must not be consulted
// under the scheduler lock.
func eligibleFromFleet(fleet []model.Robot, task *model.Task) []model.Robot {
	if task.TargetRobot != "" {
		for _, robot := range fleet {
			if robot.ID == task.TargetRobot {
				return []model.Robot{robot}
			}
		}
		return nil
	}
	var eligible []model.Robot
	for _, robot := range fleet {
		if robot.HasCapabilities(task.RequiredCapabilities) {
			eligible = append(eligible, robot)
		}
	}
	return eligible
}

// journalOutcome appends a terminal snapshot to the journal, best effort.
// Journal failures are logged, never surfaced to scheduling callers.
func (s *Scheduler) journalOutcome(ctx context.Context, snap model.TaskSnapshot) {
	if s.journal == nil || snap.Task.ID == "" {
		return
	}
	if err := s.journal.Record(ctx, journal.EntryFrom(snap)); err != nil {
		s.logger.Error("journal write failed", "task", snap.Task.ID, "error", err)
	}
}
