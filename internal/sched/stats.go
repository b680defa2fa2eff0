package sched

import (
	"sync/atomic"

	"github.com/mrtodp/fleetd/pkg/model"
)

// stats aggregates scheduler activity counters. Counters are monotonic
// for the process lifetime; deadlineMisses doubles as the dropped-task
// count since a miss is the only way a task is dropped.
type stats struct {
	scheduled      atomic.Uint64
	dispatched     atomic.Uint64
	assigned       atomic.Uint64
	failed         atomic.Uint64
	deadlineMisses atomic.Uint64
	drained        atomic.Uint64
}

func (s *stats) snapshot() model.Stats {
	return model.Stats{
		Scheduled:      s.scheduled.Load(),
		Dispatched:     s.dispatched.Load(),
		Assigned:       s.assigned.Load(),
		Failed:         s.failed.Load(),
		DeadlineMisses: s.deadlineMisses.Load(),
		Drained:        s.drained.Load(),
	}
}
