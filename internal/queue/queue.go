// Package queue implements the priority-ordered collection of admitted,
// not-yet-dispatched tasks. Pop order is priority descending, then
// earliest deadline, then insertion order, so drains are reproducible.
package queue

import (
	"container/heap"
	"math"

	"github.com/mrtodp/fleetd/pkg/model"
)

// Queue is a priority-ordered multiset of tasks. It enforces no id
// uniqueness (admission does that before inserting) and is not safe for
// concurrent use on its own; the owning scheduler's lock guards it.
type Queue struct {
	items taskHeap
	byID  map[string]*item
	seq   uint64
}

type item struct {
	task  *model.Task
	seq   uint64
	index int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{byID: make(map[string]*item)}
}

// Insert adds a task in O(log n).
func (q *Queue) Insert(task *model.Task) {
	it := &item{task: task, seq: q.seq}
	q.seq++
	q.byID[task.ID] = it
	heap.Push(&q.items, it)
}

// PopMax removes and returns the highest-ordered task, or nil when empty.
func (q *Queue) PopMax() *model.Task {
	if q.items.Len() == 0 {
		return nil
	}
	it := heap.Pop(&q.items).(*item)
	delete(q.byID, it.task.ID)
	return it.task
}

// Peek returns the task PopMax would return, without removing it.
func (q *Queue) Peek() *model.Task {
	if q.items.Len() == 0 {
		return nil
	}
	return q.items[0].task
}

// Len reports the number of queued tasks.
func (q *Queue) Len() int {
	return q.items.Len()
}

// Remove deletes the task with the given id and returns it, or nil if the
// id is not queued. The dispatcher uses this to claim a channel-delivered
// task and to detect that a batch drain consumed it first.
func (q *Queue) Remove(id string) *model.Task {
	it, ok := q.byID[id]
	if !ok {
		return nil
	}
	heap.Remove(&q.items, it.index)
	delete(q.byID, id)
	return it.task
}

// deadlineOrMax treats a missing deadline as infinitely late, so within a
// priority every deadlined task outranks every deadline-free one.
func deadlineOrMax(t *model.Task) int64 {
	if t.Deadline == nil {
		return math.MaxInt64
	}
	return *t.Deadline
}

type taskHeap []*item

func (h taskHeap) Len() int { return len(h) }

// Less keeps the heap root at the task that must pop first: higher
// priority, then earlier deadline, then earlier insertion.
func (h taskHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.task.Priority != b.task.Priority {
		return a.task.Priority > b.task.Priority
	}
	da, db := deadlineOrMax(a.task), deadlineOrMax(b.task)
	if da != db {
		return da < db
	}
	return a.seq < b.seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
