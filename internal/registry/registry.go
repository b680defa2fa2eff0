// Package registry tracks the fleet's declared robot capabilities.
// Registrations are write-once: a robot id is accepted exactly once and
// its capability set never changes for the registry's lifetime.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/mrtodp/fleetd/pkg/model"
)

// Registry is a concurrency-safe robot directory guarded by its own lock.
// Callers that also need the scheduler lock must finish with the registry
// before acquiring it; nothing in this package calls back out while
// holding the lock.
type Registry struct {
	mu     sync.RWMutex
	robots map[string]model.Robot
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{robots: make(map[string]model.Robot)}
}

// Register stores a robot's capability declaration. Re-registering an id
// fails with DuplicateRobotError rather than overwriting.
func (r *Registry) Register(robot model.Robot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.robots[robot.ID]; exists {
		return &model.DuplicateRobotError{ID: robot.ID}
	}

	caps := make([]string, len(robot.Capabilities))
	copy(caps, robot.Capabilities)
	sort.Strings(caps)
	robot.Capabilities = caps

	if robot.RegisteredAt.IsZero() {
		robot.RegisteredAt = time.Now().UTC()
	}

	r.robots[robot.ID] = robot
	return nil
}

// Get returns the registered robot or UnknownRobotError.
func (r *Registry) Get(id string) (model.Robot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	robot, ok := r.robots[id]
	if !ok {
		return model.Robot{}, &model.UnknownRobotError{ID: id}
	}
	return robot, nil
}

// CapabilitiesOf returns a copy of the robot's declared capability set or
// UnknownRobotError.
func (r *Registry) CapabilitiesOf(id string) ([]string, error) {
	robot, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	caps := make([]string, len(robot.Capabilities))
	copy(caps, robot.Capabilities)
	return caps, nil
}

// Eligible returns the registered robots that declare every capability in
// required, sorted by id so assignment backends see a stable order.
func (r *Registry) Eligible(required []string) []model.Robot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var eligible []model.Robot
	for _, robot := range r.robots {
		if robot.HasCapabilities(required) {
			eligible = append(eligible, robot)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	return eligible
}

// List returns every registered robot sorted by id.
func (r *Registry) List() []model.Robot {
	return r.Eligible(nil)
}

// Len reports the number of registered robots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.robots)
}
