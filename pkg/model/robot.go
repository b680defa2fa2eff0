package model

import "time"

// Robot is a registered executor with a declared capability set. A robot
// id is registered exactly once; there is no update or removal, so the
// capability set is immutable for the registry's lifetime.
type Robot struct {
	ID           string    `json:"id"`
	Capabilities []string  `json:"capabilities"`
	RegisteredAt time.Time `json:"registered_at"`
}

// HasCapabilities reports whether the robot declares every capability in
// required.
func (r *Robot) HasCapabilities(required []string) bool {
	return len(r.MissingCapabilities(required)) == 0
}

// MissingCapabilities returns the entries of required the robot does not
// declare, preserving the order of required. An empty result means the
// robot is eligible for the task.
func (r *Robot) MissingCapabilities(required []string) []string {
	if len(required) == 0 {
		return nil
	}
	have := make(map[string]struct{}, len(r.Capabilities))
	for _, c := range r.Capabilities {
		have[c] = struct{}{}
	}
	var missing []string
	for _, c := range required {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}
