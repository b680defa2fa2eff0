// Package fleet loads the fleet manifest: a YAML file declaring each
// robot together with its capability proficiencies. The manifest seeds
// both the capability registry and the static delegation backend's
// strength table.
package fleet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mrtodp/fleetd/internal/delegate"
	"github.com/mrtodp/fleetd/internal/registry"
	"github.com/mrtodp/fleetd/pkg/model"
)

// RobotSpec is one robot entry. Capabilities maps capability name to
// proficiency strength on a 0..100 scale.
type RobotSpec struct {
	ID           string         `yaml:"id"`
	Capabilities map[string]int `yaml:"capabilities"`
}

// Manifest is a parsed fleet declaration.
type Manifest struct {
	Robots []RobotSpec `yaml:"robots"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fleet manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse fleet manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Robots))
	for i, spec := range m.Robots {
		if spec.ID == "" {
			return fmt.Errorf("fleet manifest: robot entry %d has no id", i)
		}
		if seen[spec.ID] {
			return fmt.Errorf("fleet manifest: duplicate robot id %s", spec.ID)
		}
		seen[spec.ID] = true
		for cap, strength := range spec.Capabilities {
			if strength < 0 || strength > 100 {
				return fmt.Errorf("fleet manifest: robot %s capability %s: strength %d out of range 0..100", spec.ID, cap, strength)
			}
		}
	}
	return nil
}

// Apply registers every manifest robot with the capability registry.
func (m *Manifest) Apply(reg *registry.Registry) error {
	for _, spec := range m.Robots {
		caps := make([]string, 0, len(spec.Capabilities))
		for cap := range spec.Capabilities {
			caps = append(caps, cap)
		}
		if err := reg.Register(model.Robot{ID: spec.ID, Capabilities: caps}); err != nil {
			return fmt.Errorf("register %s: %w", spec.ID, err)
		}
	}
	return nil
}

// Strengths converts the manifest into the table the static delegation
// backend scores against.
func (m *Manifest) Strengths() delegate.StrengthTable {
	table := make(delegate.StrengthTable, len(m.Robots))
	for _, spec := range m.Robots {
		caps := make(map[string]int, len(spec.Capabilities))
		for cap, strength := range spec.Capabilities {
			caps[cap] = strength
		}
		table[spec.ID] = caps
	}
	return table
}
