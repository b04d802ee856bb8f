package systems

import "github.com/pthm-cable/creatures/telemetry"

// SystemInfo describes a per-tick system for UI display.
type SystemInfo struct {
	ID          string // perf collector phase name
	Name        string // Display name
	Description string // What this system does
}

// SystemRegistry holds metadata about all systems, in tick order.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known systems.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.Register(SystemInfo{ID: telemetry.PhaseController, Name: "Rules", Description: "Evaluates block rules and drives joint motors"})
	reg.Register(SystemInfo{ID: telemetry.PhasePhysics, Name: "Physics", Description: "Integrates bodies and solves hinges"})
	reg.Register(SystemInfo{ID: telemetry.PhaseFitness, Name: "Fitness", Description: "Tracks lowest block height and rejects invalid creatures"})
	return reg
}

// Register adds a system to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns system info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a system ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered systems.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}
