// Package lifecycle installs and replaces the layout and profile the
// engine runs against, implementing spec.md §4.9.
package lifecycle

import (
	"sync"

	"nitro-core-dx/internal/csm"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/profile"
	"nitro-core-dx/internal/repeat"
	"nitro-core-dx/internal/telemetry"
)

// Manager owns the engine's mutable configuration behind a single lock,
// matching spec.md §5's "single global engine instance behind a
// mutual-exclusion primitive". Layout swaps compute the new layout's
// derived indexes before taking the lock, then swap the pointer in one
// step, so an in-flight pair-check never observes a half-built layout
// (SPEC_FULL.md "Layout swap atomicity").
//
// The state accessors have two forms: a locking public form for callers outside
// the hot path (the tray UI, tests), and a "Locked" form that assumes the
// caller already holds the lock — used by internal/engine, which needs
// the enabled check, the CSM, and the repeat planner all inside the same
// per-event critical section.
type Manager struct {
	mu      sync.Mutex
	machine *csm.Machine
	planner *repeat.Planner
	logger  *telemetry.Logger
	enabled bool

	onEnabledChange []func(bool)
}

// New creates a Manager wired to machine and planner, starting enabled.
func New(machine *csm.Machine, planner *repeat.Planner, logger *telemetry.Logger) *Manager {
	return &Manager{machine: machine, planner: planner, logger: logger, enabled: true}
}

// Lock and Unlock expose the manager's mutex so internal/engine can
// process one event fully under the same lock that guards layout/profile
// swaps (spec.md §5: "All CSM mutations, plane resolution, and output
// expansion happen under this lock").
func (m *Manager) Lock()   { m.mu.Lock() }
func (m *Manager) Unlock() { m.mu.Unlock() }

// MachineLocked returns the managed CSM instance. Caller must hold the
// lock (via Lock/Unlock).
func (m *Manager) MachineLocked() *csm.Machine { return m.machine }

// PlannerLocked returns the managed repeat planner. Caller must hold the
// lock.
func (m *Manager) PlannerLocked() *repeat.Planner { return m.planner }

// EnabledLocked reports whether the engine is enabled. Caller must hold
// the lock.
func (m *Manager) EnabledLocked() bool { return m.enabled }

// SetEnabledLocked toggles the engine, clearing CSM/repeat transient
// state on disable and notifying listeners, all without taking the lock
// itself (caller must already hold it).
func (m *Manager) SetEnabledLocked(enabled bool) {
	changed := m.enabled != enabled
	m.enabled = enabled
	if !enabled {
		m.machine.Reset()
		m.planner.Reset()
	}
	if !changed {
		return
	}
	m.logger.Logf(telemetry.ComponentLifecycle, telemetry.LevelInfo, "enabled changed: %v", enabled)
	for _, fn := range m.onEnabledChange {
		fn(enabled)
	}
}

// Machine is the locking form of MachineLocked.
func (m *Manager) Machine() *csm.Machine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MachineLocked()
}

// Planner is the locking form of PlannerLocked.
func (m *Manager) Planner() *repeat.Planner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PlannerLocked()
}

// Enabled is the locking form of EnabledLocked.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.EnabledLocked()
}

// SetEnabled is the locking form of SetEnabledLocked (spec.md §4.9 "On
// enable→disable").
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetEnabledLocked(enabled)
}

// InstallLayout computes l's derived indexes, then swaps it in as the
// active layout and resets CSM/repeat runtime state while preserving the
// profile (spec.md §4.9 "On layout load").
func (m *Manager) InstallLayout(l *layout.Layout) {
	layout.BuildIndexes(l)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.machine.SetLayout(l)
	m.planner.Reset()
	m.logger.Logf(telemetry.ComponentLifecycle, telemetry.LevelInfo, "layout installed: %s", l.DisplayName)
}

// InstallProfile installs p, recomputing the modifier classifier from its
// four thumb selectors against the currently installed layout's
// trigger-key set (spec.md §4.9 "On profile change").
func (m *Manager) InstallProfile(p profile.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.machine.SetProfile(p)
	m.logger.Logf(telemetry.ComponentLifecycle, telemetry.LevelInfo, "profile installed")
}

// OnEnabledChange registers a listener invoked after every enabled-state
// change (spec.md §9: "a registered listener, not a hidden global side
// channel" — the tray UI subscribes this way). Listeners run synchronously
// from whichever goroutine toggled the state; they must not call back
// into the Manager.
func (m *Manager) OnEnabledChange(fn func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnabledChange = append(m.onEnabledChange, fn)
}
