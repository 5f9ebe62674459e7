package lifecycle

import (
	"testing"

	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/csm"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/profile"
	"nitro-core-dx/internal/repeat"
	"nitro-core-dx/internal/telemetry"
)

func newTestManager() *Manager {
	logger := telemetry.New(100)
	return New(csm.New(logger), repeat.New(), logger)
}

func TestNewManagerStartsEnabled(t *testing.T) {
	m := newTestManager()
	if !m.Enabled() {
		t.Errorf("expected new Manager to start enabled")
	}
}

func TestSetEnabledFiresCallbackOnlyOnChange(t *testing.T) {
	m := newTestManager()
	var calls []bool
	m.OnEnabledChange(func(enabled bool) { calls = append(calls, enabled) })

	m.SetEnabled(true) // no change, no callback
	m.SetEnabled(false)
	m.SetEnabled(false) // no change, no callback
	m.SetEnabled(true)

	want := []bool{false, true}
	if len(calls) != len(want) {
		t.Fatalf("expected %d callback invocations, got %d: %v", len(want), len(calls), calls)
	}
	for i, w := range want {
		if calls[i] != w {
			t.Errorf("call %d: expected %v, got %v", i, w, calls[i])
		}
	}
}

func TestSetEnabledFalseResetsMachineAndPlanner(t *testing.T) {
	m := newTestManager()
	l := layout.Empty()
	m.Machine().SetProfile(profile.Default())
	m.Machine().SetLayout(l)

	key := keyevent.KeyId{Scancode: 0x1E}
	m.Machine().ProcessEvent(keyevent.RawEvent{Key: key, Edge: keyevent.Down, Timestamp: chordtime.Now()})
	m.Planner().PlanFor(key, nil, csm.RatioContext{}, 0.5, keyevent.KeyId{}, false)

	m.SetEnabled(false)
	// Disabling resets transient CSM/repeat state but must not forget the
	// installed layout.
	if m.Machine().IsPressed(key) {
		t.Errorf("expected a disable to clear the machine's pressed-key state")
	}
	if m.Planner().HasPlan(key) {
		t.Errorf("expected a disable to drop cached repeat plans")
	}
	if m.Machine().Layout() != l {
		t.Errorf("expected installed layout to survive a disable")
	}
}

func TestInstallLayoutResetsPlanner(t *testing.T) {
	m := newTestManager()
	key := keyevent.KeyId{Scancode: 0x1E}
	m.Planner().PlanFor(key, nil, csm.RatioContext{}, 0.5, keyevent.KeyId{}, false)

	l := layout.Empty()
	m.InstallLayout(l)
	if m.Planner().HasPlan(key) {
		t.Errorf("expected InstallLayout to drop cached repeat plans")
	}
	if m.Machine().Layout() != l {
		t.Errorf("expected installed layout to be retrievable from the machine")
	}
}

func TestLockedMethodsRequireExternalLock(t *testing.T) {
	m := newTestManager()
	m.Lock()
	defer m.Unlock()

	if !m.EnabledLocked() {
		t.Errorf("expected EnabledLocked to report the current state without deadlocking")
	}
	m.SetEnabledLocked(false)
	if m.EnabledLocked() {
		t.Errorf("expected SetEnabledLocked to flip state under an already-held lock")
	}
}
