package csm

import (
	"testing"
	"time"

	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/keyevent"
)

func downUp(m *Machine, key keyevent.KeyId, down, up chordtime.Instant) []keyevent.Decision {
	var out []keyevent.Decision
	out = append(out, m.ProcessEvent(keyevent.RawEvent{Key: key, Edge: keyevent.Down, Timestamp: down})...)
	out = append(out, m.ProcessEvent(keyevent.RawEvent{Key: key, Edge: keyevent.Up, Timestamp: up})...)
	return out
}

func TestLoneKeyPressAndReleaseIsTap(t *testing.T) {
	m := New(nil)
	base := chordtime.Now()

	decisions := downUp(m, keyevent.KeyId{Scancode: 0x1E}, base, base.Add(50))

	var taps int
	for _, d := range decisions {
		if d.Kind == keyevent.DecisionTap {
			taps++
		}
	}
	if taps != 1 {
		t.Errorf("expected exactly one Tap decision, got %+v", decisions)
	}
}

func TestOverlappingPairYieldsChord(t *testing.T) {
	m := New(nil)
	base := chordtime.Now()

	a := keyevent.KeyId{Scancode: 0x1E}
	b := keyevent.KeyId{Scancode: 0x1F}

	var decisions []keyevent.Decision
	decisions = append(decisions, m.ProcessEvent(keyevent.RawEvent{Key: a, Edge: keyevent.Down, Timestamp: base})...)
	decisions = append(decisions, m.ProcessEvent(keyevent.RawEvent{Key: b, Edge: keyevent.Down, Timestamp: base.Add(5)})...)
	decisions = append(decisions, m.ProcessEvent(keyevent.RawEvent{Key: a, Edge: keyevent.Up, Timestamp: base.Add(100)})...)
	decisions = append(decisions, m.ProcessEvent(keyevent.RawEvent{Key: b, Edge: keyevent.Up, Timestamp: base.Add(105)})...)

	var gotChord bool
	for _, d := range decisions {
		if d.Kind == keyevent.DecisionChord {
			gotChord = true
			if len(d.Keys) != 2 || d.Keys[0] != a || d.Keys[1] != b {
				t.Errorf("expected chord [a,b], got %+v", d.Keys)
			}
		}
	}
	if !gotChord {
		t.Errorf("expected a Chord decision from a fully overlapping pair, got %+v", decisions)
	}
}

func TestInjectedEventsAreIgnored(t *testing.T) {
	m := New(nil)
	base := chordtime.Now()

	decisions := m.ProcessEvent(keyevent.RawEvent{Key: keyevent.KeyId{Scancode: 0x1E}, Edge: keyevent.Down, Timestamp: base, Injected: true})
	if decisions != nil {
		t.Errorf("expected injected events to produce no decisions, got %+v", decisions)
	}
}

func TestResetClearsPressedState(t *testing.T) {
	m := New(nil)
	base := chordtime.Now()
	key := keyevent.KeyId{Scancode: 0x1E}

	m.ProcessEvent(keyevent.RawEvent{Key: key, Edge: keyevent.Down, Timestamp: base})
	if !m.IsPressed(key) {
		t.Fatalf("expected key to be pressed after a Down event")
	}

	m.Reset()
	if m.IsPressed(key) {
		t.Errorf("expected Reset to clear pressed-key state")
	}
}

func TestShouldToggleSuspendDebounces(t *testing.T) {
	m := New(nil)
	now := time.Now()

	if !m.ShouldToggleSuspend(now, 50*time.Millisecond) {
		t.Errorf("expected the first suspend toggle to be allowed")
	}
	if m.ShouldToggleSuspend(now, 50*time.Millisecond) {
		t.Errorf("expected an immediately repeated suspend toggle to be debounced")
	}
}
