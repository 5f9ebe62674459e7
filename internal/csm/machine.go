// Package csm implements the chord state machine of spec.md §4.1, §4.5 and
// §4.8: given a stream of raw key events it decides passthrough, tap, or
// chord, deferring judgement across events when there isn't yet enough
// overlap information.
package csm

import (
	"time"

	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/modifier"
	"nitro-core-dx/internal/profile"
	"nitro-core-dx/internal/telemetry"
)

// Machine holds all CSM runtime state for one physical keyboard. All
// methods are meant to be called under the engine's single lock (spec.md
// §4.1: "single-threaded with respect to a given physical keyboard").
type Machine struct {
	profile    profile.Profile
	classifier modifier.Classifier
	layout     *layout.Layout
	logger     *telemetry.Logger

	pending []keyevent.PendingRecord
	nextSeq int

	pressed    map[keyevent.KeyId]bool
	passedKeys map[keyevent.KeyId]bool

	usedModifiers map[keyevent.KeyId]bool

	latchKind keyevent.LatchKind
	latchTag  string
	prefixKey keyevent.KeyId

	deferredEnterActive     bool
	deferredEnterWaitingFor keyevent.KeyId
	deferredEnterUpBuffered bool

	lastSuspendToggle time.Time
}

// New creates a Machine with no layout installed yet.
func New(logger *telemetry.Logger) *Machine {
	m := &Machine{
		logger: logger,
		layout: layout.Empty(),
	}
	m.resetTransient()
	return m
}

func (m *Machine) resetTransient() {
	m.pending = nil
	m.nextSeq = 0
	m.pressed = map[keyevent.KeyId]bool{}
	m.passedKeys = map[keyevent.KeyId]bool{}
	m.usedModifiers = map[keyevent.KeyId]bool{}
	m.latchKind = keyevent.LatchNone
	m.latchTag = ""
	m.prefixKey = keyevent.KeyId{}
	m.deferredEnterActive = false
	m.deferredEnterWaitingFor = keyevent.KeyId{}
	m.deferredEnterUpBuffered = false
}

// Reset clears all CSM transient state (spec.md §4.9 "On enable→disable:
// clear all CSM transient state; preserve profile and layout" and "On
// layout load: ... reset CSM runtime state but preserve the profile").
func (m *Machine) Reset() {
	m.resetTransient()
}

// SetProfile installs a new profile and rebuilds the modifier classifier.
func (m *Machine) SetProfile(p profile.Profile) {
	m.profile = p
	m.classifier = p.Classifier(m.layout.TriggerKeys)
}

// SetLayout installs a new layout (the pointer swap happens in
// internal/lifecycle; this just updates the classifier's trigger-key set
// and resets transient state).
func (m *Machine) SetLayout(l *layout.Layout) {
	m.layout = l
	m.classifier = m.profile.Classifier(l.TriggerKeys)
	m.resetTransient()
}

// Profile returns the currently installed profile.
func (m *Machine) Profile() profile.Profile { return m.profile }

// Classifier returns the current modifier classifier, exported so the
// repeat planner and resolver can share it without recomputation.
func (m *Machine) Classifier() modifier.Classifier { return m.classifier }

// Layout returns the currently installed layout.
func (m *Machine) Layout() *layout.Layout { return m.layout }

// Latch describes the currently armed latch, for the plane resolver.
func (m *Machine) Latch() (kind keyevent.LatchKind, tag string) {
	return m.latchKind, m.latchTag
}

// UsedModifier reports whether key is currently flagged as having
// participated in a chord while still held.
func (m *Machine) UsedModifier(key keyevent.KeyId) bool {
	return m.usedModifiers[key]
}

// IsPressed reports whether key is currently physically held, per the
// CSM's own bookkeeping. The engine consults this before routing a
// duplicate Down to the repeat planner instead of ProcessEvent.
func (m *Machine) IsPressed(key keyevent.KeyId) bool {
	return m.pressed[key]
}

// ShouldToggleSuspend reports whether a suspend-key press observed at now
// should actually flip the engine's enabled state, debouncing a stuck or
// bouncing switch (SPEC_FULL.md "Per-profile suspend-key debounce"). It
// always records now as the latest toggle attempt, whether or not it allows
// this one.
func (m *Machine) ShouldToggleSuspend(now time.Time, debounce time.Duration) bool {
	allowed := m.lastSuspendToggle.IsZero() || now.Sub(m.lastSuspendToggle) >= debounce
	m.lastSuspendToggle = now
	return allowed
}

func (m *Machine) log(level telemetry.Level, format string, args ...interface{}) {
	if m.logger == nil {
		return
	}
	m.logger.Logf(telemetry.ComponentCSM, level, format, args...)
}

// ProcessEvent runs one raw event through the priority-ordered decision
// tree of spec.md §4.1. Callers must not invoke this for an auto-repeat
// Down (i.e. IsPressed(key) already true on a Down edge) — route those to
// the repeat planner instead.
func (m *Machine) ProcessEvent(ev keyevent.RawEvent) []keyevent.Decision {
	if ev.Injected {
		return nil
	}

	key := ev.Key
	now := ev.Timestamp

	// Priority 2: passed-keys on Up.
	if ev.Edge == keyevent.Up && m.passedKeys[key] {
		delete(m.passedKeys, key)
		delete(m.pressed, key)
		m.removePendingKey(key)
		m.compactPending()
		return []keyevent.Decision{keyevent.Passthrough(key, keyevent.Up)}
	}

	// Deferred-Enter rollover bypasses the ordinary target filter entirely
	// (spec.md §4.5 exception).
	if key == keyevent.EnterKey {
		return m.handleEnter(ev.Edge, now)
	}

	// Priority 3: Space-Down flush.
	if key == keyevent.SpaceKey && ev.Edge == keyevent.Down && m.classifier.Classify(key) == modifier.None {
		decisions := m.flushAllPendingForSpace(now)
		decisions = append(decisions, keyevent.Passthrough(key, keyevent.Down))
		m.passedKeys[key] = true
		m.compactPending()
		return decisions
	}

	// Priority 4: target filter (folds in the §4.5 section-existence
	// prefilter, which checks the same predicate before a Down is even
	// delegated here).
	if !m.isAllowed(key) {
		return []keyevent.Decision{keyevent.Passthrough(key, ev.Edge)}
	}

	// Priority 5: prefix-latch consumption on Down.
	if ev.Edge == keyevent.Down && m.latchKind == keyevent.LatchPrefixPending {
		m.latchKind = keyevent.LatchNone
		m.usedModifiers[m.prefixKey] = true
		return []keyevent.Decision{keyevent.Chord(m.prefixKey, key)}
	}

	// Main path.
	var decisions []keyevent.Decision
	if ev.Edge == keyevent.Down {
		decisions = m.mainDown(key, now)
	} else {
		decisions = m.mainUp(key, now)
	}
	m.compactPending()
	return decisions
}

func (m *Machine) handleEnter(edge keyevent.Edge, now chordtime.Instant) []keyevent.Decision {
	if edge == keyevent.Down {
		if m.deferredEnterActive {
			return nil
		}
		if len(m.livePending()) > 0 {
			m.deferredEnterActive = true
			m.deferredEnterWaitingFor = m.latestPendingKey()
			m.deferredEnterUpBuffered = false
			m.log(telemetry.LevelDebug, "deferring Enter-Down, waiting on %v", m.deferredEnterWaitingFor)
			return nil
		}
		return []keyevent.Decision{keyevent.Passthrough(keyevent.EnterKey, keyevent.Down)}
	}

	if m.deferredEnterActive {
		m.deferredEnterUpBuffered = true
		return nil
	}
	return []keyevent.Decision{keyevent.Passthrough(keyevent.EnterKey, keyevent.Up)}
}

// isAllowed implements the target-key/modifier/whitelist predicate shared
// by spec.md §4.1 priority 4 and §4.5.
func (m *Machine) isAllowed(key keyevent.KeyId) bool {
	if m.layout == nil || len(m.layout.Sections) == 0 {
		return true
	}
	if m.layout.IsTarget(key) {
		return true
	}
	if m.classifier.IsModifier(key) {
		return true
	}
	return false
}

func (m *Machine) mainDown(key keyevent.KeyId, now chordtime.Instant) []keyevent.Decision {
	if m.pressed[key] {
		// Defensive: the engine should have routed this to the repeat
		// planner before calling ProcessEvent.
		return nil
	}

	m.pressed[key] = true
	m.insertPending(key, now)

	decisions := m.pairCheck(key, keyevent.Down, now)
	m.releaseDeferredEnterIfWaitingResolved(key)
	return decisions
}

func (m *Machine) mainUp(key keyevent.KeyId, now chordtime.Instant) []keyevent.Decision {
	delete(m.pressed, key)
	m.setTUp(key, now)

	decisions := m.pairCheck(key, keyevent.Up, now)

	if m.deferredEnterActive && key == m.deferredEnterWaitingFor {
		decisions = append(decisions, keyevent.Passthrough(keyevent.EnterKey, keyevent.Down))
		if m.deferredEnterUpBuffered {
			decisions = append(decisions, keyevent.Passthrough(keyevent.EnterKey, keyevent.Up))
		}
		m.deferredEnterActive = false
	}

	live := m.livePending()
	if len(live) == 1 && live[0].HasUp {
		rec := live[0]
		if m.usedModifiers[rec.Key] {
			// Already credited as a chord modifier once: clear the flag so
			// a later, independent lonely press of this same physical key
			// is free to produce its own single-press behavior.
			delete(m.usedModifiers, rec.Key)
		} else {
			decisions = append(decisions, m.flushLonely(rec)...)
		}
		m.markFlushed(rec.Key)
	}

	return decisions
}

// releaseDeferredEnterIfWaitingResolved checks whether the key a deferred
// Enter is waiting on is the key just pressed and no longer pending. It
// changes no state and emits nothing: a deferred Enter is released only by
// mainUp, when the waited-for key's Up arrives.
func (m *Machine) releaseDeferredEnterIfWaitingResolved(key keyevent.KeyId) {
	if !m.deferredEnterActive {
		return
	}
	if m.deferredEnterWaitingFor != key {
		return
	}
	if m.IsPending(key) {
		return
	}
}
