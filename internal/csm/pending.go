package csm

import (
	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/keyevent"
)

// insertPending adds a new Live record for key. Callers must have already
// checked the key has no existing record (spec.md invariant 1).
func (m *Machine) insertPending(key keyevent.KeyId, now chordtime.Instant) {
	rec := keyevent.PendingRecord{
		Key:   key,
		TDown: now,
		State: keyevent.Live,
		Seq:   m.nextSeq,
	}
	m.nextSeq++
	m.pending = append(m.pending, rec)
}

// livePending returns the Live records in insertion order (equivalently
// t_down ascending, per spec.md invariant 4).
func (m *Machine) livePending() []keyevent.PendingRecord {
	out := make([]keyevent.PendingRecord, 0, len(m.pending))
	for _, rec := range m.pending {
		if rec.State == keyevent.Live {
			out = append(out, rec)
		}
	}
	return out
}

func (m *Machine) recordIndex(key keyevent.KeyId) int {
	for i := range m.pending {
		if m.pending[i].Key == key && m.pending[i].State == keyevent.Live {
			return i
		}
	}
	return -1
}

func (m *Machine) setTUp(key keyevent.KeyId, now chordtime.Instant) {
	if i := m.recordIndex(key); i >= 0 {
		m.pending[i].TUp = now
		m.pending[i].HasUp = true
	}
}

func (m *Machine) markConsumed(key keyevent.KeyId) {
	if i := m.recordIndex(key); i >= 0 {
		m.pending[i].State = keyevent.Consumed
	}
}

func (m *Machine) markFlushed(key keyevent.KeyId) {
	if i := m.recordIndex(key); i >= 0 {
		m.pending[i].State = keyevent.Flushed
	}
}

// ConsumeFolded marks every key in a repeat plan's Fold list as consumed
// (spec.md §4.6 step 1: the plan's keys "are now 'folded' into the repeated
// chord"). Called from the repeat planner's caller once a plan pairs the
// repeating key with a partner, so the ordinary pairCheck doesn't later
// re-resolve the same overlap and emit a second Chord when the partner's
// real Up event arrives. Safe to call repeatedly; a key with no remaining
// Live record is a no-op.
func (m *Machine) ConsumeFolded(keys []keyevent.KeyId) {
	for _, key := range keys {
		m.markConsumed(key)
	}
	m.compactPending()
}

// removePendingKey drops any record for key regardless of state, used by
// the passed-keys-on-up path to guarantee invariant 2 (no leaked state for
// a key that will never be seen again in this deliberation).
func (m *Machine) removePendingKey(key keyevent.KeyId) {
	for i := range m.pending {
		if m.pending[i].Key == key {
			m.pending[i].State = keyevent.Consumed
		}
	}
}

// latestPendingKey returns the key of the most recently inserted Live
// record, used to pick which key a deferred Enter is waiting on.
func (m *Machine) latestPendingKey() keyevent.KeyId {
	var best keyevent.PendingRecord
	found := false
	for _, rec := range m.pending {
		if rec.State != keyevent.Live {
			continue
		}
		if !found || rec.Seq > best.Seq {
			best = rec
			found = true
		}
	}
	return best.Key
}

// compactPending drops every non-Live record, keeping the slice short
// across long sessions. Spec.md §9: "compact only at event boundaries."
func (m *Machine) compactPending() {
	live := m.pending[:0]
	for _, rec := range m.pending {
		if rec.State == keyevent.Live {
			live = append(live, rec)
		}
	}
	m.pending = live
}

// IsPending reports whether key currently has a Live record.
func (m *Machine) IsPending(key keyevent.KeyId) bool {
	return m.recordIndex(key) >= 0
}

// PendingSnapshot returns a copy of the Live pending records, for the
// repeat planner's own overlap-ratio lookups.
func (m *Machine) PendingSnapshot() []keyevent.PendingRecord {
	return m.livePending()
}
