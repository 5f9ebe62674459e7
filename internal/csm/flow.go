package csm

import (
	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/modifier"
	"nitro-core-dx/internal/profile"
)

func (m *Machine) ratioContext(trigger keyevent.KeyId, edge keyevent.Edge, now chordtime.Instant) RatioContext {
	return RatioContext{
		Trigger:                trigger,
		TriggerEdge:            edge,
		Now:                    now,
		Classifier:             m.classifier,
		ContinuousShift:        m.profile.ContinuousShift,
		CharKeyContinuousShift: m.profile.CharKeyContinuousShift,
	}
}

// pairCheck repeatedly resolves the two earliest Live records until either
// fewer than two remain or PairOverlapRatio can't yet judge the leading
// pair (spec.md §4.1 "Pair check"). It only ever emits 2-key chords: 3-key
// chord tags are a plane-resolver concern that looks at the ordered union
// of still-held/just-consumed keys (spec.md §4.1 "Max chord size", §4.4
// step 5), not something the CSM assembles itself.
func (m *Machine) pairCheck(trigger keyevent.KeyId, edge keyevent.Edge, now chordtime.Instant) []keyevent.Decision {
	var decisions []keyevent.Decision

	for {
		live := m.livePending()
		if len(live) < 2 {
			return decisions
		}
		p1, p2 := live[0], live[1]

		ratio, ok := PairOverlapRatio(p1, p2, m.ratioContext(trigger, edge, now))
		if !ok {
			return decisions
		}

		if ratio < m.profile.CharKeyOverlapRatio {
			if m.usedModifiers[p1.Key] {
				delete(m.usedModifiers, p1.Key)
			} else {
				decisions = append(decisions, m.flushLonely(p1)...)
			}
			m.markFlushed(p1.Key)
			continue
		}

		p1Kind := m.classifier.Classify(p1.Key)
		if p1Kind != modifier.None {
			m.usedModifiers[p1.Key] = true
		}
		p2Kind := m.classifier.Classify(p2.Key)
		if p2Kind != modifier.None {
			m.usedModifiers[p2.Key] = true
		}

		// A modifier still physically held and configured continuous stays
		// pending (not consumed) so it can chord with whatever comes next,
		// on either side of the pair (spec.md §4.8 "continuous-shift
		// pending after chord").
		keep1 := p1Kind != modifier.None && m.profile.ContinuousShift[p1Kind] && m.pressed[p1.Key]
		keep2 := p2Kind != modifier.None && m.profile.ContinuousShift[p2Kind] && m.pressed[p2.Key]

		if !keep1 {
			m.markConsumed(p1.Key)
		}
		if !keep2 {
			m.markConsumed(p2.Key)
		}

		decisions = append(decisions, keyevent.Chord(p1.Key, p2.Key))
	}
}

// flushLonely resolves a single record with no qualifying chord partner.
// A plain target key becomes a Tap; a modifier key resolved alone arms or
// fires per its configured single-press behavior (spec.md §4.2, §4.8).
func (m *Machine) flushLonely(rec keyevent.PendingRecord) []keyevent.Decision {
	kind := m.classifier.Classify(rec.Key)
	if kind == modifier.None {
		return []keyevent.Decision{keyevent.Tap(rec.Key)}
	}

	switch m.profile.SinglePress[kind] {
	case profile.BehaviorPrefixShift:
		m.latchKind = keyevent.LatchPrefixPending
		m.prefixKey = rec.Key
		return []keyevent.Decision{keyevent.LatchOnDecision(keyevent.LatchPrefixPending, kind.String())}
	case profile.BehaviorEnable:
		return []keyevent.Decision{keyevent.Tap(rec.Key)}
	case profile.BehaviorSpaceKey:
		return []keyevent.Decision{keyevent.Passthrough(keyevent.SpaceKey, keyevent.Down), keyevent.Passthrough(keyevent.SpaceKey, keyevent.Up)}
	default:
		return nil
	}
}

// flushAllPendingForSpace forces every live record's t_up to now so the
// ordinary pairCheck comparisons all become immediately decidable, then
// drains whatever remains as standalone taps (spec.md §4.1 "Space-Down
// flush": a bare Space always flushes the deliberation queue first).
func (m *Machine) flushAllPendingForSpace(now chordtime.Instant) []keyevent.Decision {
	for _, rec := range m.livePending() {
		m.setTUp(rec.Key, now)
	}

	decisions := m.pairCheck(keyevent.SpaceKey, keyevent.Down, now)

	for _, rec := range m.livePending() {
		if m.usedModifiers[rec.Key] {
			// Already credited as a chord modifier once: clear the flag and
			// swallow this flush instead of emitting a second, independent
			// single-press behavior for it (spec.md §4.1).
			delete(m.usedModifiers, rec.Key)
		} else {
			decisions = append(decisions, m.flushLonely(rec)...)
		}
		m.markFlushed(rec.Key)
	}

	return decisions
}
