package csm

import (
	"time"

	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/modifier"
)

// RatioContext carries everything PairOverlapRatio needs beyond the two
// records themselves: the event that triggered this check, the current
// time, and the bits of profile/classification that change the shape of
// the computation. It is shared verbatim between the chord state machine
// and the repeat planner (spec.md §9: "one pure function
// pair_overlap_ratio(p1, p2, now, trigger) shared by both").
type RatioContext struct {
	Trigger                keyevent.KeyId
	TriggerEdge             keyevent.Edge
	Now                     chordtime.Instant
	Classifier              modifier.Classifier
	ContinuousShift         map[modifier.Kind]bool
	CharKeyContinuousShift  bool
}

// PairOverlapRatio computes the overlap ratio of p2's press duration that
// p1 is also held, per spec.md §4.1's "Pair check (overlap-ratio chord
// detection)". ok is false when there isn't yet enough information to
// judge the pair (both still down with no qualifying early-judgement rule
// applicable) — the caller must defer.
func PairOverlapRatio(p1, p2 keyevent.PendingRecord, ctx RatioContext) (ratio float64, ok bool) {
	p1End := ctx.Now
	if p1.HasUp {
		p1End = p1.TUp
	}

	var p2End chordtime.Instant
	var denomDur time.Duration

	if p2.HasUp {
		p2End = p2.TUp
		denomDur = p2End.Sub(p2.TDown)
	} else {
		if !p1.HasUp {
			return 0, false
		}
		p2Kind := ctx.Classifier.Classify(p2.Key)
		p1IsModifier := ctx.Classifier.Classify(p1.Key) != modifier.None
		p2IsContinuousThumb := p2Kind.IsThumb() && ctx.ContinuousShift[p2Kind]

		switch {
		case p2IsContinuousThumb && !p1IsModifier:
			p2End = p1End
			denomDur = p1End.Sub(p1.TDown)
		case ctx.CharKeyContinuousShift &&
			!p1IsModifier && p2Kind == modifier.None &&
			ctx.TriggerEdge == keyevent.Down &&
			ctx.Trigger != p1.Key && ctx.Trigger != p2.Key &&
			ctx.Now.After(p2.TDown):
			p2End = ctx.Now
			denomDur = ctx.Now.Sub(p2.TDown)
		default:
			return 0, false
		}
	}

	overlapStart := p2.TDown
	overlapEnd := p1End
	if p2End.Before(p1End) {
		overlapEnd = p2End
	}
	overlapDur := overlapEnd.Sub(overlapStart)
	if overlapDur < 0 {
		overlapDur = 0
	}

	return chordtime.Ratio(overlapDur, denomDur), true
}
