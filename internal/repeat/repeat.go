// Package repeat implements the auto-repeat planner of spec.md §4.6: when
// the OS delivers a Down for a key already held, reconstruct the chord
// plan that key belongs to instead of treating it as a fresh press.
package repeat

import (
	"nitro-core-dx/internal/csm"
	"nitro-core-dx/internal/keyevent"
)

// Plan is the cached repeat plan for one held key: the ordered key list to
// resolve through the plane resolver, and (when a partner was folded in)
// the keys that should be treated as consumed by this plan rather than
// independently flushed.
type Plan struct {
	Keys []keyevent.KeyId
	Fold []keyevent.KeyId
}

// Planner caches one Plan per key currently auto-repeating, so the
// overlap-ratio search in computePlan only runs once per press (spec.md
// §4.6 step 1: "if we already have a repeat plan cached for this key,
// reuse it").
type Planner struct {
	cache map[keyevent.KeyId]Plan
}

// New creates an empty Planner.
func New() *Planner {
	return &Planner{cache: map[keyevent.KeyId]Plan{}}
}

// HasPlan reports whether key has a cached plan.
func (p *Planner) HasPlan(key keyevent.KeyId) bool {
	_, ok := p.cache[key]
	return ok
}

// Clear drops key's cached plan, once its Up finally arrives.
func (p *Planner) Clear(key keyevent.KeyId) {
	delete(p.cache, key)
}

// Reset drops every cached plan (spec.md §4.9 enable/disable and layout
// reload both reset CSM-adjacent runtime state).
func (p *Planner) Reset() {
	p.cache = map[keyevent.KeyId]Plan{}
}

// PlanFor returns key's cached plan, computing and caching one if absent.
// pending is a read-only snapshot (Machine.PendingSnapshot) of the live
// pending records at the moment the repeat Down arrived; ctx and
// threshold mirror the same overlap-ratio machinery the CSM's pairCheck
// uses; mostRecentThumb/hasThumb identify the most recently pressed
// still-held thumb modifier, the plan's fallback partner.
func (p *Planner) PlanFor(
	key keyevent.KeyId,
	pending []keyevent.PendingRecord,
	ctx csm.RatioContext,
	overlapThreshold float64,
	mostRecentThumb keyevent.KeyId,
	hasThumb bool,
) Plan {
	if plan, ok := p.cache[key]; ok {
		return plan
	}
	plan := computePlan(key, pending, ctx, overlapThreshold, mostRecentThumb, hasThumb)
	p.cache[key] = plan
	return plan
}

func computePlan(
	key keyevent.KeyId,
	pending []keyevent.PendingRecord,
	ctx csm.RatioContext,
	threshold float64,
	mostRecentThumb keyevent.KeyId,
	hasThumb bool,
) Plan {
	self, ok := findRecord(pending, key)
	if !ok {
		return Plan{Keys: []keyevent.KeyId{key}}
	}

	bestRatio := -1.0
	var bestPartner keyevent.KeyId
	foundPartner := false

	for _, rec := range pending {
		if rec.Key == key {
			continue
		}
		p1, p2 := orderBySeq(rec, self)
		ratio, ok := csm.PairOverlapRatio(p1, p2, ctx)
		if !ok {
			continue
		}
		if ratio > bestRatio {
			bestRatio, bestPartner, foundPartner = ratio, rec.Key, true
		}
	}

	if foundPartner && bestRatio >= threshold {
		return Plan{
			Keys: []keyevent.KeyId{key, bestPartner},
			Fold: []keyevent.KeyId{key, bestPartner},
		}
	}

	if hasThumb {
		return Plan{Keys: []keyevent.KeyId{key, mostRecentThumb}}
	}
	return Plan{Keys: []keyevent.KeyId{key}}
}

func findRecord(pending []keyevent.PendingRecord, key keyevent.KeyId) (keyevent.PendingRecord, bool) {
	for _, rec := range pending {
		if rec.Key == key {
			return rec, true
		}
	}
	return keyevent.PendingRecord{}, false
}

// orderBySeq returns (a, b) ordered so the chronologically earlier record
// (lower Seq) comes first, matching PairOverlapRatio's p1/p2 contract.
func orderBySeq(a, b keyevent.PendingRecord) (keyevent.PendingRecord, keyevent.PendingRecord) {
	if a.Seq <= b.Seq {
		return a, b
	}
	return b, a
}
