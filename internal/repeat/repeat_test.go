package repeat

import (
	"testing"

	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/csm"
	"nitro-core-dx/internal/keyevent"
)

func TestPlanForWithNoPendingRecordRepeatsAlone(t *testing.T) {
	p := New()
	key := keyevent.KeyId{Scancode: 0x1E}

	plan := p.PlanFor(key, nil, csm.RatioContext{}, 0.5, keyevent.KeyId{}, false)
	if len(plan.Keys) != 1 || plan.Keys[0] != key {
		t.Errorf("expected a single-key plan for an untracked key, got %+v", plan)
	}
}

func TestPlanForCachesAcrossCalls(t *testing.T) {
	p := New()
	key := keyevent.KeyId{Scancode: 0x1E}

	first := p.PlanFor(key, nil, csm.RatioContext{}, 0.5, keyevent.KeyId{}, false)
	if !p.HasPlan(key) {
		t.Fatalf("expected a plan to be cached after the first PlanFor call")
	}

	// A second call with different pending data must still return the
	// cached plan, not recompute.
	second := p.PlanFor(key, []keyevent.PendingRecord{{Key: keyevent.KeyId{Scancode: 0xFF}}}, csm.RatioContext{}, 0.5, keyevent.KeyId{}, false)
	if len(second.Keys) != len(first.Keys) || second.Keys[0] != first.Keys[0] {
		t.Errorf("expected cached plan to be reused, got first=%+v second=%+v", first, second)
	}
}

func TestPlanForFindsOverlappingPartner(t *testing.T) {
	p := New()
	base := chordtime.Now()

	key := keyevent.KeyId{Scancode: 0x1E}
	partner := keyevent.KeyId{Scancode: 0x1F}

	pending := []keyevent.PendingRecord{
		{Key: partner, TDown: base, TUp: base.Add(100), HasUp: true, Seq: 0},
		{Key: key, TDown: base.Add(10), TUp: base.Add(90), HasUp: true, Seq: 1},
	}

	ctx := csm.RatioContext{Now: base.Add(100)}
	plan := p.PlanFor(key, pending, ctx, 0.5, keyevent.KeyId{}, false)

	if len(plan.Keys) != 2 || plan.Keys[0] != key || plan.Keys[1] != partner {
		t.Errorf("expected a two-key plan [key, partner], got %+v", plan)
	}
	if len(plan.Fold) != 2 {
		t.Errorf("expected the matched pair to be folded, got %+v", plan.Fold)
	}
}

func TestPlanForFallsBackToMostRecentThumbWhenNoPartnerQualifies(t *testing.T) {
	p := New()
	base := chordtime.Now()
	key := keyevent.KeyId{Scancode: 0x1E}
	thumb := keyevent.KeyId{Scancode: 0x39}

	pending := []keyevent.PendingRecord{
		{Key: key, TDown: base, TUp: base.Add(100), HasUp: true, Seq: 0},
	}
	ctx := csm.RatioContext{Now: base.Add(100)}

	plan := p.PlanFor(key, pending, ctx, 0.9, thumb, true)
	if len(plan.Keys) != 2 || plan.Keys[0] != key || plan.Keys[1] != thumb {
		t.Errorf("expected fallback plan [key, thumb], got %+v", plan)
	}
}

func TestClearAndReset(t *testing.T) {
	p := New()
	key := keyevent.KeyId{Scancode: 0x1E}
	p.PlanFor(key, nil, csm.RatioContext{}, 0.5, keyevent.KeyId{}, false)

	p.Clear(key)
	if p.HasPlan(key) {
		t.Errorf("expected Clear to drop the cached plan")
	}

	p.PlanFor(key, nil, csm.RatioContext{}, 0.5, keyevent.KeyId{}, false)
	p.Reset()
	if p.HasPlan(key) {
		t.Errorf("expected Reset to drop all cached plans")
	}
}
