package chordtime

import "testing"

func TestOverlapOfDisjointSpansIsZero(t *testing.T) {
	base := Now()
	a := Span{Start: base, End: base.Add(10)}
	b := Span{Start: base.Add(20), End: base.Add(30)}

	o := Overlap(a, b)
	if o.Duration() != 0 {
		t.Errorf("expected zero overlap for disjoint spans, got %v", o.Duration())
	}
}

func TestOverlapOfNestedSpansIsInnerSpan(t *testing.T) {
	base := Now()
	outer := Span{Start: base, End: base.Add(100)}
	inner := Span{Start: base.Add(10), End: base.Add(40)}

	o := Overlap(outer, inner)
	if o.Start != inner.Start || o.End != inner.End {
		t.Errorf("expected overlap to equal the inner span, got start=%v end=%v", o.Start, o.End)
	}
}

func TestOverlapOfPartiallyOverlappingSpans(t *testing.T) {
	base := Now()
	a := Span{Start: base, End: base.Add(30)}
	b := Span{Start: base.Add(10), End: base.Add(50)}

	o := Overlap(a, b)
	if o.Start != a.Start.Add(10) || o.End != a.End {
		t.Errorf("expected overlap [10,30), got start=%v end=%v", o.Start, o.End)
	}
}

func TestRatioZeroDenomIsZero(t *testing.T) {
	if r := Ratio(10, 0); r != 0 {
		t.Errorf("expected ratio 0 for zero denom, got %v", r)
	}
}

func TestRatioNegativeOverlapIsZero(t *testing.T) {
	if r := Ratio(-5, 10); r != 0 {
		t.Errorf("expected ratio 0 for negative overlap, got %v", r)
	}
}

func TestRatioHalfOverlap(t *testing.T) {
	if r := Ratio(5, 10); r != 0.5 {
		t.Errorf("expected ratio 0.5, got %v", r)
	}
}

func TestRatioClampsAboveOne(t *testing.T) {
	if r := Ratio(20, 10); r != 1 {
		t.Errorf("expected ratio clamped to 1, got %v", r)
	}
}

func TestInstantBeforeAfter(t *testing.T) {
	base := Now()
	later := base.Add(5)

	if !base.Before(later) {
		t.Errorf("expected base to be before later")
	}
	if !later.After(base) {
		t.Errorf("expected later to be after base")
	}
}

func TestInstantIsZero(t *testing.T) {
	var zero Instant
	if !zero.IsZero() {
		t.Errorf("expected the zero-value Instant to report IsZero")
	}
	if Now().IsZero() {
		t.Errorf("expected Now() to never report IsZero")
	}
}
