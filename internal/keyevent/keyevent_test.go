package keyevent

import "testing"

func TestExtKeyBuildsVirtualKeys(t *testing.T) {
	for n := 1; n <= 4; n++ {
		k := ExtKey(n)
		if !k.IsVirtual() {
			t.Errorf("ExtKey(%d) = %v, expected IsVirtual to be true", n, k)
		}
	}
}

func TestExtKeyOutOfRangeReturnsZeroValue(t *testing.T) {
	k := ExtKey(5)
	if k != (KeyId{}) {
		t.Errorf("expected ExtKey(5) to return the zero KeyId, got %v", k)
	}
	if k.IsVirtual() {
		t.Errorf("expected the zero KeyId to not be virtual")
	}
}

func TestIsVirtualFalseForOrdinaryScancode(t *testing.T) {
	k := KeyId{Scancode: 0x1E} // 'A'
	if k.IsVirtual() {
		t.Errorf("expected an ordinary scancode to not be virtual")
	}
}

func TestEdgeString(t *testing.T) {
	if Down.String() != "down" {
		t.Errorf("expected Down.String() == \"down\", got %q", Down.String())
	}
	if Up.String() != "up" {
		t.Errorf("expected Up.String() == \"up\", got %q", Up.String())
	}
}

func TestChordCopiesKeySlice(t *testing.T) {
	keys := []KeyId{{Scancode: 0x1E}, {Scancode: 0x1F}}
	d := Chord(keys...)

	keys[0] = KeyId{Scancode: 0xFF}
	if d.Keys[0] == keys[0] {
		t.Errorf("expected Chord to copy its input slice, mutation leaked through")
	}
	if len(d.Keys) != 2 {
		t.Errorf("expected 2 keys in the chord decision, got %d", len(d.Keys))
	}
}

func TestPassthroughAndTapFieldAssignment(t *testing.T) {
	key := KeyId{Scancode: 0x2C}
	p := Passthrough(key, Down)
	if p.Kind != DecisionPassthrough || p.Key != key || p.Edge != Down {
		t.Errorf("unexpected Passthrough decision: %+v", p)
	}

	tap := Tap(key)
	if tap.Kind != DecisionTap || tap.Key != key {
		t.Errorf("unexpected Tap decision: %+v", tap)
	}
}

func TestLatchOnOffDecisions(t *testing.T) {
	on := LatchOnDecision(LatchOneShot, "k")
	if on.Kind != DecisionLatchOn || on.Latch != LatchOneShot || on.LatchTag != "k" {
		t.Errorf("unexpected LatchOn decision: %+v", on)
	}

	off := LatchOffDecision()
	if off.Kind != DecisionLatchOff {
		t.Errorf("unexpected LatchOff decision: %+v", off)
	}
}
