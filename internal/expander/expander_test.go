package expander

import (
	"testing"

	"nitro-core-dx/internal/hook"
	"nitro-core-dx/internal/ime"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/modifier"
	"nitro-core-dx/internal/resolver"
)

func TestExpandPassthroughEmitsOneScancodeEvent(t *testing.T) {
	e := New(resolver.New(layout.Empty(), modifier.Classifier{}), ime.NewNoop(false))
	key := keyevent.KeyId{Scancode: 0x1E}

	events := e.Expand(keyevent.Passthrough(key, keyevent.Down), Context{})
	if len(events) != 1 || events[0].Kind != hook.EventScancode || events[0].Up {
		t.Errorf("unexpected passthrough expansion: %+v", events)
	}
}

func TestExpandTapUnresolvedFallsBackToRawScancode(t *testing.T) {
	e := New(resolver.New(layout.Empty(), modifier.Classifier{}), ime.NewNoop(false))
	key := keyevent.KeyId{Scancode: 0x1E}

	events := e.Expand(keyevent.Tap(key), Context{})
	if len(events) != 2 || events[0].Up || !events[1].Up {
		t.Errorf("expected a raw down+up scancode pair as a fallback, got %+v", events)
	}
}

func TestExpandTapDirectChar(t *testing.T) {
	key := keyevent.KeyId{Scancode: 0x1E}
	rc, _ := layout.ScancodeToRC(key)

	l := layout.Empty()
	l.Sections["英数シフト無し"] = layout.Section{
		BasePlane: layout.Plane{rc: {Kind: layout.TokenDirectChar, Text: "a"}},
	}

	e := New(resolver.New(l, modifier.Classifier{}), ime.NewNoop(false))
	events := e.Expand(keyevent.Tap(key), Context{})

	if len(events) != 2 || events[0].Kind != hook.EventUnicode || events[0].Codepoint != 'a' {
		t.Errorf("expected a direct-char unicode down+up pair, got %+v", events)
	}
}

func TestExpandDirectCharWrapsInImeControlWhenJapaneseActive(t *testing.T) {
	key := keyevent.KeyId{Scancode: 0x1E}
	rc, _ := layout.ScancodeToRC(key)

	l := layout.Empty()
	l.Sections["英数シフト無し"] = layout.Section{
		BasePlane: layout.Plane{rc: {Kind: layout.TokenDirectChar, Text: "a"}},
	}

	e := New(resolver.New(l, modifier.Classifier{}), ime.NewNoop(true))
	events := e.Expand(keyevent.Tap(key), Context{})

	if len(events) != 4 {
		t.Fatalf("expected IME-off, char-down, char-up, IME-on, got %+v", events)
	}
	if events[0].Kind != hook.EventImeControl || events[0].ImeOpen {
		t.Errorf("expected the first event to close the IME, got %+v", events[0])
	}
	if events[3].Kind != hook.EventImeControl || !events[3].ImeOpen {
		t.Errorf("expected the last event to reopen the IME, got %+v", events[3])
	}
}

func TestExpandChordMissFallbackOlderHeldNewerNot(t *testing.T) {
	e := New(resolver.New(layout.Empty(), modifier.Classifier{}), ime.NewNoop(false))
	older := keyevent.KeyId{Scancode: 0x1D}
	newer := keyevent.KeyId{Scancode: 0x1E}

	ctx := Context{StillHeld: func(k keyevent.KeyId) bool { return k == older }}
	events := e.Expand(keyevent.Chord(older, newer), ctx)

	// Falls back to tapping only the newer key: raw scancode down+up since
	// no layout section resolves it.
	if len(events) != 2 {
		t.Errorf("expected only the newer key's tap to be emitted, got %+v", events)
	}
}

func TestExpandChordMissFallbackOlderUpNewerHeldSuppresses(t *testing.T) {
	e := New(resolver.New(layout.Empty(), modifier.Classifier{}), ime.NewNoop(false))
	older := keyevent.KeyId{Scancode: 0x1D}
	newer := keyevent.KeyId{Scancode: 0x1E}

	ctx := Context{StillHeld: func(k keyevent.KeyId) bool { return k == newer }}
	events := e.Expand(keyevent.Chord(older, newer), ctx)

	if events != nil {
		t.Errorf("expected the older key to be suppressed entirely, got %+v", events)
	}
}

func TestExpandKeyStrokeSynthesizesCtrlWrapper(t *testing.T) {
	e := New(resolver.New(layout.Empty(), modifier.Classifier{}), ime.NewNoop(false))
	stroke := layout.KeyStroke{
		Key:  layout.KeySpec{Kind: layout.SpecScancode, Scancode: keyevent.KeyId{Scancode: 0x2E}},
		Mods: layout.Mods{Ctrl: true},
	}

	events := e.expandKeyStroke(stroke, Context{})
	if len(events) != 4 {
		t.Fatalf("expected ctrl-down, key-down, key-up, ctrl-up, got %+v", events)
	}
	if events[0].Scancode != leftCtrlKey.Scancode || events[0].Up {
		t.Errorf("expected the first event to press left ctrl, got %+v", events[0])
	}
	if events[3].Scancode != leftCtrlKey.Scancode || !events[3].Up {
		t.Errorf("expected the last event to release left ctrl, got %+v", events[3])
	}
}
