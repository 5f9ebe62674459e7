// Package expander implements the output expander of spec.md §4.7:
// turning a CSM decision, by way of the plane resolver, into the ordered
// sequence of events the hook should inject.
package expander

import (
	"nitro-core-dx/internal/hook"
	"nitro-core-dx/internal/ime"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/resolver"
)

// Well-known PC Set-1 scancodes for the modifier keys KeyStroke.Mods can
// synthesize around a key.
var (
	leftCtrlKey  = keyevent.KeyId{Scancode: 0x1D}
	leftAltKey   = keyevent.KeyId{Scancode: 0x38}
	leftShiftKey = keyevent.KeyId{Scancode: 0x2A}
	leftWinKey   = keyevent.KeyId{Scancode: 0x5B, Extended: true}
)

// Context carries the modal state, latch, and held-key information the
// expander needs beyond the decision itself.
type Context struct {
	State             resolver.ModalState
	LatchKind         keyevent.LatchKind
	LatchTag          string
	PhysicalShiftHeld bool

	// StillHeld reports whether key is still physically down at expansion
	// time; used by the Chord miss-fallback rules (spec.md §4.7). May be
	// nil, in which case those rules treat every key as not held.
	StillHeld func(keyevent.KeyId) bool
}

func (c Context) held(key keyevent.KeyId) bool {
	return c.StillHeld != nil && c.StillHeld(key)
}

// Expander converts decisions into injectable events.
type Expander struct {
	Resolver *resolver.Resolver
	IME      ime.Provider
}

// New builds an Expander bound to a resolver and IME collaborator.
func New(r *resolver.Resolver, provider ime.Provider) *Expander {
	return &Expander{Resolver: r, IME: provider}
}

// Expand converts one decision into its injectable event sequence
// (spec.md §4.7).
func (e *Expander) Expand(d keyevent.Decision, ctx Context) []hook.InputEvent {
	switch d.Kind {
	case keyevent.DecisionPassthrough:
		return []hook.InputEvent{hook.Scancode(d.Key.Scancode, d.Key.Extended, d.Edge == keyevent.Up)}
	case keyevent.DecisionTap:
		return e.expandTap(d.Key, ctx)
	case keyevent.DecisionChord:
		return e.expandChord(d.Keys, ctx)
	default:
		// LatchOn/LatchOff carry no output; the CSM already updated its own
		// latch state before producing the decision.
		return nil
	}
}

func (e *Expander) expandTap(key keyevent.KeyId, ctx Context) []hook.InputEvent {
	res, ok := e.Resolver.Resolve([]keyevent.KeyId{key}, ctx.State, ctx.LatchKind, ctx.LatchTag)
	if !ok {
		return []hook.InputEvent{
			hook.Scancode(key.Scancode, key.Extended, false),
			hook.Scancode(key.Scancode, key.Extended, true),
		}
	}
	return e.expandToken(res.Token, ctx)
}

// expandChord resolves a chord (or miss-falls-back per spec.md §4.7):
//   - continuous-shift char pair, older still held, newer not: emit only
//     the newer key's single resolution.
//   - older already up, newer still held: suppress older entirely, the
//     newer key's own Up will resolve it later.
//   - otherwise: emit each key's single-key resolution in order.
func (e *Expander) expandChord(keys []keyevent.KeyId, ctx Context) []hook.InputEvent {
	res, ok := e.Resolver.Resolve(keys, ctx.State, ctx.LatchKind, ctx.LatchTag)
	if ok {
		return e.expandToken(res.Token, ctx)
	}

	if len(keys) == 2 {
		older, newer := keys[0], keys[1]
		olderHeld, newerHeld := ctx.held(older), ctx.held(newer)
		switch {
		case olderHeld && !newerHeld:
			return e.expandTap(newer, ctx)
		case !olderHeld && newerHeld:
			return nil
		}
	}

	var out []hook.InputEvent
	for _, k := range keys {
		out = append(out, e.expandTap(k, ctx)...)
	}
	return out
}

// ExpandToken expands an already-resolved token directly, for callers
// (the repeat planner) that resolve their own reconstructed key list
// rather than going through a CSM Decision.
func (e *Expander) ExpandToken(tok layout.Token, ctx Context) []hook.InputEvent {
	return e.expandToken(tok, ctx)
}

func (e *Expander) expandToken(tok layout.Token, ctx Context) []hook.InputEvent {
	switch tok.Kind {
	case layout.TokenKeySequence:
		var out []hook.InputEvent
		for _, stroke := range tok.Sequence {
			out = append(out, e.expandKeyStroke(stroke, ctx)...)
		}
		return out
	case layout.TokenImeChar:
		return expandUnicodeText(tok.Text)
	case layout.TokenDirectChar:
		return e.expandDirectChar(tok.Text)
	default:
		return nil
	}
}

func (e *Expander) expandKeyStroke(stroke layout.KeyStroke, ctx Context) []hook.InputEvent {
	var key keyevent.KeyId
	var needsShift bool

	switch stroke.Key.Kind {
	case layout.SpecChar:
		sc, shift, ok := charScancode(stroke.Key.Char)
		if !ok {
			return nil
		}
		key, needsShift = sc, shift
	case layout.SpecScancode:
		key = stroke.Key.Scancode
	case layout.SpecVirtualKey:
		key = keyevent.KeyId{Scancode: uint16(stroke.Key.VKey)}
	case layout.SpecImeOn:
		return []hook.InputEvent{hook.ImeControl(true)}
	case layout.SpecImeOff:
		return []hook.InputEvent{hook.ImeControl(false)}
	default:
		return nil
	}

	synthesizeShift := (stroke.Mods.Shift || needsShift) && !ctx.PhysicalShiftHeld

	var out []hook.InputEvent
	if stroke.Mods.Ctrl {
		out = append(out, hook.Scancode(leftCtrlKey.Scancode, leftCtrlKey.Extended, false))
	}
	if stroke.Mods.Alt {
		out = append(out, hook.Scancode(leftAltKey.Scancode, leftAltKey.Extended, false))
	}
	if stroke.Mods.Win {
		out = append(out, hook.Scancode(leftWinKey.Scancode, leftWinKey.Extended, false))
	}
	if synthesizeShift {
		out = append(out, hook.Scancode(leftShiftKey.Scancode, leftShiftKey.Extended, false))
	}

	out = append(out, hook.Scancode(key.Scancode, key.Extended, false))
	out = append(out, hook.Scancode(key.Scancode, key.Extended, true))

	if synthesizeShift {
		out = append(out, hook.Scancode(leftShiftKey.Scancode, leftShiftKey.Extended, true))
	}
	if stroke.Mods.Win {
		out = append(out, hook.Scancode(leftWinKey.Scancode, leftWinKey.Extended, true))
	}
	if stroke.Mods.Alt {
		out = append(out, hook.Scancode(leftAltKey.Scancode, leftAltKey.Extended, true))
	}
	if stroke.Mods.Ctrl {
		out = append(out, hook.Scancode(leftCtrlKey.Scancode, leftCtrlKey.Extended, true))
	}

	return out
}

func expandUnicodeText(text string) []hook.InputEvent {
	var out []hook.InputEvent
	for _, r := range text {
		out = append(out, hook.Unicode(r, false), hook.Unicode(r, true))
	}
	return out
}

// expandDirectChar wraps the text in an IME-off/IME-on pair when the IME
// currently reports Japanese input open, so the text commits literally
// instead of being consumed as IME input (spec.md §4.7 DirectChar).
func (e *Expander) expandDirectChar(text string) []hook.InputEvent {
	japaneseOpen := e.IME != nil && e.IME.IsJapaneseActive()

	var out []hook.InputEvent
	if japaneseOpen {
		out = append(out, hook.ImeControl(false))
	}
	out = append(out, expandUnicodeText(text)...)
	if japaneseOpen {
		out = append(out, hook.ImeControl(true))
	}
	return out
}
