package resolver

import (
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/modifier"
)

// Result is the plane resolver's output: an optional token plus, when a
// chord resolved, which key played the "modifier" role for the purpose of
// continuous-shift retention bookkeeping (spec.md §4.4).
type Result struct {
	Token       layout.Token
	ModifierKey keyevent.KeyId
	HasModifier bool
}

// Resolver maps a (possibly multi-key) chord to an output token via the
// installed layout's sections and sub-planes.
type Resolver struct {
	Layout     *layout.Layout
	Classifier modifier.Classifier
}

// New builds a Resolver bound to the given layout and classifier. Callers
// rebuild it whenever either changes (spec.md §4.9).
func New(l *layout.Layout, c modifier.Classifier) *Resolver {
	return &Resolver{Layout: l, Classifier: c}
}

// Resolve implements spec.md §4.4 steps 1-5: select a section from state,
// strip thumb modifiers from keys to get the lookup list, then dispatch on
// its length. latchKind/latchTag carry the CSM's currently armed latch,
// consulted only for a single-key lookup.
func (r *Resolver) Resolve(keys []keyevent.KeyId, state ModalState, latchKind keyevent.LatchKind, latchTag string) (Result, bool) {
	if r.Layout == nil {
		return Result{}, false
	}

	section, ok := r.Layout.Section(SectionName(state))
	if !ok {
		return Result{}, false
	}

	lookup := make([]keyevent.KeyId, 0, len(keys))
	for _, k := range keys {
		if r.Classifier.Classify(k).IsThumb() {
			continue
		}
		lookup = append(lookup, k)
	}

	switch len(lookup) {
	case 1:
		return r.resolveSingle(section, lookup[0], latchKind, latchTag)
	case 2:
		return r.resolvePair(section, lookup[0], lookup[1])
	case 3:
		return r.resolveTriple(section, lookup)
	default:
		return Result{}, false
	}
}

func (r *Resolver) resolveSingle(section layout.Section, key keyevent.KeyId, latchKind keyevent.LatchKind, latchTag string) (Result, bool) {
	rc, ok := layout.ScancodeToRC(key)
	if !ok {
		return Result{}, false
	}

	if latchTag != "" && (latchKind == keyevent.LatchOneShot || latchKind == keyevent.LatchLock) {
		if plane, ok := section.SubPlane(latchTag); ok {
			if tok := plane.Lookup(rc); !tok.IsNone() {
				return Result{Token: tok}, true
			}
		}
	}

	tok := section.BasePlane.Lookup(rc)
	if tok.IsNone() {
		return Result{}, false
	}
	return Result{Token: tok}, true
}

func (r *Resolver) resolvePair(section layout.Section, a, b keyevent.KeyId) (Result, bool) {
	orderings := [2][2]keyevent.KeyId{{a, b}, {b, a}}
	for _, ord := range orderings {
		mod, other := ord[0], ord[1]
		plane, ok := r.lookupTag(section, []keyevent.KeyId{mod})
		if !ok {
			continue
		}
		rc, ok := layout.ScancodeToRC(other)
		if !ok {
			continue
		}
		if tok := plane.Lookup(rc); !tok.IsNone() {
			return Result{Token: tok, ModifierKey: mod, HasModifier: true}, true
		}
	}
	return Result{}, false
}

// resolveTriple tries all six (mod1, mod2, remaining) permutations of a
// 3-key lookup list (spec.md §4.4 step 5).
func (r *Resolver) resolveTriple(section layout.Section, keys []keyevent.KeyId) (Result, bool) {
	if len(keys) != 3 {
		return Result{}, false
	}
	perms := [6][3]int{
		{0, 1, 2}, {1, 0, 2},
		{0, 2, 1}, {2, 0, 1},
		{1, 2, 0}, {2, 1, 0},
	}
	for _, p := range perms {
		mod1, mod2, rest := keys[p[0]], keys[p[1]], keys[p[2]]
		plane, ok := r.lookupTag(section, []keyevent.KeyId{mod1, mod2})
		if !ok {
			continue
		}
		rc, ok := layout.ScancodeToRC(rest)
		if !ok {
			continue
		}
		if tok := plane.Lookup(rc); !tok.IsNone() {
			return Result{Token: tok, ModifierKey: mod1, HasModifier: true}, true
		}
	}
	return Result{}, false
}

// lookupTag finds the sub-plane whose tag decodes (via the layout's
// TagKeys index) to exactly modKeys, in order.
func (r *Resolver) lookupTag(section layout.Section, modKeys []keyevent.KeyId) (layout.Plane, bool) {
	for tag, plane := range section.SubPlanes {
		keys, ok := r.Layout.TagKeys[tag]
		if !ok || len(keys) != len(modKeys) {
			continue
		}
		match := true
		for i := range keys {
			if keys[i] != modKeys[i] {
				match = false
				break
			}
		}
		if match {
			return plane, true
		}
	}
	return nil, false
}
