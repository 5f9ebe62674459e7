// Package modifier classifies keys into the engine's modifier taxonomy.
// See spec.md §4.2.
package modifier

import "nitro-core-dx/internal/keyevent"

// Kind is the tagged variant spec.md §3 calls ModifierKind.
type Kind int

const (
	None Kind = iota
	ThumbLeft
	ThumbRight
	ThumbExt1
	ThumbExt2
	CharShift
)

func (k Kind) String() string {
	switch k {
	case ThumbLeft:
		return "thumb-left"
	case ThumbRight:
		return "thumb-right"
	case ThumbExt1:
		return "thumb-ext1"
	case ThumbExt2:
		return "thumb-ext2"
	case CharShift:
		return "char-shift"
	default:
		return "none"
	}
}

// IsThumb reports whether k is one of the four thumb modifier kinds.
func (k Kind) IsThumb() bool {
	switch k {
	case ThumbLeft, ThumbRight, ThumbExt1, ThumbExt2:
		return true
	default:
		return false
	}
}

// Classifier labels keys given the profile's four thumb-key selectors and
// the layout's derived trigger-key set. It holds no mutable state and is
// safe to share; rebuild it whenever the profile or layout changes
// (spec.md §4.9).
type Classifier struct {
	ThumbLeft    keyevent.KeyId
	ThumbRight   keyevent.KeyId
	ThumbExt1    keyevent.KeyId
	ThumbExt2    keyevent.KeyId
	HasThumbLeft  bool
	HasThumbRight bool
	HasThumbExt1  bool
	HasThumbExt2  bool
	TriggerKeys  map[keyevent.KeyId]bool
}

// Classify returns the first matching ModifierKind: the four thumb sets in
// order, then the trigger-key set, else None.
func (c Classifier) Classify(key keyevent.KeyId) Kind {
	if c.HasThumbLeft && key == c.ThumbLeft {
		return ThumbLeft
	}
	if c.HasThumbRight && key == c.ThumbRight {
		return ThumbRight
	}
	if c.HasThumbExt1 && key == c.ThumbExt1 {
		return ThumbExt1
	}
	if c.HasThumbExt2 && key == c.ThumbExt2 {
		return ThumbExt2
	}
	if c.TriggerKeys != nil && c.TriggerKeys[key] {
		return CharShift
	}
	return None
}

// IsModifier reports whether key classifies as anything other than None.
func (c Classifier) IsModifier(key keyevent.KeyId) bool {
	return c.Classify(key) != None
}
