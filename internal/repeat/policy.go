package repeat

import (
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/profile"
)

// IsCharacterAssignment reports whether tok counts as a "character
// assignment" for repeat-policy purposes (spec.md §4.6 step 2): ImeChar,
// DirectChar, or a length-1 KeySequence whose single stroke is a plain
// character with no synthesized modifiers.
func IsCharacterAssignment(tok layout.Token) bool {
	switch tok.Kind {
	case layout.TokenImeChar, layout.TokenDirectChar:
		return true
	case layout.TokenKeySequence:
		if len(tok.Sequence) != 1 {
			return false
		}
		stroke := tok.Sequence[0]
		if stroke.Key.Kind != layout.SpecChar {
			return false
		}
		return !stroke.Mods.Ctrl && !stroke.Mods.Alt && !stroke.Mods.Win && !stroke.Mods.Shift
	default:
		return false
	}
}

// Allow reports whether repeating tok is permitted under p's repeat
// policy (spec.md §4.6 step 2).
func Allow(tok layout.Token, p profile.Profile) bool {
	if IsCharacterAssignment(tok) {
		return p.CharKeyRepeatAssigned
	}
	return p.CharKeyRepeatUnassigned
}
