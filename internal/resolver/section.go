// Package resolver implements the section selector and plane resolver of
// spec.md §4.3 and §4.4: turning modal state plus a 1-, 2-, or 3-key list
// into an output token.
package resolver

// ModalState is the section selector's input (spec.md §4.3): IME mode,
// physical shift, and which thumb keys are currently held.
type ModalState struct {
	IMEJapanese   bool
	PhysicalShift bool
	ThumbLeft     bool
	ThumbRight    bool
	Ext1          bool
	Ext2          bool
}

const (
	prefixJapanese = "ローマ字"
	prefixAlpha    = "英数"

	suffixNone            = "シフト無し"
	suffixLeftThumb       = "左親指シフト"
	suffixRightThumb      = "右親指シフト"
	suffixPinky           = "小指シフト"
	suffixPinkyLeftThumb  = "小指左親指シフト"
	suffixPinkyRightThumb = "小指右親指シフト"

	sectionExt1 = "拡張親指シフト1"
	sectionExt2 = "拡張親指シフト2"
)

// SectionName computes the section-name string for s, per the fixed
// prefix/suffix table of spec.md §4.3, including the Ext1/Ext2 override.
func SectionName(s ModalState) string {
	if s.IMEJapanese && !s.ThumbLeft && !s.ThumbRight {
		if s.Ext1 {
			return sectionExt1
		}
		if s.Ext2 {
			return sectionExt2
		}
	}

	prefix := prefixAlpha
	if s.IMEJapanese {
		prefix = prefixJapanese
	}

	var suffix string
	switch {
	case s.PhysicalShift && s.ThumbLeft:
		suffix = suffixPinkyLeftThumb
	case s.PhysicalShift && s.ThumbRight:
		suffix = suffixPinkyRightThumb
	case s.PhysicalShift:
		suffix = suffixPinky
	case s.ThumbLeft:
		suffix = suffixLeftThumb
	case s.ThumbRight:
		suffix = suffixRightThumb
	default:
		suffix = suffixNone
	}

	return prefix + suffix
}
