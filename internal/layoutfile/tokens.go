package layoutfile

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
)

// specialScancodes maps the fixed scancode keywords of spec.md §6 to the
// key they expand to; the IME-control keywords 日/英 are handled separately
// in parseBareIdentifier. Arrow/navigation keys use the "extended" PS/2
// Set-1 codes.
var specialScancodes = map[rune]keyevent.KeyId{
	'逃': {Scancode: 0x01},                  // Esc
	'入': {Scancode: 0x1C},                  // Enter
	'空': {Scancode: 0x39},                  // Space
	'後': {Scancode: 0x0E},                  // BackSpace
	'消': {Scancode: 0x53, Extended: true},  // Delete
	'挿': {Scancode: 0x52, Extended: true},  // Insert
	'上': {Scancode: 0x48, Extended: true},  // Up
	'下': {Scancode: 0x50, Extended: true},  // Down
	'左': {Scancode: 0x4B, Extended: true},  // Left
	'右': {Scancode: 0x4D, Extended: true},  // Right
	'家': {Scancode: 0x47, Extended: true},  // Home
	'終': {Scancode: 0x4F, Extended: true},  // End
	'前': {Scancode: 0x49, Extended: true},  // PageUp
	'次': {Scancode: 0x51, Extended: true},  // PageDown
	'変': {Scancode: 0x79},                  // Convert
}

// parseCell parses one comma-separated cell body into a layout.Token
// (spec.md §6).
func parseCell(cell string) (layout.Token, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "無" || cell == "xx" {
		return layout.Token{Kind: layout.TokenNone}, nil
	}
	if len(cell) >= 2 && strings.HasPrefix(cell, `"`) && strings.HasSuffix(cell, `"`) {
		return layout.Token{Kind: layout.TokenDirectChar, Text: cell[1 : len(cell)-1]}, nil
	}
	if len(cell) >= 2 && strings.HasPrefix(cell, "'") && strings.HasSuffix(cell, "'") {
		return layout.Token{Kind: layout.TokenImeChar, Text: cell[1 : len(cell)-1]}, nil
	}
	return parseBareIdentifier(cell)
}

// parseBareIdentifier implements the bare-identifier expansion rule of
// spec.md §6: leading C/S/A/W letters accumulate as modifiers onto the
// single key/keyword/sequence that follows, the remainder is
// fullwidth-normalized, then dispatched as a special keyword, a function
// key (機N), a virtual key (VHH), or kana/romaji text.
func parseBareIdentifier(s string) (layout.Token, error) {
	mods, rest := extractModifierPrefix(s)
	rest = width.Narrow.String(rest)

	if rest == "" {
		return layout.Token{}, fmt.Errorf("empty identifier after modifier prefix %q", s)
	}

	runes := []rune(rest)
	if len(runes) == 1 {
		if sc, ok := specialScancodes[runes[0]]; ok {
			return layout.Token{Kind: layout.TokenKeySequence, Sequence: []layout.KeyStroke{{
				Key: layout.KeySpec{Kind: layout.SpecScancode, Scancode: sc}, Mods: mods,
			}}}, nil
		}
		switch runes[0] {
		case '日':
			return layout.Token{Kind: layout.TokenKeySequence, Sequence: []layout.KeyStroke{{
				Key: layout.KeySpec{Kind: layout.SpecImeOn},
			}}}, nil
		case '英':
			return layout.Token{Kind: layout.TokenKeySequence, Sequence: []layout.KeyStroke{{
				Key: layout.KeySpec{Kind: layout.SpecImeOff},
			}}}, nil
		}
	}

	if strings.HasPrefix(rest, "機") {
		n, err := strconv.Atoi(rest[len("機"):])
		if err != nil {
			return layout.Token{}, fmt.Errorf("malformed function-key token %q: %w", rest, err)
		}
		if n < 1 || n > 24 {
			return layout.Token{}, fmt.Errorf("function-key token %q out of range (F1-F24)", rest)
		}
		return layout.Token{Kind: layout.TokenKeySequence, Sequence: []layout.KeyStroke{{
			Key: layout.KeySpec{Kind: layout.SpecVirtualKey, VKey: uint8(0x70 + (n - 1))}, Mods: mods,
		}}}, nil
	}

	if strings.HasPrefix(rest, "V") && len(rest) == 3 {
		v, err := strconv.ParseUint(rest[1:], 16, 8)
		if err != nil {
			return layout.Token{}, fmt.Errorf("malformed virtual-key token %q: %w", rest, err)
		}
		return layout.Token{Kind: layout.TokenKeySequence, Sequence: []layout.KeyStroke{{
			Key: layout.KeySpec{Kind: layout.SpecVirtualKey, VKey: uint8(v)}, Mods: mods,
		}}}, nil
	}

	romaji := expandRomaji(rest)
	seq := make([]layout.KeyStroke, 0, len(romaji))
	for _, r := range romaji {
		seq = append(seq, layout.KeyStroke{
			Key:  layout.KeySpec{Kind: layout.SpecChar, Char: r},
			Mods: mods,
		})
	}
	return layout.Token{Kind: layout.TokenKeySequence, Sequence: seq}, nil
}

// extractModifierPrefix strips a leading run of C/S/A/W letters (any
// combination, any order) and returns the accumulated Mods plus the
// remaining identifier text.
func extractModifierPrefix(s string) (layout.Mods, string) {
	var mods layout.Mods
	i := 0
	for i < len(s) {
		switch s[i] {
		case 'C':
			mods.Ctrl = true
		case 'S':
			mods.Shift = true
		case 'A':
			mods.Alt = true
		case 'W':
			mods.Win = true
		default:
			return mods, s[i:]
		}
		i++
	}
	return mods, s[i:]
}

// parseKeyToken parses one side of a [機能キー] swap row: either a special
// keyword or a VHH code, taken as the scancode 0xHH. Any other text,
// including a bare ASCII letter or digit, is rejected with an error.
func parseKeyToken(s string) (keyevent.KeyId, error) {
	s = width.Narrow.String(strings.TrimSpace(s))
	runes := []rune(s)
	if len(runes) == 1 {
		if sc, ok := specialScancodes[runes[0]]; ok {
			return sc, nil
		}
	}
	if strings.HasPrefix(s, "V") && len(s) == 3 {
		v, err := strconv.ParseUint(s[1:], 16, 8)
		if err != nil {
			return keyevent.KeyId{}, fmt.Errorf("malformed virtual key %q: %w", s, err)
		}
		return keyevent.KeyId{Scancode: uint16(v)}, nil
	}
	return keyevent.KeyId{}, fmt.Errorf("unrecognized function-key-swap token %q", s)
}
