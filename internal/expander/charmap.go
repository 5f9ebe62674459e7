package expander

import "nitro-core-dx/internal/keyevent"

// US QWERTY Set-1 scancodes for the ASCII alphabet and digits, the only
// alphabet the layout parser's kana-to-romaji expansion ever produces for
// a SpecChar KeySpec (spec.md §6 "bare identifiers expand to KeySequence
// with kana-to-romaji expansion").
var letterScancodes = map[rune]uint16{
	'q': 0x10, 'w': 0x11, 'e': 0x12, 'r': 0x13, 't': 0x14, 'y': 0x15, 'u': 0x16,
	'i': 0x17, 'o': 0x18, 'p': 0x19,
	'a': 0x1E, 's': 0x1F, 'd': 0x20, 'f': 0x21, 'g': 0x22, 'h': 0x23, 'j': 0x24,
	'k': 0x25, 'l': 0x26,
	'z': 0x2C, 'x': 0x2D, 'c': 0x2E, 'v': 0x2F, 'b': 0x30, 'n': 0x31, 'm': 0x32,
}

var digitScancodes = map[rune]uint16{
	'1': 0x02, '2': 0x03, '3': 0x04, '4': 0x05, '5': 0x06,
	'6': 0x07, '7': 0x08, '8': 0x09, '9': 0x0A, '0': 0x0B,
}

const minusScancode uint16 = 0x0C

// charScancode maps an ASCII rune to the physical key and whether Shift
// must be held to produce it, or ok=false if the rune has no mapping.
func charScancode(r rune) (key keyevent.KeyId, needsShift bool, ok bool) {
	if r >= 'A' && r <= 'Z' {
		if code, found := letterScancodes[r-'A'+'a']; found {
			return keyevent.KeyId{Scancode: code}, true, true
		}
		return keyevent.KeyId{}, false, false
	}
	if code, found := letterScancodes[r]; found {
		return keyevent.KeyId{Scancode: code}, false, true
	}
	if code, found := digitScancodes[r]; found {
		return keyevent.KeyId{Scancode: code}, false, true
	}
	if r == '_' {
		return keyevent.KeyId{Scancode: minusScancode}, true, true
	}
	if r == '-' {
		return keyevent.KeyId{Scancode: minusScancode}, false, true
	}
	return keyevent.KeyId{}, false, false
}
