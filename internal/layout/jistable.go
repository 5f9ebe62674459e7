package layout

import "nitro-core-dx/internal/keyevent"

// jisRows holds the PS/2 Set-1 scancodes for the four JIS keyboard rows the
// engine maps planes onto (spec.md §3: "Rows 0..3 cover a JIS 5-row block
// minus the space row"). Row 0 is the number row, row 1 the "qwerty" row,
// row 2 the home row, row 3 the bottom row.
var jisRows = [4][]uint16{
	{0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D},
	{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1A, 0x1B},
	{0x1E, 0x1F, 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x2B},
	{0x2C, 0x2D, 0x2E, 0x2F, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35},
}

var (
	scancodeToRC = map[keyevent.KeyId]RC{}
	rcToScancode = map[RC]keyevent.KeyId{}
)

func init() {
	for row, codes := range jisRows {
		for col, code := range codes {
			key := keyevent.KeyId{Scancode: code}
			rc := RC{Row: row, Col: col}
			scancodeToRC[key] = rc
			rcToScancode[rc] = key
		}
	}
}

// ScancodeToRC converts a physical key to its JIS (row, col), if it falls
// within the mapped block.
func ScancodeToRC(key keyevent.KeyId) (RC, bool) {
	rc, ok := scancodeToRC[key]
	return rc, ok
}

// RCToScancode is the inverse of ScancodeToRC.
func RCToScancode(rc RC) (keyevent.KeyId, bool) {
	key, ok := rcToScancode[rc]
	return key, ok
}
