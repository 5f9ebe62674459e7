package sdlhook

import "github.com/veandco/go-sdl2/sdl"

// ps2Code pairs a PS/2 Set-1 scancode with its extended-prefix flag.
type ps2Code struct {
	code     uint16
	extended bool
}

// sdlToPS2 maps the SDL scancodes the engine cares about to PS/2 Set-1
// codes, the scancode space spec.md's layout files and internal/layout's
// JIS row table are both defined in terms of. Media/lesser keys not
// reachable from a layout plane are simply absent.
var sdlToPS2 = map[sdl.Scancode]ps2Code{
	sdl.SCANCODE_1: {0x02, false}, sdl.SCANCODE_2: {0x03, false},
	sdl.SCANCODE_3: {0x04, false}, sdl.SCANCODE_4: {0x05, false},
	sdl.SCANCODE_5: {0x06, false}, sdl.SCANCODE_6: {0x07, false},
	sdl.SCANCODE_7: {0x08, false}, sdl.SCANCODE_8: {0x09, false},
	sdl.SCANCODE_9: {0x0A, false}, sdl.SCANCODE_0: {0x0B, false},
	sdl.SCANCODE_MINUS: {0x0C, false}, sdl.SCANCODE_EQUALS: {0x0D, false},
	sdl.SCANCODE_BACKSPACE: {0x0E, false}, sdl.SCANCODE_TAB: {0x0F, false},

	sdl.SCANCODE_Q: {0x10, false}, sdl.SCANCODE_W: {0x11, false},
	sdl.SCANCODE_E: {0x12, false}, sdl.SCANCODE_R: {0x13, false},
	sdl.SCANCODE_T: {0x14, false}, sdl.SCANCODE_Y: {0x15, false},
	sdl.SCANCODE_U: {0x16, false}, sdl.SCANCODE_I: {0x17, false},
	sdl.SCANCODE_O: {0x18, false}, sdl.SCANCODE_P: {0x19, false},
	sdl.SCANCODE_LEFTBRACKET: {0x1A, false}, sdl.SCANCODE_RIGHTBRACKET: {0x1B, false},
	sdl.SCANCODE_RETURN: {0x1C, false},

	sdl.SCANCODE_LCTRL: {0x1D, false},
	sdl.SCANCODE_A:     {0x1E, false}, sdl.SCANCODE_S: {0x1F, false},
	sdl.SCANCODE_D: {0x20, false}, sdl.SCANCODE_F: {0x21, false},
	sdl.SCANCODE_G: {0x22, false}, sdl.SCANCODE_H: {0x23, false},
	sdl.SCANCODE_J: {0x24, false}, sdl.SCANCODE_K: {0x25, false},
	sdl.SCANCODE_L:         {0x26, false},
	sdl.SCANCODE_SEMICOLON: {0x27, false}, sdl.SCANCODE_APOSTROPHE: {0x28, false},
	sdl.SCANCODE_GRAVE: {0x29, false},

	sdl.SCANCODE_LSHIFT:    {0x2A, false},
	sdl.SCANCODE_BACKSLASH: {0x2B, false},
	sdl.SCANCODE_Z:         {0x2C, false}, sdl.SCANCODE_X: {0x2D, false},
	sdl.SCANCODE_C: {0x2E, false}, sdl.SCANCODE_V: {0x2F, false},
	sdl.SCANCODE_B: {0x30, false}, sdl.SCANCODE_N: {0x31, false},
	sdl.SCANCODE_M:      {0x32, false},
	sdl.SCANCODE_COMMA:  {0x33, false},
	sdl.SCANCODE_PERIOD: {0x34, false},
	sdl.SCANCODE_SLASH:  {0x35, false},
	sdl.SCANCODE_RSHIFT: {0x36, false},
	sdl.SCANCODE_LALT:   {0x38, false},
	sdl.SCANCODE_SPACE:  {0x39, false},
	sdl.SCANCODE_CAPSLOCK: {0x3A, false},

	sdl.SCANCODE_F1: {0x3B, false}, sdl.SCANCODE_F2: {0x3C, false},
	sdl.SCANCODE_F3: {0x3D, false}, sdl.SCANCODE_F4: {0x3E, false},
	sdl.SCANCODE_F5: {0x3F, false}, sdl.SCANCODE_F6: {0x40, false},
	sdl.SCANCODE_F7: {0x41, false}, sdl.SCANCODE_F8: {0x42, false},
	sdl.SCANCODE_F9: {0x43, false}, sdl.SCANCODE_F10: {0x44, false},
	sdl.SCANCODE_NUMLOCKCLEAR: {0x45, false}, sdl.SCANCODE_SCROLLLOCK: {0x46, false},
	sdl.SCANCODE_F11: {0x57, false}, sdl.SCANCODE_F12: {0x58, false},

	sdl.SCANCODE_RCTRL: {0x1D, true}, sdl.SCANCODE_RALT: {0x38, true},
	sdl.SCANCODE_UP:    {0x48, true}, sdl.SCANCODE_LEFT: {0x4B, true},
	sdl.SCANCODE_RIGHT: {0x4D, true}, sdl.SCANCODE_DOWN: {0x50, true},
	sdl.SCANCODE_INSERT: {0x52, true}, sdl.SCANCODE_DELETE: {0x53, true},
	sdl.SCANCODE_HOME: {0x47, true}, sdl.SCANCODE_END: {0x4F, true},
	sdl.SCANCODE_PAGEUP: {0x49, true}, sdl.SCANCODE_PAGEDOWN: {0x51, true},
	sdl.SCANCODE_LGUI: {0x5B, true}, sdl.SCANCODE_RGUI: {0x5C, true},
	sdl.SCANCODE_APPLICATION: {0x5D, true},
}

var ps2ToSdl = func() map[ps2Code]sdl.Scancode {
	m := make(map[ps2Code]sdl.Scancode, len(sdlToPS2))
	for sc, ps2 := range sdlToPS2 {
		m[ps2] = sc
	}
	return m
}()

func scancodeToPS2(sc sdl.Scancode) (code uint16, extended bool, ok bool) {
	p, ok := sdlToPS2[sc]
	if !ok {
		return 0, false, false
	}
	return p.code, p.extended, true
}

func ps2ToScancode(code uint16, extended bool) (sdl.Scancode, bool) {
	sc, ok := ps2ToSdl[ps2Code{code, extended}]
	return sc, ok
}
