// Package layout holds the layout data model: planes, sections, tokens and
// the derived indexes the rest of the engine consults on every event. See
// spec.md §3 and §4.9.
package layout

import "nitro-core-dx/internal/keyevent"

// RC is a (row, col) coordinate inside a plane. Rows 0..3 cover a JIS
// 5-row block minus the space row.
type RC struct {
	Row int
	Col int
}

// KeySpecKind distinguishes the payload a KeyStroke synthesizes.
type KeySpecKind int

const (
	SpecChar KeySpecKind = iota
	SpecScancode
	SpecVirtualKey
	SpecImeOn
	SpecImeOff
)

// KeySpec is the "key" half of a KeyStroke (spec.md §3).
type KeySpec struct {
	Kind     KeySpecKind
	Char     rune
	Scancode keyevent.KeyId
	VKey     uint8
}

// Mods are the modifier-down wrappers a KeyStroke synthesizes around its
// key (spec.md §3).
type Mods struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
}

// KeyStroke is one synthesized physical key press+release, optionally
// wrapped in modifier down/up events.
type KeyStroke struct {
	Key  KeySpec
	Mods Mods
}

// TokenKind distinguishes the four Token variants of spec.md §3.
type TokenKind int

const (
	TokenNone TokenKind = iota
	TokenKeySequence
	TokenImeChar
	TokenDirectChar
)

// Token is a layout cell's payload.
type Token struct {
	Kind     TokenKind
	Sequence []KeyStroke // TokenKeySequence
	Text     string      // TokenImeChar / TokenDirectChar
}

// IsNone reports whether the token is the unmapped-cell sentinel.
func (t Token) IsNone() bool {
	return t.Kind == TokenNone
}

// Plane is a sparse (row, col) -> Token map. Keys are unique per RC.
type Plane map[RC]Token

// Lookup returns the token at rc, or the zero (None) token if absent.
func (p Plane) Lookup(rc RC) Token {
	if p == nil {
		return Token{Kind: TokenNone}
	}
	if t, ok := p[rc]; ok {
		return t
	}
	return Token{Kind: TokenNone}
}

// Section is a full plane set for one (IME, physical-shift, held-thumb)
// combination: a base plane plus sub-planes keyed by modifier tag.
type Section struct {
	Name      string
	BasePlane Plane
	SubPlanes map[string]Plane // tag -> plane, tag is "<key>" or "<keyA><keyB>"
}

// SubPlane returns the sub-plane for tag, or nil if the section has none.
func (s Section) SubPlane(tag string) (Plane, bool) {
	p, ok := s.SubPlanes[tag]
	return p, ok
}

// FunctionSwap maps a physical key to its replacement (spec.md §4.8,
// §6 "[機能キー]").
type FunctionSwap struct {
	Source keyevent.KeyId
	Target keyevent.KeyId
}

// Layout is the full parsed/installed layout, including the indexes derived
// once at load time (spec.md §4.9).
type Layout struct {
	DisplayName   string
	Sections      map[string]Section // keyed by Japanese section name
	FunctionSwaps []FunctionSwap

	// MaxChordSize is 2 or 3: 3 iff any sub-plane tag names two keys.
	MaxChordSize int

	// Derived indexes, rebuilt whenever the layout is installed.
	TargetKeys   map[keyevent.KeyId]bool
	TriggerKeys  map[keyevent.KeyId]bool
	HasThumbShift bool

	// FunctionSwapMap is FunctionSwaps indexed by source for O(1) lookup.
	FunctionSwapMap map[keyevent.KeyId]keyevent.KeyId

	// TagKeys decodes each sub-plane tag string (as written in the layout
	// file, e.g. "<k>" or "<q><w>") into the ordered KeyIds it names.
	// Populated by the parser; consulted by the plane resolver so it never
	// has to re-parse a tag string on the hot path.
	TagKeys map[string][]keyevent.KeyId
}

// Empty returns a Layout with no sections, suitable as a placeholder before
// the first layout file is loaded.
func Empty() *Layout {
	return &Layout{
		Sections:        map[string]Section{},
		MaxChordSize:    2,
		TargetKeys:      map[keyevent.KeyId]bool{},
		TriggerKeys:     map[keyevent.KeyId]bool{},
		FunctionSwapMap: map[keyevent.KeyId]keyevent.KeyId{},
		TagKeys:         map[string][]keyevent.KeyId{},
	}
}

// Section looks up a section by name.
func (l *Layout) Section(name string) (Section, bool) {
	if l == nil {
		return Section{}, false
	}
	s, ok := l.Sections[name]
	return s, ok
}

// IsTarget reports whether key is touched by any plane in the layout.
func (l *Layout) IsTarget(key keyevent.KeyId) bool {
	if l == nil {
		return false
	}
	return l.TargetKeys[key]
}

// IsTrigger reports whether key appears inside any sub-plane tag.
func (l *Layout) IsTrigger(key keyevent.KeyId) bool {
	if l == nil {
		return false
	}
	return l.TriggerKeys[key]
}

// ResolveFunctionSwap returns the function-key-swap target for key, or key
// itself if untouched.
func (l *Layout) ResolveFunctionSwap(key keyevent.KeyId) keyevent.KeyId {
	if l == nil {
		return key
	}
	if t, ok := l.FunctionSwapMap[key]; ok {
		return t
	}
	return key
}
