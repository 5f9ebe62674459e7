package layoutfile

import (
	"strings"
	"testing"

	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
)

func TestParseDisplayNameAndBasePlane(t *testing.T) {
	src := ";Test Layout\n" +
		"[英数シフト無し]\n" +
		`"a","b"` + "\n"

	l, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if l.DisplayName != "Test Layout" {
		t.Errorf("expected display name %q, got %q", "Test Layout", l.DisplayName)
	}

	section, ok := l.Section("英数シフト無し")
	if !ok {
		t.Fatalf("expected section 英数シフト無し to exist")
	}
	tokA := section.BasePlane.Lookup(layout.RC{Row: 0, Col: 0})
	tokB := section.BasePlane.Lookup(layout.RC{Row: 0, Col: 1})
	if tokA.Kind != layout.TokenDirectChar || tokA.Text != "a" {
		t.Errorf("expected cell (0,0) to be DirectChar %q, got %+v", "a", tokA)
	}
	if tokB.Kind != layout.TokenDirectChar || tokB.Text != "b" {
		t.Errorf("expected cell (0,1) to be DirectChar %q, got %+v", "b", tokB)
	}
}

func TestParseNoneCellsAreSkipped(t *testing.T) {
	src := "[英数シフト無し]\n" + `無,"x",xx` + "\n"
	l, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	section, _ := l.Section("英数シフト無し")
	if tok := section.BasePlane.Lookup(layout.RC{Row: 0, Col: 0}); !tok.IsNone() {
		t.Errorf("expected column 0 (無) to be skipped/None, got %+v", tok)
	}
	if tok := section.BasePlane.Lookup(layout.RC{Row: 0, Col: 2}); !tok.IsNone() {
		t.Errorf("expected column 2 (xx) to be skipped/None, got %+v", tok)
	}
	if tok := section.BasePlane.Lookup(layout.RC{Row: 0, Col: 1}); tok.Text != "x" {
		t.Errorf("expected column 1 to be DirectChar %q, got %+v", "x", tok)
	}
}

func TestParseSubPlaneTag(t *testing.T) {
	src := "[ローマ字左親指シフト]\n" +
		"<k>\n" +
		`"い"` + "\n"

	l, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	keys, ok := l.TagKeys["<k>"]
	if !ok || len(keys) != 1 {
		t.Fatalf("expected tag <k> to decode to a single key, got %+v", keys)
	}

	section, ok := l.Section("ローマ字左親指シフト")
	if !ok {
		t.Fatalf("expected the section to exist")
	}
	plane, ok := section.SubPlane("<k>")
	if !ok {
		t.Fatalf("expected a sub-plane for tag <k>")
	}
	if tok := plane.Lookup(layout.RC{Row: 0, Col: 0}); tok.Text != "い" {
		t.Errorf("expected the sub-plane cell to hold %q, got %+v", "い", tok)
	}
	if !l.TriggerKeys[keys[0]] {
		t.Errorf("expected the tag's key to be registered as a trigger key")
	}
}

func TestParseFunctionKeySwap(t *testing.T) {
	src := "[機能キー]\n" + "V3B,V3C\n"
	l, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(l.FunctionSwaps) != 1 {
		t.Fatalf("expected one function-key swap, got %d", len(l.FunctionSwaps))
	}
	swap := l.FunctionSwaps[0]
	want := keyevent.KeyId{Scancode: 0x3B}
	if swap.Source != want {
		t.Errorf("expected swap source %v, got %v", want, swap.Source)
	}
	if got := l.ResolveFunctionSwap(want); got != (keyevent.KeyId{Scancode: 0x3C}) {
		t.Errorf("expected function swap to resolve to 0x3C, got %v", got)
	}
}

func TestParseRejectsCellRowOutsideSection(t *testing.T) {
	_, err := Parse(strings.NewReader(`"a"` + "\n"))
	if err == nil {
		t.Errorf("expected an error for a cell row with no preceding section header")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("expected a *ParseError, got %T", err)
	}
}

func TestParseRejectsSubPlaneHeaderOutsideSection(t *testing.T) {
	_, err := Parse(strings.NewReader("<k>\n"))
	if err == nil {
		t.Errorf("expected an error for a sub-plane header with no preceding section")
	}
}

func TestParseDirectAndImeCharTokens(t *testing.T) {
	src := "[英数シフト無し]\n" + `"direct",'ime'` + "\n"
	l, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	section, _ := l.Section("英数シフト無し")
	direct := section.BasePlane.Lookup(layout.RC{Row: 0, Col: 0})
	ime := section.BasePlane.Lookup(layout.RC{Row: 0, Col: 1})
	if direct.Kind != layout.TokenDirectChar {
		t.Errorf("expected column 0 to be a DirectChar token, got %+v", direct)
	}
	if ime.Kind != layout.TokenImeChar {
		t.Errorf("expected column 1 to be an ImeChar token, got %+v", ime)
	}
}
