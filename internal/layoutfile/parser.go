// Package layoutfile parses the text layout-file format of spec.md §6 into
// an *layout.Layout, grounded on the teacher's bufio.Scanner-based line
// format readers (internal/rom's cartridge header parsing) generalized to
// a richer line grammar.
package layoutfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
)

// ParseError reports the line a layout file failed to parse at (spec.md §7
// "parse errors name the offending line").
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("layoutfile:%d: %s", e.Line, e.Message)
}

// sectionBuilder accumulates the rows seen for one [name] section until the
// next header line closes it out.
type sectionBuilder struct {
	name      string
	base      layout.Plane
	subPlanes map[string]layout.Plane
	tagOrder  []string
}

func newSectionBuilder(name string) *sectionBuilder {
	return &sectionBuilder{name: name, base: layout.Plane{}, subPlanes: map[string]layout.Plane{}}
}

func (b *sectionBuilder) plane(tag string) layout.Plane {
	if tag == "" {
		return b.base
	}
	p, ok := b.subPlanes[tag]
	if !ok {
		p = layout.Plane{}
		b.subPlanes[tag] = p
		b.tagOrder = append(b.tagOrder, tag)
	}
	return p
}

func (b *sectionBuilder) build() layout.Section {
	return layout.Section{Name: b.name, BasePlane: b.base, SubPlanes: b.subPlanes}
}

// qwertyRows labels the four JIS rows (spec.md §3's row 0..3 number/qwerty/
// home/bottom rows) with the conventional letters a sub-plane tag names a
// physical key by, e.g. "<k>" means the physical key under the 'k' label.
var qwertyRows = [4]string{
	"1234567890-^",
	"qwertyuiop@[",
	"asdfghjkl;:]",
	"zxcvbnm,./",
}

var letterToRC = func() map[rune]layout.RC {
	m := map[rune]layout.RC{}
	for row, letters := range qwertyRows {
		for col, r := range letters {
			m[r] = layout.RC{Row: row, Col: col}
		}
	}
	return m
}()

// decodeTag parses a sub-plane header's tag groups, as split out by
// splitTagGroups (e.g. ["k"] from "<k>" or ["q", "w"] from "<q><w>"), into
// the ordered physical keys they name.
func decodeTag(groups []string) ([]keyevent.KeyId, error) {
	keys := make([]keyevent.KeyId, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if len([]rune(g)) == 1 {
			if rc, ok := letterToRC[[]rune(g)[0]]; ok {
				key, ok := layout.RCToScancode(rc)
				if !ok {
					return nil, fmt.Errorf("tag key %q has no physical key mapping", g)
				}
				keys = append(keys, key)
				continue
			}
		}
		key, err := parseKeyToken(g)
		if err != nil {
			return nil, fmt.Errorf("unrecognized tag key %q: %w", g, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// splitTagGroups splits "<k>" or "<q><w>" into ["k", "q", "w"].
func splitTagGroups(tag string) []string {
	var groups []string
	var cur strings.Builder
	inGroup := false
	for _, r := range tag {
		switch r {
		case '<':
			inGroup = true
			cur.Reset()
		case '>':
			if inGroup {
				groups = append(groups, cur.String())
				inGroup = false
			}
		default:
			if inGroup {
				cur.WriteRune(r)
			}
		}
	}
	return groups
}

// splitCells splits a comma-separated row, respecting commas embedded
// inside "..." or '...' cell literals.
func splitCells(line string) []string {
	var cells []string
	var cur strings.Builder
	var quote rune
	for _, r := range line {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ',':
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	cells = append(cells, cur.String())
	return cells
}

const functionKeySectionName = "機能キー"

// Parse reads a layout text file and builds the *layout.Layout it
// describes (spec.md §6). The returned layout has its derived indexes
// already built via layout.BuildIndexes.
func Parse(r io.Reader) (*layout.Layout, error) {
	l := layout.Empty()
	builders := map[string]*sectionBuilder{}
	var sectionOrder []string

	var current *sectionBuilder
	currentTag := ""
	row := 0
	inFuncSection := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	first := true

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(line)

		if first {
			first = false
			if trimmed != "" && strings.HasPrefix(trimmed, ";") {
				l.DisplayName = strings.TrimSpace(strings.TrimPrefix(trimmed, ";"))
				continue
			}
		}

		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			name := trimmed[1 : len(trimmed)-1]
			if name == functionKeySectionName {
				inFuncSection = true
				current = nil
				currentTag = ""
				row = 0
				continue
			}
			inFuncSection = false
			b, ok := builders[name]
			if !ok {
				b = newSectionBuilder(name)
				builders[name] = b
				sectionOrder = append(sectionOrder, name)
			}
			current = b
			currentTag = ""
			row = 0
			continue
		}

		if strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") {
			if current == nil {
				return nil, &ParseError{Line: lineNo, Message: "sub-plane header outside any section"}
			}
			groups := splitTagGroups(trimmed)
			keys, err := decodeTag(groups)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error()}
			}
			currentTag = trimmed
			current.plane(currentTag)
			l.TagKeys[currentTag] = keys
			row = 0
			continue
		}

		if inFuncSection {
			cells := splitCells(trimmed)
			if len(cells) != 2 {
				return nil, &ParseError{Line: lineNo, Message: fmt.Sprintf("function-key row wants 2 columns, got %d", len(cells))}
			}
			src, err := parseKeyToken(cells[0])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error()}
			}
			dst, err := parseKeyToken(cells[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error()}
			}
			l.FunctionSwaps = append(l.FunctionSwaps, layout.FunctionSwap{Source: src, Target: dst})
			continue
		}

		if current == nil {
			return nil, &ParseError{Line: lineNo, Message: "cell row outside any section"}
		}
		if row >= 4 {
			return nil, &ParseError{Line: lineNo, Message: "section has more than 4 rows"}
		}
		cells := splitCells(trimmed)
		plane := current.plane(currentTag)
		for col, cell := range cells {
			tok, err := parseCell(cell)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error()}
			}
			if tok.IsNone() {
				continue
			}
			plane[layout.RC{Row: row, Col: col}] = tok
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("layoutfile: read: %w", err)
	}

	l.Sections = map[string]layout.Section{}
	for _, name := range sectionOrder {
		l.Sections[name] = builders[name].build()
	}

	layout.BuildIndexes(l)
	return l, nil
}
