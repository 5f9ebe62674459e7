// Package profile holds the user-configurable engine behavior (spec.md §3)
// and its JSON persistence (spec.md §6).
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	locale "github.com/jeandeaual/go-locale"

	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/modifier"
)

// SinglePressBehavior is what happens when a modifier is tapped alone and
// never chorded (spec.md §4.1 "apply its configured single-press
// behavior").
type SinglePressBehavior int

const (
	BehaviorNone SinglePressBehavior = iota
	BehaviorEnable
	BehaviorPrefixShift
	BehaviorSpaceKey
)

// UnmarshalJSON accepts the behavior's name so profile files stay readable.
func (b *SinglePressBehavior) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "", "None":
		*b = BehaviorNone
	case "Enable":
		*b = BehaviorEnable
	case "PrefixShift":
		*b = BehaviorPrefixShift
	case "SpaceKey":
		*b = BehaviorSpaceKey
	default:
		return fmt.Errorf("profile: unknown single-press behavior %q", s)
	}
	return nil
}

// MarshalJSON renders the behavior back to its name.
func (b SinglePressBehavior) MarshalJSON() ([]byte, error) {
	names := map[SinglePressBehavior]string{
		BehaviorNone:        "None",
		BehaviorEnable:      "Enable",
		BehaviorPrefixShift: "PrefixShift",
		BehaviorSpaceKey:    "SpaceKey",
	}
	return json.Marshal(names[b])
}

// IMEMode selects how the engine decides whether Japanese input is active
// (spec.md §3).
type IMEMode int

const (
	IMEAuto IMEMode = iota
	IMETSF
	IMEIMM
	IMEForceJapanese
	IMEForceAlpha
)

func (m IMEMode) String() string {
	switch m {
	case IMETSF:
		return "TSF"
	case IMEIMM:
		return "IMM"
	case IMEForceJapanese:
		return "ForceJapanese"
	case IMEForceAlpha:
		return "ForceAlpha"
	default:
		return "Auto"
	}
}

func (m IMEMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *IMEMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "", "Auto":
		*m = IMEAuto
	case "TSF":
		*m = IMETSF
	case "IMM":
		*m = IMEIMM
	case "ForceJapanese":
		*m = IMEForceJapanese
	case "ForceAlpha":
		*m = IMEForceAlpha
	default:
		return fmt.Errorf("profile: unknown IME mode %q", s)
	}
	return nil
}

// Profile is the user-configurable behavior of the engine (spec.md §3).
type Profile struct {
	// CharKeyOverlapRatio is the chord-overlap threshold in [0, 1].
	CharKeyOverlapRatio float64 `json:"char_key_overlap_ratio"`

	// ContinuousShift holds the per-modifier continuous-shift flag.
	ContinuousShift map[modifier.Kind]bool `json:"-"`

	// SinglePress holds the per-modifier single-press behavior.
	SinglePress map[modifier.Kind]SinglePressBehavior `json:"-"`

	// CharKeyContinuousShift enables "case 4" early judgement for ordinary
	// (non-modifier) character-key pairs (spec.md §4.1 pair check).
	CharKeyContinuousShift bool `json:"char_key_continuous_shift"`

	// CharKeyRepeatAssigned/Unassigned gate auto-repeat output (spec.md
	// §4.6).
	CharKeyRepeatAssigned   bool `json:"char_key_repeat_assigned"`
	CharKeyRepeatUnassigned bool `json:"char_key_repeat_unassigned"`

	IMEMode IMEMode `json:"ime_mode"`

	// The four thumb selectors (spec.md §4.9 "recompute thumb-key sets
	// from the profile's four thumb selectors").
	ThumbLeftKey  keyevent.KeyId `json:"thumb_left_key"`
	ThumbRightKey keyevent.KeyId `json:"thumb_right_key"`
	Ext1Key       keyevent.KeyId `json:"ext1_key"`
	Ext2Key       keyevent.KeyId `json:"ext2_key"`

	SuspendKey keyevent.KeyId `json:"suspend_key"`

	// PanicKey is the supplemented emergency-stop key (see SPEC_FULL.md
	// "Emergency stop exit code"): distinct from SuspendKey, it terminates
	// the process rather than toggling the engine.
	PanicKey keyevent.KeyId `json:"panic_key"`

	// jsonShim carries the map fields across JSON's lack of enum-keyed map
	// support; see MarshalJSON/UnmarshalJSON below.
}

type jsonShim struct {
	ContinuousShiftThumbLeft  bool                `json:"continuous_shift_thumb_left"`
	ContinuousShiftThumbRight bool                `json:"continuous_shift_thumb_right"`
	ContinuousShiftExt1       bool                `json:"continuous_shift_ext1"`
	ContinuousShiftExt2       bool                `json:"continuous_shift_ext2"`
	ContinuousShiftCharShift  bool                `json:"continuous_shift_char_shift"`
	SinglePressThumbLeft      SinglePressBehavior `json:"single_press_thumb_left"`
	SinglePressThumbRight     SinglePressBehavior `json:"single_press_thumb_right"`
	SinglePressExt1           SinglePressBehavior `json:"single_press_ext1"`
	SinglePressExt2           SinglePressBehavior `json:"single_press_ext2"`
	SinglePressCharShift      SinglePressBehavior `json:"single_press_char_shift"`
}

// MarshalJSON flattens the per-modifier maps into named fields so the file
// on disk stays a flat, human-editable object (spec.md §6 "Profile
// persistence: JSON; unknown keys ignored; missing fields default").
func (p Profile) MarshalJSON() ([]byte, error) {
	type alias Profile
	shim := jsonShim{
		ContinuousShiftThumbLeft:  p.ContinuousShift[modifier.ThumbLeft],
		ContinuousShiftThumbRight: p.ContinuousShift[modifier.ThumbRight],
		ContinuousShiftExt1:       p.ContinuousShift[modifier.ThumbExt1],
		ContinuousShiftExt2:       p.ContinuousShift[modifier.ThumbExt2],
		ContinuousShiftCharShift:  p.ContinuousShift[modifier.CharShift],
		SinglePressThumbLeft:      p.SinglePress[modifier.ThumbLeft],
		SinglePressThumbRight:     p.SinglePress[modifier.ThumbRight],
		SinglePressExt1:           p.SinglePress[modifier.ThumbExt1],
		SinglePressExt2:           p.SinglePress[modifier.ThumbExt2],
		SinglePressCharShift:      p.SinglePress[modifier.CharShift],
	}

	combined := struct {
		alias
		jsonShim
	}{alias: alias(p), jsonShim: shim}

	return json.Marshal(combined)
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	combined := struct {
		*alias
		jsonShim
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &combined); err != nil {
		return err
	}

	p.ContinuousShift = map[modifier.Kind]bool{
		modifier.ThumbLeft:  combined.ContinuousShiftThumbLeft,
		modifier.ThumbRight: combined.ContinuousShiftThumbRight,
		modifier.ThumbExt1:  combined.ContinuousShiftExt1,
		modifier.ThumbExt2:  combined.ContinuousShiftExt2,
		modifier.CharShift:  combined.ContinuousShiftCharShift,
	}
	p.SinglePress = map[modifier.Kind]SinglePressBehavior{
		modifier.ThumbLeft:  combined.SinglePressThumbLeft,
		modifier.ThumbRight: combined.SinglePressThumbRight,
		modifier.ThumbExt1:  combined.SinglePressExt1,
		modifier.ThumbExt2:  combined.SinglePressExt2,
		modifier.CharShift:  combined.SinglePressCharShift,
	}
	return nil
}

// Default returns a profile with sensible defaults, mirroring the
// teacher's DefaultConfig() constructors.
func Default() Profile {
	p := Profile{
		CharKeyOverlapRatio:     0.35,
		CharKeyContinuousShift:  true,
		CharKeyRepeatAssigned:   true,
		CharKeyRepeatUnassigned: false,
		IMEMode:                 IMEAuto,
		SuspendKey:              keyevent.KeyId{Scancode: 0x45}, // Pause/Break
	}
	p.ContinuousShift = map[modifier.Kind]bool{
		modifier.ThumbLeft:  true,
		modifier.ThumbRight: true,
		modifier.ThumbExt1:  false,
		modifier.ThumbExt2:  false,
		modifier.CharShift:  false,
	}
	p.SinglePress = map[modifier.Kind]SinglePressBehavior{
		modifier.ThumbLeft:  BehaviorEnable,
		modifier.ThumbRight: BehaviorEnable,
		modifier.ThumbExt1:  BehaviorNone,
		modifier.ThumbExt2:  BehaviorNone,
		modifier.CharShift:  BehaviorEnable,
	}
	return p
}

// DefaultProfile is Default() with IMEMode picked from the host's locale
// (SPEC_FULL.md "Locale-aware profile defaulting"): a Japanese system
// locale defaults to Auto, detecting the IME the ordinary way; any other
// locale defaults to ForceAlpha, since a chorded Japanese layout has no
// business guessing at IME state on a host that isn't configured for one.
func DefaultProfile() Profile {
	p := Default()
	tag, err := locale.GetLocale()
	if err != nil || !strings.HasPrefix(tag, "ja") {
		p.IMEMode = IMEForceAlpha
	}
	return p
}

// Load reads a profile from path. Missing fields take Default()'s values;
// unknown keys are ignored (json.Unmarshal's default behavior).
func Load(path string) (Profile, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("profile: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("profile: parse %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path as indented JSON.
func Save(path string, p Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("profile: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("profile: write %s: %w", path, err)
	}
	return nil
}

// Classifier builds a modifier.Classifier from the profile's thumb
// selectors and the layout's derived trigger-key set.
func (p Profile) Classifier(triggerKeys map[keyevent.KeyId]bool) modifier.Classifier {
	zero := keyevent.KeyId{}
	return modifier.Classifier{
		ThumbLeft:     p.ThumbLeftKey,
		ThumbRight:    p.ThumbRightKey,
		ThumbExt1:     p.Ext1Key,
		ThumbExt2:     p.Ext2Key,
		HasThumbLeft:  p.ThumbLeftKey != zero,
		HasThumbRight: p.ThumbRightKey != zero,
		HasThumbExt1:  p.Ext1Key != zero,
		HasThumbExt2:  p.Ext2Key != zero,
		TriggerKeys:   triggerKeys,
	}
}
