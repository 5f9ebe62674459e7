package profile

import (
	"os"
	"path/filepath"
	"testing"

	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/modifier"
)

func TestDefaultProfileFields(t *testing.T) {
	p := Default()
	if p.CharKeyOverlapRatio != 0.35 {
		t.Errorf("expected default overlap ratio 0.35, got %v", p.CharKeyOverlapRatio)
	}
	if !p.ContinuousShift[modifier.ThumbLeft] {
		t.Errorf("expected ThumbLeft to default to continuous-shift")
	}
	if p.SinglePress[modifier.ThumbExt1] != BehaviorNone {
		t.Errorf("expected Ext1 single-press to default to None")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	p := Default()
	p.ThumbLeftKey = keyevent.KeyId{Scancode: 0x1D}
	p.SinglePress[modifier.CharShift] = BehaviorPrefixShift

	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	if err := Save(path, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ThumbLeftKey != p.ThumbLeftKey {
		t.Errorf("expected ThumbLeftKey to round-trip, got %v", loaded.ThumbLeftKey)
	}
	if loaded.SinglePress[modifier.CharShift] != BehaviorPrefixShift {
		t.Errorf("expected CharShift single-press to round-trip as PrefixShift, got %v", loaded.SinglePress[modifier.CharShift])
	}
	if loaded.CharKeyOverlapRatio != p.CharKeyOverlapRatio {
		t.Errorf("expected overlap ratio to round-trip, got %v", loaded.CharKeyOverlapRatio)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Errorf("expected an error loading a nonexistent profile file")
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	if err := os.WriteFile(path, []byte(`{"char_key_overlap_ratio": 0.5, "totally_unknown_field": 42}`), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.CharKeyOverlapRatio != 0.5 {
		t.Errorf("expected overlap ratio 0.5, got %v", p.CharKeyOverlapRatio)
	}
}

func TestSinglePressBehaviorUnmarshalUnknownIsError(t *testing.T) {
	var b SinglePressBehavior
	if err := b.UnmarshalJSON([]byte(`"NotARealBehavior"`)); err == nil {
		t.Errorf("expected an error for an unknown single-press behavior name")
	}
}

func TestIMEModeString(t *testing.T) {
	cases := map[IMEMode]string{
		IMEAuto:          "Auto",
		IMETSF:           "TSF",
		IMEIMM:           "IMM",
		IMEForceJapanese: "ForceJapanese",
		IMEForceAlpha:    "ForceAlpha",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Errorf("IMEMode(%d).String() = %q, want %q", mode, got, want)
		}
	}
}

func TestClassifierBuiltFromThumbSelectors(t *testing.T) {
	p := Default()
	p.ThumbLeftKey = keyevent.KeyId{Scancode: 0x1D}

	c := p.Classifier(map[keyevent.KeyId]bool{{Scancode: 0x2A}: true})

	if got := c.Classify(p.ThumbLeftKey); got != modifier.ThumbLeft {
		t.Errorf("expected configured ThumbLeftKey to classify as ThumbLeft, got %v", got)
	}
	if got := c.Classify(keyevent.KeyId{Scancode: 0x2A}); got != modifier.CharShift {
		t.Errorf("expected a trigger key to classify as CharShift, got %v", got)
	}
	if c.Classify(p.ThumbRightKey) != modifier.None || c.HasThumbRight {
		t.Errorf("expected an unset ThumbRightKey to not classify as a modifier")
	}
}
