package engine

import (
	"testing"

	"nitro-core-dx/internal/csm"
	"nitro-core-dx/internal/hook"
	"nitro-core-dx/internal/ime"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/lifecycle"
	"nitro-core-dx/internal/profile"
	"nitro-core-dx/internal/repeat"
	"nitro-core-dx/internal/telemetry"
)

// fakeHookSource is a no-op hook.Source good enough to build an Engine
// around without actually installing any OS-level hook.
type fakeHookSource struct{}

func (fakeHookSource) Start(func(scancode uint16, extended, up, physicalShift bool) hook.Result) error {
	return nil
}
func (fakeHookSource) Stop() error                        { return nil }
func (fakeHookSource) Inject(events []hook.InputEvent) error { return nil }

func newTestEngine() (*Engine, *lifecycle.Manager) {
	logger := telemetry.New(100)
	lc := lifecycle.New(csm.New(logger), repeat.New(), logger)
	lc.Machine().SetProfile(profile.Default())
	lc.Machine().SetLayout(layout.Empty())
	eng := New(lc, ime.NewNoop(false), fakeHookSource{}, logger)
	return eng, lc
}

func TestDecideDisabledEnginePassesThrough(t *testing.T) {
	eng, lc := newTestEngine()
	lc.SetEnabled(false)

	result := eng.Decide(0x1E, false, false, false)
	if result.Kind != hook.ResultPass {
		t.Errorf("expected a disabled engine to pass every event through, got %+v", result)
	}
}

func TestDecidePanicKeyRequestsExit(t *testing.T) {
	eng, lc := newTestEngine()
	p := lc.Machine().Profile()
	p.PanicKey = keyevent.KeyId{Scancode: 0x46}
	lc.InstallProfile(p)

	result := eng.Decide(0x46, false, false, false)
	if result.Kind != hook.ResultBlock {
		t.Errorf("expected the panic key to be blocked, got %+v", result)
	}

	code, exited := eng.ExitCode()
	if !exited || code != 1 {
		t.Errorf("expected ExitCode to report (1, true) after the panic key, got (%d, %v)", code, exited)
	}
}

func TestDecideSuspendKeyTogglesEnabled(t *testing.T) {
	eng, lc := newTestEngine()
	p := lc.Machine().Profile()
	p.SuspendKey = keyevent.KeyId{Scancode: 0x45}
	lc.InstallProfile(p)

	if !lc.Enabled() {
		t.Fatalf("expected the engine to start enabled")
	}
	eng.Decide(0x45, false, false, false)
	if lc.Enabled() {
		t.Errorf("expected the suspend key to disable the engine")
	}
}

func TestDecideOnEmptyLayoutReturnsValidResult(t *testing.T) {
	eng, _ := newTestEngine()
	// An empty layout has no sections, so the CSM's target filter admits
	// every key into deliberation and a lone Down is held pending (Block).
	// This test only checks that Decide returns one of the three result
	// kinds without panicking.
	result := eng.Decide(0x1E, false, false, false)
	if result.Kind != hook.ResultBlock && result.Kind != hook.ResultPass && result.Kind != hook.ResultInject {
		t.Errorf("unexpected result kind: %+v", result)
	}
}
