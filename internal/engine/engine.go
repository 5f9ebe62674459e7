// Package engine wires the chord state machine, plane resolver, output
// expander, and repeat planner into the single process_key entry point
// the hook collaborator drives, plus the worker and watchdog goroutines of
// spec.md §5.
package engine

import (
	"sync"
	"time"

	"nitro-core-dx/internal/chordtime"
	"nitro-core-dx/internal/csm"
	"nitro-core-dx/internal/expander"
	"nitro-core-dx/internal/hook"
	"nitro-core-dx/internal/ime"
	"nitro-core-dx/internal/keyevent"
	"nitro-core-dx/internal/lifecycle"
	"nitro-core-dx/internal/profile"
	"nitro-core-dx/internal/repeat"
	"nitro-core-dx/internal/resolver"
	"nitro-core-dx/internal/telemetry"
)

const (
	queueCapacity      = 1024
	watchdogInterval   = time.Second
	hookStaleThreshold = 5 * time.Second
	reinstallCooldown  = 10 * time.Second
	suspendDebounce    = 250 * time.Millisecond
)

// queuedEvent is one raw transition waiting for the worker goroutine.
type queuedEvent struct {
	scancode      uint16
	extended      bool
	up            bool
	physicalShift bool
}

// Engine is the top-level coordinator. Its Decide method implements
// spec.md §6's process_key contract directly; sources under a strict OS
// callback latency budget instead register onHookCallback, which returns
// Block (or Pass when the queue is full) and hands the event to a worker
// goroutine that calls
// Decide and re-synthesizes the result via hook.Source.Inject (spec.md §5
// "work performed inside the hook callback is kept minimal").
type Engine struct {
	lifecycle *lifecycle.Manager
	imeProv   ime.Provider
	hookSrc   hook.Source
	logger    *telemetry.Logger

	queue chan queuedEvent
	quit  chan struct{}
	wg    sync.WaitGroup

	healthMu         sync.Mutex
	lastHookCallback time.Time
	lastReinstall    time.Time

	exitMu   sync.Mutex
	exitCode *int
	exited   chan struct{}
}

// New builds an Engine around an already-configured lifecycle Manager.
func New(lc *lifecycle.Manager, imeProv ime.Provider, hookSrc hook.Source, logger *telemetry.Logger) *Engine {
	return &Engine{
		lifecycle: lc,
		imeProv:   imeProv,
		hookSrc:   hookSrc,
		logger:    logger,
		queue:     make(chan queuedEvent, queueCapacity),
		quit:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
}

// Start installs the hook and launches the worker and watchdog goroutines.
func (e *Engine) Start() error {
	if err := e.hookSrc.Start(e.onHookCallback); err != nil {
		return err
	}
	e.wg.Add(2)
	go e.runWorker()
	go e.runWatchdog()
	return nil
}

// Stop signals the worker/watchdog goroutines to exit, waits for them, and
// uninstalls the hook.
func (e *Engine) Stop() error {
	close(e.quit)
	e.wg.Wait()
	return e.hookSrc.Stop()
}

// ExitCode returns the process exit code requested by a panic-key press,
// if any (spec.md §6 "exit code 1 emergency stop").
func (e *Engine) ExitCode() (int, bool) {
	e.exitMu.Lock()
	defer e.exitMu.Unlock()
	if e.exitCode == nil {
		return 0, false
	}
	return *e.exitCode, true
}

// WaitForExit blocks until a panic-key press requests process exit, for a
// host (cmd/keyremapd's -no-tray mode) that isn't already blocking on a UI
// event loop.
func (e *Engine) WaitForExit() {
	<-e.exited
}

func (e *Engine) requestExit(code int) {
	e.exitMu.Lock()
	defer e.exitMu.Unlock()
	if e.exitCode != nil {
		return
	}
	c := code
	e.exitCode = &c
	e.logger.Logf(telemetry.ComponentLifecycle, telemetry.LevelWarn, "panic key pressed, requesting exit code %d", code)
	close(e.exited)
}

// onHookCallback is the hook.Source callback registered by Start. It never
// runs the pipeline itself: it records a liveness timestamp for the
// watchdog, enqueues the event, and returns immediately. A full queue
// degrades to passthrough with a warning (spec.md §5 "queue overflow").
func (e *Engine) onHookCallback(scancode uint16, extended, up, physicalShift bool) hook.Result {
	e.recordHookCallback(time.Now())

	item := queuedEvent{scancode: scancode, extended: extended, up: up, physicalShift: physicalShift}
	select {
	case e.queue <- item:
		return hook.Block()
	default:
		e.logger.Logf(telemetry.ComponentHook, telemetry.LevelWarn, "event queue full, dropping to passthrough: scancode=%#x up=%v", scancode, up)
		return hook.Pass()
	}
}

func (e *Engine) runWorker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case item := <-e.queue:
			result := e.Decide(item.scancode, item.extended, item.up, item.physicalShift)
			if err := e.hookSrc.Inject(resultEvents(item, result)); err != nil {
				e.logger.Logf(telemetry.ComponentHook, telemetry.LevelError, "injection failed: %v", err)
			}
		}
	}
}

// resultEvents turns a Decide result into the concrete events Source.Inject
// should synthesize, re-materializing ResultPass as the original scancode
// since the worker path already swallowed it at the callback.
func resultEvents(item queuedEvent, result hook.Result) []hook.InputEvent {
	switch result.Kind {
	case hook.ResultPass:
		return []hook.InputEvent{hook.Scancode(item.scancode, item.extended, item.up)}
	case hook.ResultInject:
		return result.Events
	default:
		return nil
	}
}

func (e *Engine) recordHookCallback(t time.Time) {
	e.healthMu.Lock()
	e.lastHookCallback = t
	e.healthMu.Unlock()
}

// runWatchdog polls hook-callback freshness every watchdogInterval and
// requests a hook reinstall if it has gone stale, rate-limited to once per
// reinstallCooldown (spec.md §5 "watchdog thread").
func (e *Engine) runWatchdog() {
	defer e.wg.Done()
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.quit:
			return
		case <-ticker.C:
			e.checkHookHealth()
		}
	}
}

func (e *Engine) checkHookHealth() {
	e.healthMu.Lock()
	last := e.lastHookCallback
	sinceReinstall := time.Since(e.lastReinstall)
	e.healthMu.Unlock()

	if last.IsZero() || time.Since(last) < hookStaleThreshold {
		return
	}
	if sinceReinstall < reinstallCooldown {
		return
	}

	e.logger.Logf(telemetry.ComponentWatchdog, telemetry.LevelWarn, "hook callback stale for %s, reinstalling", time.Since(last))
	if err := e.hookSrc.Stop(); err != nil {
		e.logger.Logf(telemetry.ComponentWatchdog, telemetry.LevelError, "reinstall: stop failed: %v", err)
	}
	if err := e.hookSrc.Start(e.onHookCallback); err != nil {
		e.logger.Logf(telemetry.ComponentWatchdog, telemetry.LevelError, "reinstall: start failed: %v", err)
		return
	}
	e.healthMu.Lock()
	e.lastReinstall = time.Now()
	e.healthMu.Unlock()
}

// Decide runs one raw transition through the full pipeline and returns its
// disposition (spec.md §6 process_key contract): function-key swap, the
// panic/suspend rollover guards, repeat-vs-CSM routing, plane resolution,
// and output expansion, all under the lifecycle manager's single lock
// (spec.md §5 "single global engine instance behind a mutex").
func (e *Engine) Decide(scancode uint16, extended, up, physicalShift bool) hook.Result {
	now := chordtime.Now()
	key := keyevent.KeyId{Scancode: scancode, Extended: extended}
	edge := keyevent.Down
	if up {
		edge = keyevent.Up
	}

	if edge == keyevent.Down {
		if r, handled := e.handleRolloverGuards(key); handled {
			return r
		}
	}

	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if !e.lifecycle.EnabledLocked() {
		return hook.Pass()
	}

	m := e.lifecycle.MachineLocked()
	key = m.Layout().ResolveFunctionSwap(key)

	if edge == keyevent.Up && e.lifecycle.PlannerLocked().HasPlan(key) {
		raw := keyevent.RawEvent{Key: key, Edge: edge, Timestamp: now, PhysicalShiftHeld: physicalShift}
		m.ProcessEvent(raw)
		e.lifecycle.PlannerLocked().Clear(key)
		return hook.Block()
	}

	if edge == keyevent.Down && m.IsPressed(key) {
		return e.decideRepeat(m, key, physicalShift)
	}

	raw := keyevent.RawEvent{Key: key, Edge: edge, Timestamp: now, PhysicalShiftHeld: physicalShift}
	decisions := m.ProcessEvent(raw)
	return e.expandAll(m, decisions, key, edge, physicalShift)
}

// handleRolloverGuards checks key against the panic/suspend keys, which
// bypass the CSM entirely (SPEC_FULL.md "Emergency stop" and spec.md §3
// "suspend key"). The suspend key is debounced; both act independently of
// whether the engine is currently enabled, so a stuck-disabled state can
// always be recovered from.
func (e *Engine) handleRolloverGuards(key keyevent.KeyId) (hook.Result, bool) {
	e.lifecycle.Lock()
	m := e.lifecycle.MachineLocked()
	p := m.Profile()
	isPanic := !isZeroKey(p.PanicKey) && key == p.PanicKey
	isSuspend := !isZeroKey(p.SuspendKey) && key == p.SuspendKey
	shouldToggle := isSuspend && m.ShouldToggleSuspend(time.Now(), suspendDebounce)
	e.lifecycle.Unlock()

	if isPanic {
		e.requestExit(1)
		return hook.Block(), true
	}
	if isSuspend {
		if shouldToggle {
			e.lifecycle.SetEnabled(!e.lifecycle.Enabled())
		}
		return hook.Block(), true
	}
	return hook.Result{}, false
}

func isZeroKey(k keyevent.KeyId) bool {
	return k == keyevent.KeyId{}
}

func (e *Engine) expandAll(m *csm.Machine, decisions []keyevent.Decision, key keyevent.KeyId, edge keyevent.Edge, physicalShift bool) hook.Result {
	if len(decisions) == 0 {
		return hook.Block()
	}
	if len(decisions) == 1 && decisions[0].Kind == keyevent.DecisionPassthrough &&
		decisions[0].Key == key && decisions[0].Edge == edge {
		// A lone Passthrough of the key and edge under decision (the
		// target filter, the passed-keys-on-Up path, an Enter that is not
		// deferred) lets the hook forward the original OS event instead of
		// paying for a synthesize round-trip. A lone Passthrough of some
		// other key, such as a deferred Enter-Down released by another
		// key's Up, is synthesized below like any other output.
		return hook.Pass()
	}

	res := resolver.New(m.Layout(), m.Classifier())
	exp := expander.New(res, e.imeProv)

	var events []hook.InputEvent
	for _, d := range decisions {
		events = append(events, exp.Expand(d, e.expanderContext(m, physicalShift))...)
	}
	if len(events) == 0 {
		return hook.Block()
	}
	return hook.Inject(events)
}

func (e *Engine) expanderContext(m *csm.Machine, physicalShift bool) expander.Context {
	latchKind, latchTag := m.Latch()
	return expander.Context{
		State:             e.modalState(m, physicalShift),
		LatchKind:         latchKind,
		LatchTag:          latchTag,
		PhysicalShiftHeld: physicalShift,
		StillHeld:         m.IsPressed,
	}
}

func (e *Engine) modalState(m *csm.Machine, physicalShift bool) resolver.ModalState {
	c := m.Classifier()
	return resolver.ModalState{
		IMEJapanese:   japaneseActive(m.Profile().IMEMode, e.imeProv),
		PhysicalShift: physicalShift,
		ThumbLeft:     c.HasThumbLeft && m.IsPressed(c.ThumbLeft),
		ThumbRight:    c.HasThumbRight && m.IsPressed(c.ThumbRight),
		Ext1:          c.HasThumbExt1 && m.IsPressed(c.ThumbExt1),
		Ext2:          c.HasThumbExt2 && m.IsPressed(c.ThumbExt2),
	}
}

// japaneseActive bridges profile.IMEMode to the IME collaborator without
// the ime package needing to import profile (SPEC_FULL.md "IME/profile
// bridging lives in engine").
func japaneseActive(mode profile.IMEMode, provider ime.Provider) bool {
	switch mode {
	case profile.IMEForceJapanese:
		return true
	case profile.IMEForceAlpha:
		return false
	default:
		return provider != nil && provider.IsJapaneseActive()
	}
}

// decideRepeat handles an auto-repeat Down for an already-held key
// (spec.md §4.6): reconstruct or reuse the cached chord plan, resolve it
// through the plane resolver, and gate the output by the repeat policy.
func (e *Engine) decideRepeat(m *csm.Machine, key keyevent.KeyId, physicalShift bool) hook.Result {
	planner := e.lifecycle.PlannerLocked()
	now := chordtime.Now()

	ctx := csm.RatioContext{
		Trigger:                key,
		TriggerEdge:            keyevent.Down,
		Now:                    now,
		Classifier:             m.Classifier(),
		ContinuousShift:        m.Profile().ContinuousShift,
		CharKeyContinuousShift: m.Profile().CharKeyContinuousShift,
	}
	mostRecentThumb, hasThumb := e.mostRecentHeldThumb(m)
	plan := planner.PlanFor(key, m.PendingSnapshot(), ctx, m.Profile().CharKeyOverlapRatio, mostRecentThumb, hasThumb)
	if len(plan.Fold) > 0 {
		m.ConsumeFolded(plan.Fold)
	}

	res := resolver.New(m.Layout(), m.Classifier())
	result, ok := res.Resolve(plan.Keys, e.modalState(m, physicalShift), keyevent.LatchNone, "")
	if !ok {
		return hook.Block()
	}
	if !repeat.Allow(result.Token, m.Profile()) {
		return hook.Block()
	}

	exp := expander.New(res, e.imeProv)
	events := exp.ExpandToken(result.Token, e.expanderContext(m, physicalShift))
	if len(events) == 0 {
		return hook.Block()
	}
	return hook.Inject(events)
}

// mostRecentHeldThumb picks the profile's most recently pressed still-held
// thumb modifier, the repeat plan's fallback chord partner (spec.md §4.6
// step 4). It prefers whichever candidate still has a Live pending record
// with the highest sequence number; a thumb modifier already consumed into
// an earlier chord while remaining physically held falls back to
// thumb-priority order, since the pending log no longer tracks it.
func (e *Engine) mostRecentHeldThumb(m *csm.Machine) (keyevent.KeyId, bool) {
	c := m.Classifier()
	var candidates []keyevent.KeyId
	if c.HasThumbLeft && m.IsPressed(c.ThumbLeft) {
		candidates = append(candidates, c.ThumbLeft)
	}
	if c.HasThumbRight && m.IsPressed(c.ThumbRight) {
		candidates = append(candidates, c.ThumbRight)
	}
	if c.HasThumbExt1 && m.IsPressed(c.ThumbExt1) {
		candidates = append(candidates, c.ThumbExt1)
	}
	if c.HasThumbExt2 && m.IsPressed(c.ThumbExt2) {
		candidates = append(candidates, c.ThumbExt2)
	}
	if len(candidates) == 0 {
		return keyevent.KeyId{}, false
	}

	best := candidates[0]
	bestSeq := -1
	for _, rec := range m.PendingSnapshot() {
		for _, cand := range candidates {
			if rec.Key == cand && rec.Seq > bestSeq {
				best, bestSeq = cand, rec.Seq
			}
		}
	}
	return best, true
}
