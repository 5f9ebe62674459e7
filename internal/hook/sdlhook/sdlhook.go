// Package sdlhook is the development/test hook.Source implementation,
// grounded on the teacher's internal/ui SDL2 event loop (sdl.Init,
// sdl.PollEvent, *sdl.KeyboardEvent dispatch) generalized from rendering a
// frame to delivering PS/2-style scancode events to the engine.
package sdlhook

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"nitro-core-dx/internal/hook"
)

// Hook polls SDL keyboard events on a dedicated goroutine and feeds them to
// the registered handler, the same role the teacher's UI.Run event loop
// plays for emulator input, minus the renderer.
type Hook struct {
	mu      sync.Mutex
	handler func(scancode uint16, extended, up, physicalShift bool) hook.Result
	quit    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// injected marks scancodes this package itself synthesized via Inject,
	// within the window SDL needs to surface the corresponding event, so
	// the poll loop's own re-entry doesn't get fed back to handler
	// (spec.md §6 "sentinel extra info" for injected-event filtering).
	injectedMu sync.Mutex
	injected   map[sdl.Scancode]time.Time
}

const injectedSuppressWindow = 250 * time.Millisecond

// New builds an unstarted SDL-backed hook source.
func New() *Hook {
	return &Hook{injected: map[sdl.Scancode]time.Time{}}
}

func (h *Hook) Start(handler func(scancode uint16, extended, up, physicalShift bool) hook.Result) error {
	if h.running.Load() {
		return fmt.Errorf("sdlhook: already started")
	}
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdlhook: sdl.Init: %w", err)
	}

	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()

	h.quit = make(chan struct{})
	h.running.Store(true)
	h.wg.Add(1)
	go h.pollLoop()
	return nil
}

func (h *Hook) Stop() error {
	if !h.running.Load() {
		return nil
	}
	close(h.quit)
	h.wg.Wait()
	h.running.Store(false)
	sdl.Quit()
	return nil
}

func (h *Hook) pollLoop() {
	defer h.wg.Done()
	ticker := time.NewTicker(4 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-h.quit:
			return
		case <-ticker.C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				h.handleEvent(event)
			}
		}
	}
}

func (h *Hook) handleEvent(event sdl.Event) {
	ke, ok := event.(*sdl.KeyboardEvent)
	if !ok {
		return
	}
	sc := ke.Keysym.Scancode
	if h.wasRecentlyInjected(sc) {
		return
	}

	code, extended, ok := scancodeToPS2(sc)
	if !ok {
		return
	}
	up := ke.Type == sdl.KEYUP
	shift := sdl.GetModState()&sdl.KMOD_SHIFT != 0

	h.mu.Lock()
	handler := h.handler
	h.mu.Unlock()
	if handler == nil {
		return
	}

	result := handler(code, extended, up, shift)
	switch result.Kind {
	case hook.ResultInject:
		h.inject(result.Events)
	case hook.ResultPass:
		// SDL already delivered the real keypress to the focused window;
		// nothing further to forward.
	}
}

func (h *Hook) wasRecentlyInjected(sc sdl.Scancode) bool {
	h.injectedMu.Lock()
	defer h.injectedMu.Unlock()
	t, ok := h.injected[sc]
	if !ok {
		return false
	}
	if time.Since(t) > injectedSuppressWindow {
		delete(h.injected, sc)
		return false
	}
	return true
}

func (h *Hook) Inject(events []hook.InputEvent) error {
	return h.inject(events)
}

// inject pushes synthetic keyboard events back onto SDL's own event queue
// via sdl.PushEvent, the dev/test analogue of winhook's SendInput: a real
// OS-wide low-level hook can reinject into any application, but the SDL
// harness only owns its own event queue, so sdlhook's injection is visible
// to the SDL window under test rather than system-wide.
func (h *Hook) inject(events []hook.InputEvent) error {
	for _, e := range events {
		if e.Kind != hook.EventScancode {
			continue
		}
		sc, ok := ps2ToScancode(e.Scancode, e.Extended)
		if !ok {
			continue
		}
		h.injectedMu.Lock()
		h.injected[sc] = time.Now()
		h.injectedMu.Unlock()

		typ := sdl.KEYDOWN
		if e.Up {
			typ = sdl.KEYUP
		}
		ke := &sdl.KeyboardEvent{
			Type:      uint32(typ),
			Timestamp: sdl.GetTicks(),
			Keysym:    sdl.Keysym{Scancode: sc},
		}
		if e.Up {
			ke.State = sdl.RELEASED
		} else {
			ke.State = sdl.PRESSED
		}
		if err := sdl.PushEvent(ke); err != nil {
			return fmt.Errorf("sdlhook: push synthetic event: %w", err)
		}
	}
	return nil
}
