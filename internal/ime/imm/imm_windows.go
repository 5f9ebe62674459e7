//go:build windows

// Package imm is the Windows IMM32 implementation of ime.Provider (spec.md
// §6 "IME Integration"), grounded on golang.org/x/sys/windows's LazyDLL
// syscall-wrapper idiom — the ecosystem's standard way to reach Win32 APIs
// that x/sys/windows doesn't already wrap directly.
package imm

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	imm32 = windows.NewLazySystemDLL("imm32.dll")
	user32 = windows.NewLazySystemDLL("user32.dll")

	procImmGetContext          = imm32.NewProc("ImmGetContext")
	procImmReleaseContext      = imm32.NewProc("ImmReleaseContext")
	procImmGetOpenStatus       = imm32.NewProc("ImmGetOpenStatus")
	procImmSetOpenStatus       = imm32.NewProc("ImmSetOpenStatus")
	procImmGetConversionStatus = imm32.NewProc("ImmGetConversionStatus")
	procImmSetConversionStatus = imm32.NewProc("ImmSetConversionStatus")

	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
)

const (
	imeCModeFull  = 0x0001 // IME_CMODE_FULLSHAPE-adjacent hiragana/full conversion bit
	imeCModeAlpha = 0x0008 // IME_CMODE_ALPHANUMERIC guard bit
)

// Provider implements ime.Provider against the real Windows IMM32 API,
// querying and toggling the IME attached to the foreground window's input
// context (spec.md §6: "queries/controls the IME of the foreground window,
// not a fixed target").
type Provider struct {
	mu sync.Mutex
}

// New builds a live Windows IMM32 provider.
func New() *Provider {
	return &Provider{}
}

// IsJapaneseActive reports whether the IME attached to the foreground
// window currently has an open, non-alphanumeric Japanese conversion mode.
func (p *Provider) IsJapaneseActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	hwnd, ok := foregroundWindow()
	if !ok {
		return false
	}
	himc, ok := p.getContext(hwnd)
	if !ok {
		return false
	}
	defer p.releaseContext(hwnd, himc)

	open, _, _ := procImmGetOpenStatus.Call(uintptr(himc))
	if open == 0 {
		return false
	}

	var conversion, sentence uint32
	ret, _, _ := procImmGetConversionStatus.Call(
		uintptr(himc),
		uintptr(unsafe.Pointer(&conversion)),
		uintptr(unsafe.Pointer(&sentence)),
	)
	if ret == 0 {
		return false
	}
	return conversion&imeCModeAlpha == 0
}

// SetOpen opens or closes the IME attached to the foreground window and,
// when opening, forces a Japanese (non-alphanumeric, hiragana) conversion
// mode so Auto mode (spec.md §4.7) lands in a predictable state.
func (p *Provider) SetOpen(open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hwnd, ok := foregroundWindow()
	if !ok {
		return
	}
	himc, ok := p.getContext(hwnd)
	if !ok {
		return
	}
	defer p.releaseContext(hwnd, himc)

	var want uintptr
	if open {
		want = 1
	}
	procImmSetOpenStatus.Call(uintptr(himc), want)

	if open {
		procImmSetConversionStatus.Call(uintptr(himc), uintptr(imeCModeFull), 0)
	}
}

func (p *Provider) getContext(hwnd windows.HWND) (windows.Handle, bool) {
	r, _, _ := procImmGetContext.Call(uintptr(hwnd))
	if r == 0 {
		return 0, false
	}
	return windows.Handle(r), true
}

func (p *Provider) releaseContext(hwnd windows.HWND, himc windows.Handle) {
	procImmReleaseContext.Call(uintptr(hwnd), uintptr(himc))
}

func foregroundWindow() (windows.HWND, bool) {
	r, _, _ := procGetForegroundWindow.Call()
	if r == 0 {
		return 0, false
	}
	return windows.HWND(r), true
}
