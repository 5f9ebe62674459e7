//go:build windows

// Package winhook is the production Windows hook.Source: a low-level
// keyboard hook (WH_KEYBOARD_LL) feeding SendInput for reinjection, grounded
// on golang.org/x/sys/windows's syscall-wrapper idiom the way
// internal/ime/imm reaches IMM32, generalized to SetWindowsHookEx's
// callback-into-Go-closure shape.
package winhook

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"nitro-core-dx/internal/hook"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookExW    = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx  = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx       = user32.NewProc("CallNextHookEx")
	procGetMessageW          = user32.NewProc("GetMessageW")
	procPostThreadMessageW   = user32.NewProc("PostThreadMessageW")
	procSendInput            = user32.NewProc("SendInput")
	procGetKeyState          = user32.NewProc("GetKeyState")
	procGetCurrentThreadId   = kernel32.NewProc("GetCurrentThreadId")
	procGetModuleHandleW     = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012

	llkhfExtended = 0x01
	llkhfInjected = 0x10

	inputKeyboard  = 1
	keyEventFExtendedKey = 0x0001
	keyEventFKeyUp       = 0x0002
	keyEventFScancode    = 0x0008

	vkShift = 0x10
)

type kbdllhookstruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// keyboardInput mirrors Win32's KEYBDINPUT embedded in the tagged INPUT
// union; Type must be inputKeyboard and the trailing padding keeps the
// struct the same size as the union's largest member (MOUSEINPUT) on amd64.
type keyboardInput struct {
	Type uint32
	_    uint32 // union discriminant alignment padding
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
	_           [8]byte // pad INPUT to MOUSEINPUT's size
}

const injectedExtraInfo uintptr = 0x4e6974726f // "Nitro" sentinel tag

// Hook is the Windows low-level keyboard hook implementation of
// hook.Source.
type Hook struct {
	mu      sync.Mutex
	handler func(scancode uint16, extended, up, physicalShift bool) hook.Result

	hhk          uintptr
	hookThreadID uint32
	done         chan struct{}
	callback     uintptr
}

// New builds an unstarted Windows hook source.
func New() *Hook {
	return &Hook{}
}

func (h *Hook) Start(handler func(scancode uint16, extended, up, physicalShift bool) hook.Result) error {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()

	h.done = make(chan struct{})
	started := make(chan error, 1)

	go h.run(started)

	if err := <-started; err != nil {
		return err
	}
	return nil
}

// run installs the hook and pumps the message loop on its own OS thread:
// SetWindowsHookEx's hook procedure is only called on the thread that
// installed it, so this must stay a dedicated goroutine for the hook's
// entire lifetime.
func (h *Hook) run(started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid, _, _ := procGetCurrentThreadId.Call()
	h.hookThreadID = uint32(tid)

	mod, _, _ := procGetModuleHandleW.Call(0)

	h.callback = windows.NewCallback(h.hookProc)
	hhk, _, errno := procSetWindowsHookExW.Call(
		uintptr(whKeyboardLL),
		h.callback,
		mod,
		0,
	)
	if hhk == 0 {
		started <- fmt.Errorf("winhook: SetWindowsHookExW: %w", errno)
		return
	}
	h.hhk = hhk
	started <- nil

	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if ret == 0 || m.Message == wmQuit {
			break
		}
	}

	procUnhookWindowsHookEx.Call(h.hhk)
	close(h.done)
}

func (h *Hook) hookProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
		if kb.Flags&llkhfInjected == 0 || kb.DwExtraInfo != injectedExtraInfo {
			up := wParam == wmKeyUp || wParam == wmSysKeyUp
			extended := kb.Flags&llkhfExtended != 0
			shift := isShiftPhysicallyDown()

			h.mu.Lock()
			handler := h.handler
			h.mu.Unlock()

			if handler != nil {
				result := handler(uint16(kb.ScanCode), extended, up, shift)
				switch result.Kind {
				case hook.ResultBlock:
					return 1
				case hook.ResultInject:
					h.sendInput(result.Events)
					return 1
				}
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(h.hhk, uintptr(nCode), wParam, lParam)
	return ret
}

func isShiftPhysicallyDown() bool {
	r, _, _ := procGetKeyState.Call(uintptr(vkShift))
	return int16(r) < 0
}

func (h *Hook) Stop() error {
	if h.hookThreadID == 0 {
		return nil
	}
	procPostThreadMessageW.Call(uintptr(h.hookThreadID), wmQuit, 0, 0)
	<-h.done
	return nil
}

func (h *Hook) Inject(events []hook.InputEvent) error {
	return h.sendInput(events)
}

func (h *Hook) sendInput(events []hook.InputEvent) error {
	inputs := make([]keyboardInput, 0, len(events))
	for _, e := range events {
		if e.Kind != hook.EventScancode {
			continue
		}
		flags := uint32(keyEventFScancode)
		if e.Extended {
			flags |= keyEventFExtendedKey
		}
		if e.Up {
			flags |= keyEventFKeyUp
		}
		inputs = append(inputs, keyboardInput{
			Type:        inputKeyboard,
			WScan:       uint16(e.Scancode),
			DwFlags:     flags,
			DwExtraInfo: injectedExtraInfo,
		})
	}
	if len(inputs) == 0 {
		return nil
	}
	sz := unsafe.Sizeof(keyboardInput{})
	ret, _, errno := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(int32(sz)),
	)
	if ret != uintptr(len(inputs)) {
		return fmt.Errorf("winhook: SendInput: %w", errno)
	}
	return nil
}
