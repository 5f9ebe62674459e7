//go:build windows

package main

import (
	"nitro-core-dx/internal/hook"
	"nitro-core-dx/internal/hook/winhook"
	"nitro-core-dx/internal/ime"
	"nitro-core-dx/internal/ime/imm"
	"nitro-core-dx/internal/profile"
)

func newPlatformHookSource() hook.Source {
	return winhook.New()
}

func newPlatformIMEProvider(mode profile.IMEMode) ime.Provider {
	if mode == profile.IMEForceAlpha {
		return ime.NewNoop(false)
	}
	return imm.New()
}
