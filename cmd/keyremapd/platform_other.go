//go:build !windows

package main

import (
	"nitro-core-dx/internal/hook"
	"nitro-core-dx/internal/hook/sdlhook"
	"nitro-core-dx/internal/ime"
	"nitro-core-dx/internal/profile"
)

func newPlatformHookSource() hook.Source {
	return sdlhook.New()
}

func newPlatformIMEProvider(_ profile.IMEMode) ime.Provider {
	return ime.NewNoop(false)
}
