// Command keyremapd is the process entry point: it wires the hook source,
// the chord engine, and the tray UI together, grounded on the teacher's
// cmd/emulator/main.go flag-parsing-then-wire shape.
package main

import (
	"flag"
	"fmt"
	"os"

	"nitro-core-dx/internal/csm"
	"nitro-core-dx/internal/engine"
	"nitro-core-dx/internal/hook"
	"nitro-core-dx/internal/ime"
	"nitro-core-dx/internal/layout"
	"nitro-core-dx/internal/layoutfile"
	"nitro-core-dx/internal/lifecycle"
	"nitro-core-dx/internal/profile"
	"nitro-core-dx/internal/repeat"
	"nitro-core-dx/internal/telemetry"
	"nitro-core-dx/internal/trayui"
	"nitro-core-dx/internal/watch"
)

func main() {
	layoutPath := flag.String("layout", "", "Path to layout file")
	profilePath := flag.String("profile", "", "Path to profile JSON file")
	noTray := flag.Bool("no-tray", false, "Run without the tray/status window")
	flag.Parse()

	if *layoutPath == "" {
		fmt.Println("Usage: keyremapd -layout <path-to-layout-file> [-profile <path-to-profile.json>]")
		os.Exit(1)
	}

	logger := telemetry.New(10000)

	l, err := loadLayout(*layoutPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading layout: %v\n", err)
		os.Exit(1)
	}

	p := profile.DefaultProfile()
	if *profilePath != "" {
		if loaded, err := profile.Load(*profilePath); err == nil {
			p = loaded
		} else {
			fmt.Fprintf(os.Stderr, "Warning: failed to load profile %s: %v\n", *profilePath, err)
		}
	}

	machine := csm.New(logger)
	machine.SetLayout(l)
	machine.SetProfile(p)

	lc := lifecycle.New(machine, repeat.New(), logger)

	imeProvider := newIMEProvider(p.IMEMode)
	hookSource := newHookSource()

	eng := engine.New(lc, imeProvider, hookSource, logger)
	if err := eng.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Stop()

	var watcher *watch.Watcher
	if w, err := watch.New(lc, logger, *layoutPath, *profilePath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: hot reload disabled: %v\n", err)
	} else {
		watcher = w
		watcher.Start()
		defer watcher.Stop()
	}

	if *noTray {
		eng.WaitForExit()
		os.Exit(exitCodeOf(eng))
	}

	ui := trayui.New(lc, l.DisplayName)
	ui.Run()
	os.Exit(exitCodeOf(eng))
}

func loadLayout(path string) (*layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return layoutfile.Parse(f)
}

func exitCodeOf(eng *engine.Engine) int {
	if code, exited := eng.ExitCode(); exited {
		return code
	}
	return 0
}

func newHookSource() hook.Source {
	return newPlatformHookSource()
}

func newIMEProvider(mode profile.IMEMode) ime.Provider {
	return newPlatformIMEProvider(mode)
}
