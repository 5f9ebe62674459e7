// Package watch hot-reloads the installed layout and profile files
// (SPEC_FULL.md "Both are hot-reloadable"), wiring github.com/fsnotify/fsnotify
// to lifecycle.Manager's InstallLayout/InstallProfile.
package watch

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"nitro-core-dx/internal/layoutfile"
	"nitro-core-dx/internal/lifecycle"
	"nitro-core-dx/internal/profile"
	"nitro-core-dx/internal/telemetry"
)

// debounce absorbs editors that emit several write events for one save
// (truncate, write, chmod), avoiding a reparse storm on every keystroke of
// an autosaving editor.
const debounce = 200 * time.Millisecond

// Watcher reloads the layout and profile files whenever they change on
// disk.
type Watcher struct {
	fsw        *fsnotify.Watcher
	lc         *lifecycle.Manager
	logger     *telemetry.Logger
	layoutPath string
	profilePath string
	quit       chan struct{}
	done       chan struct{}
}

// New builds a Watcher for the given file paths. Call Start to begin
// watching.
func New(lc *lifecycle.Manager, logger *telemetry.Logger, layoutPath, profilePath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: new fsnotify watcher: %w", err)
	}
	for _, p := range []string{layoutPath, profilePath} {
		if p == "" {
			continue
		}
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: add %s: %w", p, err)
		}
	}
	return &Watcher{
		fsw: fsw, lc: lc, logger: logger,
		layoutPath: layoutPath, profilePath: profilePath,
		quit: make(chan struct{}), done: make(chan struct{}),
	}, nil
}

// Start begins the watch loop on its own goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop closes the fsnotify watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	close(w.quit)
	w.fsw.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pendingLayout, pendingProfile bool
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.quit:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			switch event.Name {
			case w.layoutPath:
				pendingLayout = true
			case w.profilePath:
				pendingProfile = true
			default:
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			if pendingLayout {
				w.reloadLayout()
				pendingLayout = false
			}
			if pendingProfile {
				w.reloadProfile()
				pendingProfile = false
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Logf(telemetry.ComponentWatch, telemetry.LevelWarn, "fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) reloadLayout() {
	f, err := os.Open(w.layoutPath)
	if err != nil {
		w.logger.Logf(telemetry.ComponentWatch, telemetry.LevelWarn, "reload layout: open %s: %v", w.layoutPath, err)
		return
	}
	defer f.Close()

	l, err := layoutfile.Parse(f)
	if err != nil {
		w.logger.Logf(telemetry.ComponentWatch, telemetry.LevelWarn, "reload layout: parse %s: %v", w.layoutPath, err)
		return
	}
	w.lc.InstallLayout(l)
	w.logger.Logf(telemetry.ComponentWatch, telemetry.LevelInfo, "reloaded layout from %s", w.layoutPath)
}

func (w *Watcher) reloadProfile() {
	p, err := profile.Load(w.profilePath)
	if err != nil {
		w.logger.Logf(telemetry.ComponentWatch, telemetry.LevelWarn, "reload profile: %s: %v", w.profilePath, err)
		return
	}
	w.lc.InstallProfile(p)
	w.logger.Logf(telemetry.ComponentWatch, telemetry.LevelInfo, "reloaded profile from %s", w.profilePath)
}
