// Package trayui is the desktop front end (spec.md §6 "minimal UI"),
// adapted from the teacher's internal/ui fyne_ui.go/menu.go: a status
// window plus a system tray icon instead of a full emulator viewport, wired
// to lifecycle.Manager instead of an emulator instance.
package trayui

import (
	"fmt"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"nitro-core-dx/internal/layoutfile"
	"nitro-core-dx/internal/lifecycle"
)

// UI is the tray/status front end. It owns no engine state of its own; all
// toggling and layout installation goes through lifecycle.Manager, the same
// single critical section internal/engine uses.
type UI struct {
	app    fyne.App
	window fyne.Window
	lc     *lifecycle.Manager

	statusLabel *widget.Label
	layoutLabel *widget.Label
	toggleItem  *fyne.MenuItem
}

// New builds the tray/status UI. It does not call Run; callers should run
// it on the main goroutine, the way fyne requires its event loop to run.
func New(lc *lifecycle.Manager, displayName string) *UI {
	fyneApp := app.NewWithID("org.nitro-core-dx.keyremapd")
	window := fyneApp.NewWindow("Nitro Key Remapper")

	statusLabel := widget.NewLabel("")
	layoutLabel := widget.NewLabel(fmt.Sprintf("Layout: %s", displayName))

	u := &UI{app: fyneApp, window: window, lc: lc, statusLabel: statusLabel, layoutLabel: layoutLabel}

	toggleBtn := widget.NewButton("Toggle Enabled", func() {
		lc.SetEnabled(!lc.Enabled())
		u.refresh()
	})
	openBtn := widget.NewButton("Open Layout...", func() {
		u.showOpenLayoutDialog()
	})

	window.SetContent(container.NewVBox(statusLabel, layoutLabel, toggleBtn, openBtn))
	window.Resize(fyne.NewSize(320, 160))

	u.setupMenu()
	u.setupTray()
	lc.OnEnabledChange(func(enabled bool) { u.showEnabled(enabled) })
	u.refresh()

	return u
}

// setupMenu mirrors the teacher's createMenus shape: one fyne.NewMenu per
// top-level heading, assembled into the window's main menu.
func (u *UI) setupMenu() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Layout...", func() { u.showOpenLayoutDialog() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() { u.window.Close() }),
	)
	u.toggleItem = fyne.NewMenuItem("Disable", func() {
		u.lc.SetEnabled(!u.lc.Enabled())
		u.refresh()
	})
	engineMenu := fyne.NewMenu("Engine", u.toggleItem)
	u.window.SetMainMenu(fyne.NewMainMenu(fileMenu, engineMenu))
}

// setupTray registers a system tray icon and menu when the current driver
// supports one (desktop.App), the way the teacher's FyneUI assumes a
// desktop driver for its SDL-backed rendering.
func (u *UI) setupTray() {
	deskApp, ok := u.app.(desktop.App)
	if !ok {
		return
	}
	show := fyne.NewMenuItem("Show", func() { u.window.Show() })
	quit := fyne.NewMenuItem("Quit", func() { u.app.Quit() })
	deskApp.SetSystemTrayMenu(fyne.NewMenu("Nitro Key Remapper", show, quit))
}

func (u *UI) showOpenLayoutDialog() {
	openDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(fmt.Errorf("open layout: %w", err), u.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()
		u.loadLayoutFrom(reader)
	}, u.window)
	openDialog.SetFilter(storage.NewExtensionFileFilter([]string{".layout"}))
	openDialog.Show()
}

func (u *UI) loadLayoutFrom(r io.Reader) {
	l, err := layoutfile.Parse(r)
	if err != nil {
		dialog.ShowError(fmt.Errorf("parse layout: %w", err), u.window)
		return
	}
	u.lc.InstallLayout(l)
	u.layoutLabel.SetText(fmt.Sprintf("Layout: %s", l.DisplayName))
}

func (u *UI) refresh() {
	u.showEnabled(u.lc.Enabled())
}

// showEnabled updates the status label and menu for the given state without
// calling back into the Manager, so it is safe to run from an
// OnEnabledChange listener.
func (u *UI) showEnabled(enabled bool) {
	if enabled {
		u.statusLabel.SetText("Status: enabled")
		if u.toggleItem != nil {
			u.toggleItem.Label = "Disable"
		}
	} else {
		u.statusLabel.SetText("Status: disabled")
		if u.toggleItem != nil {
			u.toggleItem.Label = "Enable"
		}
	}
	u.window.MainMenu().Refresh()
}

// Run shows the window and blocks on fyne's event loop until the window or
// app is closed.
func (u *UI) Run() {
	u.window.ShowAndRun()
}
