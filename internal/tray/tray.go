// Package tray hosts the shell process's system tray icon: scanner
// state, hit count, and pause/resume, copy-status and quit controls (spec §6 external
// interfaces — thin glue around the worker's event stream).
package tray

import (
	"fmt"

	"github.com/getlantern/systray"
)

// Tray is the system tray icon and its menu callbacks.
type Tray struct {
	onPause      func()
	onResume     func()
	onCopyStatus func()
	onQuit       func()

	mState  *systray.MenuItem
	mToggle *systray.MenuItem
	paused  bool
}

// NewTray returns an unstarted tray.
func NewTray() *Tray {
	return &Tray{}
}

// SetOnPause sets the callback fired when the user pauses the scanner.
func (t *Tray) SetOnPause(fn func()) { t.onPause = fn }

// SetOnResume sets the callback fired when the user resumes the scanner.
func (t *Tray) SetOnResume(fn func()) { t.onResume = fn }

// SetOnCopyStatus sets the callback for "copy status to clipboard".
func (t *Tray) SetOnCopyStatus(fn func()) { t.onCopyStatus = fn }

// SetOnQuit sets the callback fired before the process exits.
func (t *Tray) SetOnQuit(fn func()) { t.onQuit = fn }

// Run starts the tray event loop; blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle("AutoApprove")
	systray.SetTooltip("AutoApprove - auto-click confirmation dialogs")

	t.mState = systray.AddMenuItem("State: idle", "Current scanner state")
	t.mState.Disable()
	systray.AddSeparator()

	t.mToggle = systray.AddMenuItem("Pause", "Pause/resume the scanner")
	mCopy := systray.AddMenuItem("Copy status", "Copy the last event as JSON")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Stop the worker and exit")

	go func() {
		for {
			select {
			case <-t.mToggle.ClickedCh:
				t.toggle()
			case <-mCopy.ClickedCh:
				if t.onCopyStatus != nil {
					t.onCopyStatus()
				}
			case <-mQuit.ClickedCh:
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) toggle() {
	if t.paused {
		if t.onResume != nil {
			t.onResume()
		}
		t.paused = false
		t.mToggle.SetTitle("Pause")
		return
	}
	if t.onPause != nil {
		t.onPause()
	}
	t.paused = true
	t.mToggle.SetTitle("Resume")
}

// UpdateStatus reflects the worker's latest state/hit count in the tray.
func (t *Tray) UpdateStatus(state string, hitCount int) {
	if t.mState == nil {
		return
	}
	t.mState.SetTitle(fmt.Sprintf("State: %s (%d hits)", state, hitCount))
}

func (t *Tray) onExit() {}
