//go:build windows

package winlocator

import "syscall"

const (
	eventSystemForeground = 0x0003
	winEventOutOfContext  = 0x0000
	winEventSkipOwn       = 0x0002
)

var (
	procSetWinEventHook = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent  = user32.NewProc("UnhookWinEvent")
)

// ForegroundWatcher reports EVENT_SYSTEM_FOREGROUND transitions to a
// callback, feeding the scheduler's on_foreground_change (spec §4.7).
type ForegroundWatcher struct {
	hook     uintptr
	callback uintptr
}

// StartForegroundWatcher installs a WinEventHook and calls onChange
// with the new foreground handle and its owning process name every
// time the foreground window changes.
func StartForegroundWatcher(onChange func(hwnd uintptr, processName string)) *ForegroundWatcher {
	cb := syscall.NewCallback(func(hWinEventHook, event, hwnd, idObject, idChild, idEventThread, dwmsEventTime uintptr) uintptr {
		if event != eventSystemForeground || hwnd == 0 {
			return 0
		}
		onChange(hwnd, ProcessName(hwnd))
		return 0
	})

	hook, _, _ := procSetWinEventHook.Call(
		eventSystemForeground, eventSystemForeground,
		0, cb, 0, 0,
		winEventOutOfContext|winEventSkipOwn,
	)

	return &ForegroundWatcher{hook: hook, callback: cb}
}

// Stop removes the hook. Safe to call on a zero-value watcher.
func (w *ForegroundWatcher) Stop() {
	if w == nil || w.hook == 0 {
		return
	}
	procUnhookWinEvent.Call(w.hook)
	w.hook = 0
}
