// Package hotkey binds a single global hotkey to the pause/resume
// control message (spec §6 ambient: pause_hotkey), not to keystroke
// synthesis — the pipeline only listens for this one combination.
package hotkey

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"
)

// Manager owns one registered global hotkey and its callback.
type Manager struct {
	hk       *hotkey.Hotkey
	callback func()
}

// NewManager returns an unregistered hotkey manager.
func NewManager() *Manager {
	return &Manager{}
}

func parseModifiers(mods []string) []hotkey.Modifier {
	var result []hotkey.Modifier
	for _, mod := range mods {
		switch strings.ToLower(mod) {
		case "ctrl", "control":
			result = append(result, hotkey.ModCtrl)
		case "alt", "option":
			result = append(result, hotkey.ModAlt)
		case "shift":
			result = append(result, hotkey.ModShift)
		case "win", "cmd", "command", "super":
			result = append(result, hotkey.ModWin)
		}
	}
	return result
}

func parseKey(key string) hotkey.Key {
	key = strings.ToUpper(key)

	if len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z' {
		return hotkey.Key(key[0])
	}
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return hotkey.Key(key[0])
	}

	switch key {
	case "F1":
		return hotkey.KeyF1
	case "F2":
		return hotkey.KeyF2
	case "F3":
		return hotkey.KeyF3
	case "F4":
		return hotkey.KeyF4
	case "F5":
		return hotkey.KeyF5
	case "F6":
		return hotkey.KeyF6
	case "F7":
		return hotkey.KeyF7
	case "F8":
		return hotkey.KeyF8
	case "F9":
		return hotkey.KeyF9
	case "F10":
		return hotkey.KeyF10
	case "F11":
		return hotkey.KeyF11
	case "F12":
		return hotkey.KeyF12
	case "SPACE":
		return hotkey.KeySpace
	case "RETURN", "ENTER":
		return hotkey.KeyReturn
	case "ESCAPE", "ESC":
		return hotkey.KeyEscape
	case "TAB":
		return hotkey.KeyTab
	case "CAPSLOCK":
		return hotkey.Key(0x14) // VK_CAPITAL
	case "DELETE", "DEL":
		return hotkey.KeyDelete
	case "UP":
		return hotkey.KeyUp
	case "DOWN":
		return hotkey.KeyDown
	case "LEFT":
		return hotkey.KeyLeft
	case "RIGHT":
		return hotkey.KeyRight
	}

	return hotkey.KeyS
}

// Register binds modifiers+key to callback, invoked on every keydown.
func (m *Manager) Register(modifiers []string, key string, callback func()) error {
	mods := parseModifiers(modifiers)
	k := parseKey(key)

	m.hk = hotkey.New(mods, k)
	m.callback = callback

	if err := m.hk.Register(); err != nil {
		return fmt.Errorf("hotkey: register %v+%s: %w", modifiers, key, err)
	}
	return nil
}

// Unregister releases the bound hotkey, if any.
func (m *Manager) Unregister() error {
	if m.hk != nil {
		return m.hk.Unregister()
	}
	return nil
}

// Listen blocks, invoking the callback on each keydown event.
func (m *Manager) Listen() {
	for range m.hk.Keydown() {
		if m.callback != nil {
			m.callback()
		}
	}
}

// ListenAsync runs Listen on a background goroutine.
func (m *Manager) ListenAsync() {
	go m.Listen()
}

// Run executes fn on the OS-owned main thread, required by some
// platforms' global hotkey registration APIs.
func Run(fn func()) {
	mainthread.Init(fn)
}

// GetSupportedModifiers lists the modifier names Register accepts.
func GetSupportedModifiers() []string {
	return []string{"ctrl", "alt", "shift", "win"}
}

// GetSupportedKeys lists the primary key names Register accepts.
func GetSupportedKeys() []string {
	keys := []string{}

	for c := 'a'; c <= 'z'; c++ {
		keys = append(keys, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		keys = append(keys, string(c))
	}
	for i := 1; i <= 12; i++ {
		keys = append(keys, fmt.Sprintf("f%d", i))
	}

	return keys
}
