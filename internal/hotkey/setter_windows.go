//go:build windows

package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Binding is a parsed modifiers+key hotkey combination, e.g.
// "ctrl+alt+p".
type Binding struct {
	Modifiers []string
	Key       string
}

// ParseHotkeyString parses a "ctrl+alt+s"-style combination string into
// its modifiers and primary key, validating both against the supported
// sets in GetSupportedModifiers/GetSupportedKeys.
func ParseHotkeyString(s string) (*Binding, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	parts := strings.Split(s, "+")
	if len(parts) < 2 {
		return nil, fmt.Errorf("hotkey: %q needs at least one modifier and one key", s)
	}

	b := &Binding{}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == len(parts)-1 {
			b.Key = part
			continue
		}
		switch part {
		case "ctrl", "control":
			b.Modifiers = append(b.Modifiers, "ctrl")
		case "alt", "option":
			b.Modifiers = append(b.Modifiers, "alt")
		case "shift":
			b.Modifiers = append(b.Modifiers, "shift")
		case "win", "cmd", "command", "super":
			b.Modifiers = append(b.Modifiers, "win")
		default:
			return nil, fmt.Errorf("hotkey: unknown modifier %q", part)
		}
	}

	if err := ValidateHotkey(b.Modifiers, b.Key); err != nil {
		return nil, err
	}
	return b, nil
}

// ValidateHotkey checks that mods/key form a registrable combination.
func ValidateHotkey(mods []string, key string) error {
	if len(mods) == 0 {
		return fmt.Errorf("hotkey: at least one modifier required (ctrl/alt/shift/win)")
	}
	if key == "" {
		return fmt.Errorf("hotkey: a primary key is required")
	}

	k := strings.ToUpper(key)
	valid := len(k) == 1 && ((k[0] >= 'A' && k[0] <= 'Z') || (k[0] >= '0' && k[0] <= '9'))
	if !valid && len(k) >= 2 && k[0] == 'F' {
		n, err := strconv.Atoi(k[1:])
		valid = err == nil && n >= 1 && n <= 12
	}
	if !valid {
		return fmt.Errorf("hotkey: invalid primary key %q (supports a-z, 0-9, f1-f12)", key)
	}
	return nil
}
