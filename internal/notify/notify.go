// Package notify presents worker status/error events as OS toast
// notifications in the shell process (spec §6 external interfaces).
package notify

import "autoapprove/internal/eventbus"

// Notifier is the minimal toast contract the shell uses.
type Notifier interface {
	Show(title, message string) error
}

// ShowEvent renders the subset of worker events a user should be
// interrupted for: state transitions into Faulted/Paused and any
// Error event. Match/Click/PerfTick stay silent — they are too
// frequent to surface as toasts and already visible in the tray.
func ShowEvent(n Notifier, ev eventbus.Event) error {
	switch ev.Kind {
	case eventbus.KindStatusChanged:
		if ev.Status == nil {
			return nil
		}
		switch ev.Status.State {
		case "faulted", "paused":
			return n.Show("AutoApprove", ev.Status.State+": "+ev.Status.Detail)
		}
		return nil
	case eventbus.KindError:
		if ev.Error == nil {
			return nil
		}
		return n.Show("AutoApprove error", ev.Error.Kind+": "+ev.Error.Detail)
	default:
		return nil
	}
}
