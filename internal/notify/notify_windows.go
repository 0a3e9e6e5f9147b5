//go:build windows

package notify

import (
	"github.com/go-toast/toast"
)

// WindowsNotifier presents notifications via the Windows Action Center.
type WindowsNotifier struct {
	appID string
}

// NewNotifier returns a notifier identified to Windows as AutoApprove.
func NewNotifier() Notifier {
	return &WindowsNotifier{appID: "AutoApprove"}
}

// Show pushes a toast asynchronously so a slow or failed toast never
// blocks the scanner thread.
func (n *WindowsNotifier) Show(title, message string) error {
	go func() {
		notification := toast.Notification{
			AppID:   n.appID,
			Title:   title,
			Message: message,
		}
		notification.Push()
	}()
	return nil
}
