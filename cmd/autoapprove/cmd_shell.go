package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"golang.design/x/hotkey/mainthread"

	"autoapprove/internal/clipboard"
	"autoapprove/internal/config"
	"autoapprove/internal/eventbus"
	hotkeypkg "autoapprove/internal/hotkey"
	"autoapprove/internal/ipc"
	"autoapprove/internal/logging"
	"autoapprove/internal/notify"
	"autoapprove/internal/tray"
)

// runShellCommand is the default (no subcommand) entry point: the
// shell process that owns the tray icon, global hotkey, and
// notifications, and supervises the worker as a child process (spec
// §5's "shell process" execution context).
func runShellCommand(cmd *cobra.Command, args []string) error {
	lock, err := ipc.AcquireInstanceLock("autoapprove")
	if err != nil {
		return err
	}
	defer lock.Release()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	log := logging.WithComponent("shell")

	worker := exec.Command(os.Args[0], "run")
	worker.Stdout = os.Stdout
	worker.Stderr = os.Stderr
	if err := worker.Start(); err != nil {
		return err
	}
	defer worker.Process.Kill()

	addr, err := waitForWorkerAddr(5 * time.Second)
	if err != nil {
		log.Error().Err(err).Msg("worker did not publish an address in time")
		return err
	}

	control := ipc.NewControlClient(addr)

	clip := clipboard.NewClipboard()
	notifier := notify.NewNotifier()

	var lastEvent eventbus.Event

	t := tray.NewTray()
	t.SetOnPause(func() { control.Send(ipc.CommandPause) })
	t.SetOnResume(func() { control.Send(ipc.CommandResume) })
	t.SetOnCopyStatus(func() {
		data, _ := json.MarshalIndent(lastEvent, "", "  ")
		clip.SetText(string(data))
	})
	t.SetOnQuit(func() { control.Send(ipc.CommandStop) })

	go consumeEvents(addr, t, notifier, &lastEvent)

	log.Info().Str("worker_addr", addr).Msg("shell ready")
	mainthread.Init(func() { runHotkeyAndTray(cfg, control, t) })
	return nil
}

// runHotkeyAndTray binds the pause/resume hotkey and starts the tray's
// blocking event loop. Both need the platform main thread on some
// hotkey backends, so they run inside mainthread.Init.
func runHotkeyAndTray(cfg *config.Config, control *ipc.ControlClient, t *tray.Tray) {
	if len(cfg.PauseHotkey) > 0 {
		mgr := hotkeypkg.NewManager()
		paused := false
		err := mgr.Register(cfg.PauseHotkey, "P", func() {
			if paused {
				control.Send(ipc.CommandResume)
			} else {
				control.Send(ipc.CommandPause)
			}
			paused = !paused
		})
		if err == nil {
			mgr.ListenAsync()
			defer mgr.Unregister()
		}
	}

	t.Run()
}

func waitForWorkerAddr(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(workerAddrPath())
		if err == nil && len(data) > 0 {
			return string(data), nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return "", os.ErrDeadlineExceeded
}

// consumeEvents reads the worker's event stream and updates the tray
// and toast notifications, reconnecting if the connection drops.
func consumeEvents(addr string, t *tray.Tray, notifier notify.Notifier, lastEvent *eventbus.Event) {
	hits := 0
	for {
		client, err := eventbus.Dial(addr)
		if err != nil {
			time.Sleep(time.Second)
			continue
		}
		for {
			ev, err := client.Next()
			if err != nil {
				break
			}
			*lastEvent = ev
			if ev.Kind == eventbus.KindClick && ev.Click != nil && ev.Click.Success {
				hits++
			}
			if ev.Kind == eventbus.KindStatusChanged && ev.Status != nil {
				t.UpdateStatus(ev.Status.State, hits)
			}
			notify.ShowEvent(notifier, ev)
		}
		client.Close()
		time.Sleep(time.Second)
	}
}
