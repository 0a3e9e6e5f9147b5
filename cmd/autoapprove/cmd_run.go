package main

import (
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"autoapprove/internal/clickdispatch"
	"autoapprove/internal/config"
	"autoapprove/internal/eventbus"
	"autoapprove/internal/framecache"
	"autoapprove/internal/ipc"
	"autoapprove/internal/logging"
	"autoapprove/internal/matcher"
	"autoapprove/internal/scanner"
	"autoapprove/internal/scheduler"
	"autoapprove/internal/templatebank"
	"autoapprove/internal/winlocator"
)

func configPath() string {
	return config.GetConfigPath()
}

// workerAddrPath is where the worker publishes its bound loopback
// address so the shell process can discover it after spawning the
// worker as a child (spec §5: worker and shell are separate processes).
func workerAddrPath() string {
	return filepath.Join(filepath.Dir(config.GetConfigPath()), "worker.addr")
}

// newRunCommand is the worker process entry point (spec §4.9/§5):
// composes C2-C10 and runs the tick loop until Stop.
func newRunCommand() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the capture/match/click worker (internal; spawned by the shell)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(listenAddr)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:0", "loopback address for the event/control server")
	return cmd
}

func runWorker(listenAddr string) error {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Error().Err(err).Msg("config load failed, using defaults")
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	log := logging.WithComponent("worker")

	bank := templatebank.New(cfg.Scales)
	paths := cfg.TemplatePaths
	if len(paths) == 0 && cfg.TemplatePath != "" {
		paths = []string{cfg.TemplatePath}
	}
	for _, p := range paths {
		if _, err := bank.Load(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("failed to load template")
		}
	}

	cache := framecache.New(5 * time.Minute)
	sweeper := framecache.NewSweeper(cache, 30*time.Second)
	sweeper.Start()
	defer sweeper.Stop()

	sched := scheduler.New(scheduler.Config{
		ActiveScanIntervalMS: cfg.ActiveScanIntervalMS,
		IdleScanIntervalMS:   cfg.IdleScanIntervalMS,
		MissBackoffMSMax:     cfg.MissBackoffMSMax,
		HitCooldownMS:        cfg.HitCooldownMS,
		ProcessWhitelist:     cfg.ProcessWhitelist,
	})

	m := matcher.New(cfg.Grayscale, cfg.Threshold)
	click := clickdispatch.New(
		time.Duration(cfg.CooldownS*float64(time.Second)),
		clickdispatch.Method(cfg.ClickMethod),
		cfg.VerifyWindowBeforeClick,
	)

	fgWatcher := winlocator.StartForegroundWatcher(func(hwnd uintptr, processName string) {
		sched.OnForegroundChange(processName)
	})
	defer fgWatcher.Stop()

	bus := eventbus.NewChannel()
	orch := scanner.New(cfg, bank, cache, sched, m, click, bus)

	server := eventbus.NewServer(bus)
	ipc.NewControlServer(server.Router(), ipc.Handlers{
		OnPause:  orch.Pause,
		OnResume: orch.Resume,
		OnStop:   orch.Stop,
	})

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	log.Info().Str("addr", listener.Addr().String()).Msg("worker listening")
	if err := os.WriteFile(workerAddrPath(), []byte(listener.Addr().String()), 0644); err != nil {
		log.Warn().Err(err).Msg("failed to publish worker address")
	}
	defer os.Remove(workerAddrPath())

	go func() {
		if err := server.Serve(listener); err != nil {
			log.Error().Err(err).Msg("event server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		orch.Stop()
	}()

	orch.Run()
	return nil
}
