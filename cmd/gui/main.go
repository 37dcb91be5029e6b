package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/platform"
	"github.com/skobkin/dsrelay/internal/ui"
)

type launchOptions struct {
	StartHidden bool
	ConfigDir   string
}

func parseLaunchOptions(args []string) (launchOptions, error) {
	var opts launchOptions
	fs := flag.NewFlagSet("dsrelay-gui", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.StartHidden, "start-hidden", false, "start minimized to the system tray")
	fs.StringVar(&opts.ConfigDir, "config-dir", "", "directory for config, journal and logs")
	if err := fs.Parse(args); err != nil {
		return launchOptions{}, err
	}
	if fs.NArg() > 0 {
		return launchOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return opts, nil
}

func resolvePaths(configDir string) (app.Paths, error) {
	if configDir != "" {
		return app.PathsIn(configDir)
	}

	return app.ResolvePaths()
}

func main() {
	launch, err := parseLaunchOptions(os.Args[1:])
	if err != nil {
		slog.Error("parse launch options", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{
		Override: func(cfg *config.AppConfig) error {
			return cfg.ApplyEnv(nil)
		},
	}
	paths, err := resolvePaths(launch.ConfigDir)
	if err != nil {
		slog.Error("resolve paths", "error", err)
		os.Exit(1)
	}
	opts.Paths = &paths

	lock, err := platform.AcquireInstanceLock(app.Name, paths.RootDir)
	if err != nil {
		slog.Error("acquire instance lock", "error", err)
		os.Exit(1)
	}
	defer func() { _ = lock.Release() }()

	rt, err := app.Initialize(ctx, opts)
	if err != nil {
		slog.Error("initialize app runtime", "error", err)
		os.Exit(1)
	}

	var closeOnce sync.Once
	closeRuntime := func() {
		closeOnce.Do(func() {
			_ = rt.Close()
		})
	}
	defer closeRuntime()

	dep := ui.BuildRuntimeDependencies(rt, ui.LaunchOptions{StartHidden: launch.StartHidden}, func() {
		stop()
		closeRuntime()
	})
	if err := ui.Run(dep); err != nil {
		slog.Error("run ui", "error", err)
		os.Exit(1)
	}
}
