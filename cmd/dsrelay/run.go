package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/httpapi"
	"github.com/skobkin/dsrelay/internal/mqttbridge"
	"github.com/skobkin/dsrelay/internal/notifications"
	"github.com/skobkin/dsrelay/internal/platform"
)

var runFlags struct {
	httpListen string
	mqttBroker string
	noNotify   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep a connection to the board and serve the HTTP and MQTT bridges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var notifier notifications.Sender
		if !runFlags.noNotify {
			notifier = notifications.NewBeeepSender(nil)
		}
		opts, err := runtimeOptions(notifier, applyRunFlags)
		if err != nil {
			return err
		}
		lock, err := platform.AcquireInstanceLock(app.Name, opts.Paths.RootDir)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
		rt, err := app.Initialize(ctx, opts)
		if err != nil {
			return fmt.Errorf("initialize runtime: %w", err)
		}
		defer func() { _ = rt.Close() }()

		cfg := rt.CurrentConfig()
		logger := rt.LogManager.Logger("cli")
		errCh := make(chan error, 1)

		if cfg.HTTP.Enabled {
			metrics := httpapi.NewMetrics()
			metrics.Watch(rt.Ctx, rt.Bus)
			srv := httpapi.NewServer(rt.Relay, rt.Dispatcher, rt.Actions, metrics, rt.LogManager.Logger("http"))
			go func() {
				if err := srv.ListenAndServe(rt.Ctx, cfg.HTTP.Listen); err != nil {
					errCh <- err
				}
			}()
		}
		if cfg.MQTT.Enabled {
			bridge := mqttbridge.New(cfg.MQTT, rt.Dispatcher, rt.Actions, rt.Bus, rt.LogManager.Logger("mqtt"))
			if err := bridge.Start(rt.Ctx); err != nil {
				return err
			}
		}

		rt.Connect()
		logger.Info("relay client running",
			"connector", cfg.Connection.Connector,
			"target", cfg.Connection.Target(),
			"http", cfg.HTTP.Enabled,
			"mqtt", cfg.MQTT.Enabled,
		)

		select {
		case <-ctx.Done():
			logger.Info("shutting down")

			return nil
		case err := <-errCh:
			return err
		}
	},
}

func applyRunFlags(cfg *config.AppConfig) error {
	if listen := strings.TrimSpace(runFlags.httpListen); listen != "" {
		cfg.HTTP.Enabled = true
		cfg.HTTP.Listen = listen
	}
	if broker := strings.TrimSpace(runFlags.mqttBroker); broker != "" {
		cfg.MQTT.Enabled = true
		cfg.MQTT.Broker = broker
	}

	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.httpListen, "http-listen", "", "enable the HTTP API on this address")
	runCmd.Flags().StringVar(&runFlags.mqttBroker, "mqtt-broker", "", "enable the MQTT bridge with this broker URL")
	runCmd.Flags().BoolVar(&runFlags.noNotify, "no-notify", false, "disable desktop notifications")
}
