package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/connectors"
)

const maxHexPreviewLen = 64

var listenFor time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect and log status changes and raw traffic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts, err := runtimeOptions(nil, nil)
		if err != nil {
			return err
		}
		rt, err := app.Initialize(ctx, opts)
		if err != nil {
			return fmt.Errorf("initialize runtime: %w", err)
		}
		defer func() { _ = rt.Close() }()

		logger := rt.LogManager.Logger("cli")
		watch(rt.Ctx, rt.Bus, logger)
		rt.Connect()

		if listenFor > 0 {
			logger.Info("listen mode", "duration", listenFor)
			select {
			case <-ctx.Done():
			case <-time.After(listenFor):
			}

			return nil
		}

		logger.Info("listening until interrupt")
		<-ctx.Done()

		return nil
	},
}

func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger) {
	connSub := b.Subscribe(connectors.TopicConnStatus)
	commandSub := b.Subscribe(connectors.TopicCommand)
	rawInSub := b.Subscribe(connectors.TopicRawFrameIn)
	rawOutSub := b.Subscribe(connectors.TopicRawFrameOut)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.Unsubscribe(connSub, connectors.TopicConnStatus)
				b.Unsubscribe(commandSub, connectors.TopicCommand)
				b.Unsubscribe(rawInSub, connectors.TopicRawFrameIn)
				b.Unsubscribe(rawOutSub, connectors.TopicRawFrameOut)

				return
			case raw := <-connSub:
				if status, ok := raw.(connectors.ConnectionStatus); ok {
					logger.Info("conn", "state", status.State, "transport", status.TransportName, "target", status.Target, "error", status.Err)
				}
			case raw := <-commandSub:
				if event, ok := raw.(connectors.CommandEvent); ok {
					logger.Info("command", "line", event.Line, "delivered", event.Delivered, "error", event.Err)
				}
			case raw := <-rawOutSub:
				if frame, ok := raw.(connectors.RawFrame); ok {
					logger.Info("raw-out", "len", frame.Len, "hex", previewHex(frame.Hex))
				}
			case raw := <-rawInSub:
				if frame, ok := raw.(connectors.RawFrame); ok {
					logger.Info("raw-in", "len", frame.Len, "hex", previewHex(frame.Hex))
				}
			}
		}
	}()
}

func previewHex(hex string) string {
	hex = strings.TrimSpace(hex)
	if len(hex) <= maxHexPreviewLen {
		return hex
	}

	return hex[:maxHexPreviewLen] + "..."
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&listenFor, "listen-for", 0, "listen duration, e.g. 30s")
}
