package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/command"
	"github.com/skobkin/dsrelay/internal/connectors"
)

const defaultSendTimeout = 10 * time.Second

var (
	sendTimeout time.Duration
	relayPeriod int
)

var relayCmd = &cobra.Command{
	Use:   "relay <index> <on|off>",
	Short: "Switch a relay, optionally for a limited time",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, state, err := parseTarget(args)
		if err != nil {
			return err
		}
		if _, err := command.NewRelay(index, state, relayPeriod); err != nil {
			return err
		}

		return sendOnce(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, rt *app.Runtime) error {
			return rt.Dispatcher.SetRelay(ctx, index, state, relayPeriod)
		})
	},
}

var outputCmd = &cobra.Command{
	Use:   "output <index> <on|off>",
	Short: "Switch a digital output",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, state, err := parseTarget(args)
		if err != nil {
			return err
		}
		if _, err := command.NewOutput(index, state); err != nil {
			return err
		}

		return sendOnce(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, rt *app.Runtime) error {
			return rt.Dispatcher.SetOutput(ctx, index, state)
		})
	},
}

func parseTarget(args []string) (int, command.State, error) {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, "", &command.ValidationError{Field: "index", Value: args[0], Min: command.MinIndex, Max: command.MaxIndex}
	}
	state, err := command.ParseState(args[1])
	if err != nil {
		return 0, "", err
	}

	return index, state, nil
}

// sendOnce connects, runs send, reports the delivered line and disconnects.
func sendOnce(ctx context.Context, out io.Writer, send func(ctx context.Context, rt *app.Runtime) error) error {
	opts, err := runtimeOptions(nil, nil)
	if err != nil {
		return err
	}
	rt, err := app.Initialize(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}
	defer func() { _ = rt.Close() }()

	connSub := rt.Bus.Subscribe(connectors.TopicConnStatus)
	commandSub := rt.Bus.Subscribe(connectors.TopicCommand)
	defer rt.Bus.Unsubscribe(connSub, connectors.TopicConnStatus)
	defer rt.Bus.Unsubscribe(commandSub, connectors.TopicCommand)

	rt.Connect()
	if _, err := waitConnected(ctx, connSub, sendTimeout); err != nil {
		return err
	}
	if err := send(ctx, rt); err != nil {
		return err
	}
	event, err := waitCommand(ctx, commandSub, sendTimeout)
	if err != nil {
		return err
	}
	if !event.Delivered {
		return fmt.Errorf("%s: not delivered: %s", event.Line, event.Err)
	}
	_, _ = fmt.Fprintln(out, event.Line)
	rt.Relay.Disconnect()

	return nil
}

var errConnectTimeout = errors.New("timed out waiting for the board")

// waitConnected blocks until the board is connected or the attempt has failed.
func waitConnected(ctx context.Context, sub bus.Subscription, timeout time.Duration) (connectors.ConnectionStatus, error) {
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return connectors.ConnectionStatus{}, ctx.Err()
		case <-deadline:
			return connectors.ConnectionStatus{}, errConnectTimeout
		case raw, ok := <-sub:
			if !ok {
				return connectors.ConnectionStatus{}, errors.New("status stream closed")
			}
			status, ok := raw.(connectors.ConnectionStatus)
			if !ok {
				continue
			}
			switch status.State {
			case connectors.ConnectionStateConnected:
				return status, nil
			case connectors.ConnectionStateBadConfig:
				return status, errors.New("board target is not configured: set --host or --serial-port")
			case connectors.ConnectionStateError:
				return status, fmt.Errorf("connect %s: %s", status.Target, status.Err)
			}
		}
	}
}

func waitCommand(ctx context.Context, sub bus.Subscription, timeout time.Duration) (connectors.CommandEvent, error) {
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return connectors.CommandEvent{}, ctx.Err()
		case <-deadline:
			return connectors.CommandEvent{}, errors.New("timed out waiting for command result")
		case raw, ok := <-sub:
			if !ok {
				return connectors.CommandEvent{}, errors.New("command stream closed")
			}
			if event, ok := raw.(connectors.CommandEvent); ok {
				return event, nil
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(relayCmd, outputCmd)

	rootCmd.PersistentFlags().DurationVar(&sendTimeout, "timeout", defaultSendTimeout, "how long to wait for the board")
	relayCmd.Flags().IntVar(&relayPeriod, "period", 0, "on time in milliseconds, 0 keeps the state")
}
