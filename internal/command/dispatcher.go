package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/connectors"
)

// Sender delivers encoded command bytes to the board.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// Dispatcher turns user intents into board commands.
//
// Only argument errors are returned. Delivery failures are logged and
// published on the command topic.
type Dispatcher struct {
	sender Sender
	bus    bus.MessageBus
	logger *slog.Logger
}

func NewDispatcher(sender Sender, b bus.MessageBus, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default().With("component", "command")
	}

	return &Dispatcher{sender: sender, bus: b, logger: logger}
}

func (d *Dispatcher) SetRelay(ctx context.Context, index int, state State, periodMs int) error {
	cmd, err := NewRelay(index, state, periodMs)
	if err != nil {
		d.logger.Warn("relay command rejected", "index", index, "state", state, "period_ms", periodMs, "error", err)

		return err
	}
	d.Dispatch(ctx, cmd)

	return nil
}

func (d *Dispatcher) SetOutput(ctx context.Context, index int, state State) error {
	cmd, err := NewOutput(index, state)
	if err != nil {
		d.logger.Warn("output command rejected", "index", index, "state", state, "error", err)

		return err
	}
	d.Dispatch(ctx, cmd)

	return nil
}

// Dispatch sends an already validated command.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) {
	event := connectors.CommandEvent{
		Kind:     string(cmd.Kind()),
		Index:    cmd.Index(),
		State:    string(cmd.State()),
		PeriodMs: cmd.PeriodMs(),
		At:       time.Now(),
	}

	payload, err := cmd.Encode()
	if err == nil {
		event.Line = string(payload[:len(payload)-1])
		err = d.sender.Send(ctx, payload)
	}
	if err != nil {
		event.Err = err.Error()
		d.logger.Warn("command not delivered", "command", cmd.String(), "error", err)
	} else {
		event.Delivered = true
		d.logger.Debug("command sent", "command", event.Line)
	}

	if d.bus != nil {
		d.bus.Publish(connectors.TopicCommand, event)
	}
}
