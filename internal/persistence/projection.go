package persistence

import (
	"context"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/connectors"
)

// WriteQueue serializes persistence writes from async bus events.
type WriteQueue interface {
	Enqueue(name string, fn func(context.Context) error)
}

// StartJournalProjection records command and connection status events until ctx ends.
func StartJournalProjection(ctx context.Context, b bus.MessageBus, queue WriteQueue, commands *CommandRepo, statuses *StatusRepo) {
	commandSub := b.Subscribe(connectors.TopicCommand)
	statusSub := b.Subscribe(connectors.TopicConnStatus)

	go func() {
		defer b.Unsubscribe(commandSub, connectors.TopicCommand)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-commandSub:
				if !ok {
					return
				}
				event, ok := raw.(connectors.CommandEvent)
				if !ok {
					continue
				}
				queue.Enqueue("insert_command", func(writeCtx context.Context) error {
					return commands.Insert(writeCtx, event)
				})
			}
		}
	}()

	go func() {
		defer b.Unsubscribe(statusSub, connectors.TopicConnStatus)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-statusSub:
				if !ok {
					return
				}
				status, ok := raw.(connectors.ConnectionStatus)
				if !ok {
					continue
				}
				queue.Enqueue("insert_status", func(writeCtx context.Context) error {
					return statuses.Insert(writeCtx, status)
				})
			}
		}
	}()
}
