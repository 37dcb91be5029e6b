package ui

import (
	"fmt"
	"sync"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/connectors"
)

func startUIEventListeners(messageBus bus.MessageBus, onConnStatus func(connectors.ConnectionStatus)) func() {
	if messageBus == nil {
		appLogger.Debug("skipping UI event listeners: message bus is nil")

		return func() {}
	}

	connSub := messageBus.Subscribe(connectors.TopicConnStatus)
	appLogger.Debug("subscribed to UI bus topics", "topics", []string{connectors.TopicConnStatus})
	done := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case raw, ok := <-connSub:
				if !ok {
					appLogger.Debug("connection status subscription closed")

					return
				}
				status, ok := raw.(connectors.ConnectionStatus)
				if !ok {
					appLogger.Debug("ignoring unexpected connection status payload", "payload_type", fmt.Sprintf("%T", raw))

					continue
				}
				select {
				case <-done:
					return
				default:
				}
				if onConnStatus != nil {
					onConnStatus(status)
				}
			}
		}
	}()

	return func() {
		stopOnce.Do(func() {
			close(done)
			messageBus.Unsubscribe(connSub, connectors.TopicConnStatus)
		})
	}
}

func bindPresentationListeners(dep RuntimeDependencies, presenter *connectionStatusPresenter) func() {
	return startUIEventListeners(dep.Data.Bus, func(status connectors.ConnectionStatus) {
		dep.runOnUI(func() {
			presenter.Set(status)
		})
	})
}
