package httpapi

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/connectors"
)

var knownStates = []connectors.ConnectionState{
	connectors.ConnectionStateDisconnected,
	connectors.ConnectionStateConnecting,
	connectors.ConnectionStateConnected,
	connectors.ConnectionStateError,
	connectors.ConnectionStateBadConfig,
}

// Metrics holds the exported board counters on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	commands        *prometheus.CounterVec
	connectionState *prometheus.GaugeVec
	inboundBytes    prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsrelay_commands_total",
				Help: "Board commands dispatched, by kind and delivery result",
			},
			[]string{"kind", "result"},
		),
		connectionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dsrelay_connection_state",
				Help: "1 for the current connection state, 0 otherwise",
			},
			[]string{"state"},
		),
		inboundBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dsrelay_inbound_bytes_total",
			Help: "Bytes received from the board",
		}),
	}
	m.registry.MustRegister(m.commands, m.connectionState, m.inboundBytes)
	m.ObserveStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateDisconnected})

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCommand(e connectors.CommandEvent) {
	result := "delivered"
	if !e.Delivered {
		result = "failed"
	}
	m.commands.WithLabelValues(e.Kind, result).Inc()
}

func (m *Metrics) ObserveStatus(s connectors.ConnectionStatus) {
	for _, state := range knownStates {
		value := 0.0
		if state == s.State {
			value = 1
		}
		m.connectionState.WithLabelValues(string(state)).Set(value)
	}
}

func (m *Metrics) ObserveInbound(f connectors.RawFrame) {
	m.inboundBytes.Add(float64(f.Len))
}

// Watch feeds the metrics from bus events until ctx ends.
func (m *Metrics) Watch(ctx context.Context, b bus.MessageBus) {
	commandSub := b.Subscribe(connectors.TopicCommand)
	statusSub := b.Subscribe(connectors.TopicConnStatus)
	inboundSub := b.Subscribe(connectors.TopicRawFrameIn)

	go func() {
		defer b.Unsubscribe(commandSub, connectors.TopicCommand)
		defer b.Unsubscribe(statusSub, connectors.TopicConnStatus)
		defer b.Unsubscribe(inboundSub, connectors.TopicRawFrameIn)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-commandSub:
				if !ok {
					return
				}
				if e, ok := raw.(connectors.CommandEvent); ok {
					m.ObserveCommand(e)
				}
			case raw, ok := <-statusSub:
				if !ok {
					return
				}
				if s, ok := raw.(connectors.ConnectionStatus); ok {
					m.ObserveStatus(s)
				}
			case raw, ok := <-inboundSub:
				if !ok {
					return
				}
				if f, ok := raw.(connectors.RawFrame); ok {
					m.ObserveInbound(f)
				}
			}
		}
	}()
}
