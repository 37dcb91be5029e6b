package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/command"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
)

const (
	bridgeOnline  = "online"
	bridgeOffline = "offline"
	tokenTimeout  = 5 * time.Second
	qos           = 1
)

type Dispatcher interface {
	SetRelay(ctx context.Context, index int, state command.State, periodMs int) error
	SetOutput(ctx context.Context, index int, state command.State) error
}

type ActionExecutor interface {
	Execute(ctx context.Context, actionID string, options map[string]any) error
}

type publishFunc func(topic string, retained bool, payload []byte) error

// Bridge exposes the relay board over MQTT.
type Bridge struct {
	cfg        config.MQTTConfig
	dispatcher Dispatcher
	actions    ActionExecutor
	bus        bus.MessageBus
	logger     *slog.Logger

	client  mqttlib.Client
	publish publishFunc
}

func New(cfg config.MQTTConfig, dispatcher Dispatcher, actions ActionExecutor, b bus.MessageBus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default().With("component", "mqtt")
	}

	return &Bridge{
		cfg:        cfg,
		dispatcher: dispatcher,
		actions:    actions,
		bus:        b,
		logger:     logger,
	}
}

// Start connects to the broker and serves until ctx ends. Paho reconnects on its own.
func (br *Bridge) Start(ctx context.Context) error {
	root := br.cfg.RootTopic
	opts := mqttlib.NewClientOptions()
	opts.AddBroker(br.cfg.Broker)
	opts.SetClientID(br.cfg.ClientID)
	opts.SetUsername(br.cfg.Username)
	opts.SetPassword(br.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetWill(BridgeTopic(root), bridgeOffline, qos, true)
	opts.SetOnConnectHandler(func(client mqttlib.Client) {
		br.logger.Info("connected to broker", "broker", br.cfg.Broker)
		br.onConnect(ctx, client)
	})
	opts.SetConnectionLostHandler(func(_ mqttlib.Client, err error) {
		br.logger.Warn("broker connection lost", "error", err)
	})

	client := mqttlib.NewClient(opts)
	br.client = client
	br.publish = func(topic string, retained bool, payload []byte) error {
		token := client.Publish(topic, qos, retained, payload)
		if !token.WaitTimeout(tokenTimeout) {
			return fmt.Errorf("publish %s: timeout", topic)
		}

		return token.Error()
	}

	token := client.Connect()
	if !token.WaitTimeout(tokenTimeout) {
		br.logger.Warn("broker not reachable yet, retrying in background", "broker", br.cfg.Broker)
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("connect mqtt broker: %w", err)
	}

	statusSub := br.bus.Subscribe(connectors.TopicConnStatus)
	go func() {
		defer br.bus.Unsubscribe(statusSub, connectors.TopicConnStatus)
		for {
			select {
			case <-ctx.Done():
				br.shutdown()

				return
			case raw, ok := <-statusSub:
				if !ok {
					return
				}
				status, ok := raw.(connectors.ConnectionStatus)
				if !ok {
					continue
				}
				br.publishStatus(status)
			}
		}
	}()

	return nil
}

func (br *Bridge) onConnect(ctx context.Context, client mqttlib.Client) {
	root := br.cfg.RootTopic
	if err := br.publish(BridgeTopic(root), true, []byte(bridgeOnline)); err != nil {
		br.logger.Warn("publish bridge state failed", "error", err)
	}
	for _, topic := range subscriptionTopics(root) {
		token := client.Subscribe(topic, qos, func(_ mqttlib.Client, msg mqttlib.Message) {
			br.handleMessage(ctx, msg.Topic(), msg.Payload())
		})
		if token.WaitTimeout(tokenTimeout) && token.Error() != nil {
			br.logger.Error("subscribe failed", "topic", topic, "error", token.Error())
		}
	}
}

func (br *Bridge) handleMessage(ctx context.Context, topic string, payload []byte) {
	req, err := ParseMessage(br.cfg.RootTopic, topic, payload)
	if err != nil {
		br.logger.Warn("mqtt message rejected", "topic", topic, "error", err)

		return
	}

	switch {
	case req.IsAction():
		err = br.actions.Execute(ctx, req.ActionID, req.Options)
	case req.Kind == command.KindRelay:
		err = br.dispatcher.SetRelay(ctx, req.Index, req.State, req.PeriodMs)
	default:
		err = br.dispatcher.SetOutput(ctx, req.Index, req.State)
	}
	if err != nil {
		br.logger.Warn("mqtt command failed", "topic", topic, "error", err)
	}
}

func (br *Bridge) publishStatus(status connectors.ConnectionStatus) {
	payload, err := json.Marshal(status)
	if err != nil {
		br.logger.Error("encode status", "error", err)

		return
	}
	if err := br.publish(StatusTopic(br.cfg.RootTopic), true, payload); err != nil {
		br.logger.Warn("publish status failed", "error", err)
	}
}

func (br *Bridge) shutdown() {
	if br.client == nil {
		return
	}
	if br.client.IsConnected() {
		if err := br.publish(BridgeTopic(br.cfg.RootTopic), true, []byte(bridgeOffline)); err != nil {
			br.logger.Warn("publish bridge state failed", "error", err)
		}
	}
	br.client.Disconnect(250)
	br.logger.Info("disconnected from broker")
}
