package mqttbridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/dsrelay/internal/command"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
)

type recordedCall struct {
	Kind   string
	Index  int
	State  command.State
	Period int
}

type fakeDispatcher struct {
	calls []recordedCall
}

func (f *fakeDispatcher) SetRelay(_ context.Context, index int, state command.State, periodMs int) error {
	f.calls = append(f.calls, recordedCall{Kind: "relay", Index: index, State: state, Period: periodMs})

	return nil
}

func (f *fakeDispatcher) SetOutput(_ context.Context, index int, state command.State) error {
	f.calls = append(f.calls, recordedCall{Kind: "output", Index: index, State: state})

	return nil
}

type fakeExecutor struct {
	ids     []string
	options []map[string]any
}

func (f *fakeExecutor) Execute(_ context.Context, id string, options map[string]any) error {
	f.ids = append(f.ids, id)
	f.options = append(f.options, options)

	return nil
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

func newTestBridge() (*Bridge, *fakeDispatcher, *fakeExecutor, *[]published) {
	d := &fakeDispatcher{}
	e := &fakeExecutor{}
	var out []published
	br := New(config.MQTTConfig{RootTopic: "dsrelay"}, d, e, nil, nil)
	br.publish = func(topic string, retained bool, payload []byte) error {
		out = append(out, published{topic: topic, retained: retained, payload: payload})

		return nil
	}

	return br, d, e, &out
}

func TestBridgeHandleMessageRoutesCommands(t *testing.T) {
	br, d, e, _ := newTestBridge()
	ctx := context.Background()

	br.handleMessage(ctx, "dsrelay/relay/1/set", []byte(`{"state":"on","period":500}`))
	br.handleMessage(ctx, "dsrelay/output/32/set", []byte("off"))
	br.handleMessage(ctx, "dsrelay/action/set_output_single", []byte(`{"index":"4"}`))
	br.handleMessage(ctx, "dsrelay/output/1/set", []byte("maybe"))

	assert.Equal(t, []recordedCall{
		{Kind: "relay", Index: 1, State: command.StateOn, Period: 500},
		{Kind: "output", Index: 32, State: command.StateOff},
	}, d.calls)
	require.Equal(t, []string{"set_output_single"}, e.ids)
	assert.Equal(t, "4", e.options[0]["index"])
}

func TestBridgePublishesRetainedStatus(t *testing.T) {
	br, _, _, out := newTestBridge()

	br.publishStatus(connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnected,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
	})

	require.Len(t, *out, 1)
	msg := (*out)[0]
	assert.Equal(t, "dsrelay/status", msg.topic)
	assert.True(t, msg.retained)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, "connected", decoded["state"])
	assert.Equal(t, "10.0.0.5:17123", decoded["target"])
	assert.NotContains(t, decoded, "error")
}
