package mqttbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/dsrelay/internal/command"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    Request
	}{
		{
			name:    "relay plain state",
			topic:   "dsrelay/relay/3/set",
			payload: "ON",
			want:    Request{Kind: command.KindRelay, Index: 3, State: command.StateOn},
		},
		{
			name:    "relay json with period",
			topic:   "dsrelay/relay/1/set",
			payload: `{"state":"on","period":500}`,
			want:    Request{Kind: command.KindRelay, Index: 1, State: command.StateOn, PeriodMs: 500},
		},
		{
			name:    "output ignores period",
			topic:   "dsrelay/output/32/set",
			payload: `{"state":"off","period":100}`,
			want:    Request{Kind: command.KindOutput, Index: 32, State: command.StateOff},
		},
		{
			name:    "action with options",
			topic:   "dsrelay/action/set_output_single",
			payload: `{"index":2,"state":"off"}`,
			want: Request{ActionID: "set_output_single", Options: map[string]any{
				"index": float64(2),
				"state": "off",
			}},
		},
		{
			name:    "action without payload",
			topic:   "dsrelay/action/set_relay_single",
			payload: "",
			want:    Request{ActionID: "set_relay_single", Options: map[string]any{}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseMessage("dsrelay", tc.topic, []byte(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseMessageRejects(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		target  error
	}{
		{name: "foreign root", topic: "other/relay/1/set", payload: "on", target: ErrUnknownTopic},
		{name: "missing set suffix", topic: "dsrelay/relay/1", payload: "on", target: ErrUnknownTopic},
		{name: "status topic", topic: "dsrelay/status", payload: "{}", target: ErrUnknownTopic},
		{name: "non numeric index", topic: "dsrelay/output/x/set", payload: "on", target: command.ErrValidation},
		{name: "bad state", topic: "dsrelay/output/1/set", payload: "toggle", target: command.ErrValidation},
		{name: "bad json", topic: "dsrelay/relay/1/set", payload: "{", target: command.ErrValidation},
		{name: "bad action json", topic: "dsrelay/action/set_relay_single", payload: "[1]", target: command.ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMessage("dsrelay", tc.topic, []byte(tc.payload))
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "home/board/status", StatusTopic("home/board"))
	assert.Equal(t, "home/board/bridge", BridgeTopic("home/board"))
	assert.Equal(t, []string{
		"home/board/relay/+/set",
		"home/board/output/+/set",
		"home/board/action/+",
	}, subscriptionTopics("home/board"))
}
