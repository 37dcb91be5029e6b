package mqttbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/skobkin/dsrelay/internal/command"
)

var ErrUnknownTopic = errors.New("unknown topic")

// Request is a decoded inbound MQTT message.
type Request struct {
	Kind     command.Kind
	Index    int
	State    command.State
	PeriodMs int

	// ActionID and Options are set for action topics only.
	ActionID string
	Options  map[string]any
}

func (r Request) IsAction() bool {
	return r.ActionID != ""
}

type statePayload struct {
	State  string `json:"state"`
	Period int    `json:"period"`
}

// ParseMessage decodes topic and payload relative to root.
//
//	<root>/relay/<n>/set   on|off or {"state":"on","period":500}
//	<root>/output/<n>/set  on|off or {"state":"off"}
//	<root>/action/<id>     JSON options object
func ParseMessage(root, topic string, payload []byte) (Request, error) {
	rest, ok := strings.CutPrefix(topic, root+"/")
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 2 && parts[0] == "action":
		opts := map[string]any{}
		if len(strings.TrimSpace(string(payload))) > 0 {
			if err := json.Unmarshal(payload, &opts); err != nil {
				return Request{}, fmt.Errorf("%w: action options: %v", command.ErrValidation, err)
			}
		}

		return Request{ActionID: parts[1], Options: opts}, nil
	case len(parts) == 3 && parts[2] == "set" && (parts[0] == "relay" || parts[0] == "output"):
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			return Request{}, &command.ValidationError{Field: "index", Value: parts[1]}
		}
		body, err := parseStatePayload(payload)
		if err != nil {
			return Request{}, err
		}
		state, err := command.ParseState(body.State)
		if err != nil {
			return Request{}, err
		}
		req := Request{Kind: command.Kind(parts[0]), Index: index, State: state}
		if req.Kind == command.KindRelay {
			req.PeriodMs = body.Period
		}

		return req, nil
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
}

func parseStatePayload(payload []byte) (statePayload, error) {
	raw := strings.TrimSpace(string(payload))
	if strings.HasPrefix(raw, "{") {
		var body statePayload
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return statePayload{}, fmt.Errorf("%w: state payload: %v", command.ErrValidation, err)
		}

		return body, nil
	}

	return statePayload{State: raw}, nil
}

func StatusTopic(root string) string {
	return root + "/status"
}

func BridgeTopic(root string) string {
	return root + "/bridge"
}

func subscriptionTopics(root string) []string {
	return []string{
		root + "/relay/+/set",
		root + "/output/+/set",
		root + "/action/+",
	}
}
