package actions

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/dsrelay/internal/command"
)

type call struct {
	kind   string
	index  int
	state  command.State
	period int
}

type fakeDispatcher struct {
	calls []call
}

func (f *fakeDispatcher) SetRelay(_ context.Context, index int, state command.State, periodMs int) error {
	if _, err := command.NewRelay(index, state, periodMs); err != nil {
		return err
	}
	f.calls = append(f.calls, call{kind: "relay", index: index, state: state, period: periodMs})

	return nil
}

func (f *fakeDispatcher) SetOutput(_ context.Context, index int, state command.State) error {
	if _, err := command.NewOutput(index, state); err != nil {
		return err
	}
	f.calls = append(f.calls, call{kind: "output", index: index, state: state})

	return nil
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 2)

	assert.Equal(t, SetRelaySingle, defs[0].ID)
	assert.Equal(t, "Set Relay State", defs[0].Label)
	require.Len(t, defs[0].Options, 3)
	assert.Equal(t, "period", defs[0].Options[2].ID)
	assert.Equal(t, 10000, defs[0].Options[2].Max)

	assert.Equal(t, SetOutputSingle, defs[1].ID)
	require.Len(t, defs[1].Options, 2)
	assert.Equal(t, []Choice{{ID: "on", Label: "On"}, {ID: "off", Label: "Off"}}, defs[1].Options[1].Choices)
}

func TestExecuteAppliesDefaults(t *testing.T) {
	d := &fakeDispatcher{}
	e := NewExecutor(d, nil)

	require.NoError(t, e.Execute(context.Background(), SetRelaySingle, nil))
	require.NoError(t, e.Execute(context.Background(), SetOutputSingle, map[string]any{"index": ""}))

	assert.Equal(t, []call{
		{kind: "relay", index: 1, state: command.StateOn, period: 0},
		{kind: "output", index: 1, state: command.StateOn},
	}, d.calls)
}

func TestExecuteDecodesWeaklyTypedOptions(t *testing.T) {
	d := &fakeDispatcher{}
	e := NewExecutor(d, nil)

	err := e.Execute(context.Background(), SetRelaySingle, map[string]any{
		"index":  "5",
		"state":  "off",
		"period": 250.0,
	})
	require.NoError(t, err)
	require.Len(t, d.calls, 1)
	assert.Equal(t, call{kind: "relay", index: 5, state: command.StateOff, period: 250}, d.calls[0])
}

func TestExecuteRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		options map[string]any
	}{
		{name: "index out of range", id: SetOutputSingle, options: map[string]any{"index": 33}},
		{name: "period out of range", id: SetRelaySingle, options: map[string]any{"period": 10001}},
		{name: "unknown choice", id: SetOutputSingle, options: map[string]any{"state": "toggle"}},
		{name: "non numeric index", id: SetRelaySingle, options: map[string]any{"index": "first"}},
		{name: "fractional index", id: SetRelaySingle, options: map[string]any{"index": 32.9}},
		{name: "fractional period above max", id: SetRelaySingle, options: map[string]any{"index": 1, "period": 10000.7}},
		{name: "fractional period", id: SetRelaySingle, options: map[string]any{"period": 1.5}},
		{name: "bool index", id: SetOutputSingle, options: map[string]any{"index": true}},
		{name: "bool period", id: SetRelaySingle, options: map[string]any{"period": false}},
		{name: "fractional string index", id: SetOutputSingle, options: map[string]any{"index": "5.5"}},
		{name: "infinite period", id: SetRelaySingle, options: map[string]any{"period": math.Inf(1)}},
		{name: "not a number index", id: SetOutputSingle, options: map[string]any{"index": math.NaN()}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			err := NewExecutor(d, nil).Execute(context.Background(), tc.id, tc.options)
			assert.True(t, errors.Is(err, command.ErrValidation), "expected validation error, got %v", err)
			assert.Empty(t, d.calls)
		})
	}
}

func TestExecuteAcceptsWholeFloatBounds(t *testing.T) {
	d := &fakeDispatcher{}
	err := NewExecutor(d, nil).Execute(context.Background(), SetRelaySingle, map[string]any{
		"index":  32.0,
		"state":  "on",
		"period": 10000.0,
	})
	require.NoError(t, err)
	require.Len(t, d.calls, 1)
	assert.Equal(t, call{kind: "relay", index: 32, state: command.StateOn, period: 10000}, d.calls[0])
}

func TestCheckWholeNumberReportsField(t *testing.T) {
	err := checkWholeNumber(Option{ID: "period", Min: command.MinPeriodMs, Max: command.MaxPeriodMs}, 10000.7)

	var verr *command.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "period", verr.Field)
	assert.Equal(t, command.MaxPeriodMs, verr.Max)
}

func TestExecuteUnknownAction(t *testing.T) {
	err := NewExecutor(&fakeDispatcher{}, nil).Execute(context.Background(), "set_preset", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
