package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mitchellh/mapstructure"

	"github.com/skobkin/dsrelay/internal/command"
)

const (
	SetRelaySingle  = "set_relay_single"
	SetOutputSingle = "set_output_single"
)

var ErrUnknownAction = errors.New("unknown action")

type OptionType string

const (
	OptionNumber   OptionType = "number"
	OptionDropdown OptionType = "dropdown"
)

type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Option describes one user-editable action parameter.
type Option struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Type     OptionType `json:"type"`
	Min      int        `json:"min,omitempty"`
	Max      int        `json:"max,omitempty"`
	Step     int        `json:"step,omitempty"`
	Default  any        `json:"default"`
	Required bool       `json:"required,omitempty"`
	Choices  []Choice   `json:"choices,omitempty"`
}

type Definition struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

var stateChoices = []Choice{
	{ID: string(command.StateOn), Label: "On"},
	{ID: string(command.StateOff), Label: "Off"},
}

func indexOption() Option {
	return Option{
		ID: "index", Label: "Index", Type: OptionNumber,
		Min: command.MinIndex, Max: command.MaxIndex, Step: 1,
		Default: 1, Required: true,
	}
}

func stateOption() Option {
	return Option{
		ID: "state", Label: "Select State", Type: OptionDropdown,
		Default: string(command.StateOn), Choices: stateChoices,
	}
}

// Definitions returns the supported actions in display order.
func Definitions() []Definition {
	return []Definition{
		{
			ID:    SetRelaySingle,
			Label: "Set Relay State",
			Options: []Option{
				indexOption(),
				stateOption(),
				{
					ID: "period", Label: "On time (ms)", Type: OptionNumber,
					Min: command.MinPeriodMs, Max: command.MaxPeriodMs, Step: 1,
					Default: 0, Required: true,
				},
			},
		},
		{
			ID:      SetOutputSingle,
			Label:   "Set Output State",
			Options: []Option{indexOption(), stateOption()},
		},
	}
}

// Lookup finds an action definition by ID.
func Lookup(id string) (Definition, bool) {
	for _, def := range Definitions() {
		if def.ID == id {
			return def, true
		}
	}

	return Definition{}, false
}

type Dispatcher interface {
	SetRelay(ctx context.Context, index int, state command.State, periodMs int) error
	SetOutput(ctx context.Context, index int, state command.State) error
}

// Executor runs actions by ID with loosely typed options.
type Executor struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewExecutor(dispatcher Dispatcher, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default().With("component", "actions")
	}

	return &Executor{dispatcher: dispatcher, logger: logger}
}

type actionOptions struct {
	Index  int    `mapstructure:"index"`
	State  string `mapstructure:"state"`
	Period int    `mapstructure:"period"`
}

func (e *Executor) Execute(ctx context.Context, id string, options map[string]any) error {
	def, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}

	opts, err := decodeOptions(def, options)
	if err != nil {
		e.logger.Warn("action options rejected", "action", id, "error", err)

		return err
	}
	state, err := command.ParseState(opts.State)
	if err != nil {
		return err
	}

	e.logger.Debug("executing action", "action", id, "index", opts.Index, "state", state, "period", opts.Period)
	switch def.ID {
	case SetRelaySingle:
		return e.dispatcher.SetRelay(ctx, opts.Index, state, opts.Period)
	case SetOutputSingle:
		return e.dispatcher.SetOutput(ctx, opts.Index, state)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
}

func decodeOptions(def Definition, raw map[string]any) (actionOptions, error) {
	merged := make(map[string]any, len(def.Options))
	for _, opt := range def.Options {
		merged[opt.ID] = opt.Default
	}
	for key, value := range raw {
		if value == nil || value == "" {
			continue
		}
		merged[key] = value
	}

	for _, opt := range def.Options {
		if opt.Type != OptionNumber {
			continue
		}
		if err := checkWholeNumber(opt, merged[opt.ID]); err != nil {
			return actionOptions{}, err
		}
	}

	var opts actionOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return actionOptions{}, err
	}
	if err := decoder.Decode(merged); err != nil {
		return actionOptions{}, fmt.Errorf("%w: %v", command.ErrValidation, err)
	}

	for _, opt := range def.Options {
		if opt.Type != OptionDropdown {
			continue
		}
		value := fmt.Sprint(merged[opt.ID])
		if !hasChoice(opt.Choices, value) {
			return actionOptions{}, &command.ValidationError{Field: opt.ID, Value: value}
		}
	}

	return opts, nil
}

// checkWholeNumber rejects values the weak decoder would silently truncate.
// Numeric strings are left to the decoder.
func checkWholeNumber(opt Option, value any) error {
	invalid := &command.ValidationError{Field: opt.ID, Value: value, Min: opt.Min, Max: opt.Max}

	var f float64
	switch v := value.(type) {
	case bool:
		return invalid
	case float32:
		f = float64(v)
	case float64:
		f = v
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return invalid
	}
	if f < float64(opt.Min) || f > float64(opt.Max) {
		return invalid
	}

	return nil
}

func hasChoice(choices []Choice, id string) bool {
	for _, c := range choices {
		if c.ID == id {
			return true
		}
	}

	return false
}
