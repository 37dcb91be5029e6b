package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	MinIndex    = 1
	MaxIndex    = 32
	MinPeriodMs = 0
	MaxPeriodMs = 10000
)

// Kind selects the board channel family a command addresses.
type Kind string

const (
	KindRelay  Kind = "relay"
	KindOutput Kind = "output"
)

// State is the requested channel state.
type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

var (
	// ErrValidation wraps every rejected command argument.
	ErrValidation = errors.New("invalid command")
	// ErrMalformedLine is returned when a rendered line does not match the wire format.
	ErrMalformedLine = errors.New("rendered command does not match wire format")
)

// ValidationError describes an argument outside its accepted range.
type ValidationError struct {
	Field string
	Value any
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	if e.Min == 0 && e.Max == 0 {
		return fmt.Sprintf("invalid %s %v", e.Field, e.Value)
	}

	return fmt.Sprintf("invalid %s %v: must be in [%d,%d]", e.Field, e.Value, e.Min, e.Max)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ParseState accepts on/off in any case with surrounding spaces.
func ParseState(raw string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(raw))) {
	case StateOn:
		return StateOn, nil
	case StateOff:
		return StateOff, nil
	default:
		return "", &ValidationError{Field: "state", Value: raw}
	}
}

// StateFromBool maps true to on.
func StateFromBool(on bool) State {
	if on {
		return StateOn
	}

	return StateOff
}

type lineFormat struct {
	prototype string
	pattern   *regexp.Regexp
}

var formats = map[Kind]lineFormat{
	KindRelay: {
		prototype: "SR %d %s %d",
		pattern:   regexp.MustCompile(`^SR ([1-9]|[12][0-9]|3[0-2]) (on|off) ([0-9]|[1-9][0-9]{1,3}|10000)$`),
	},
	KindOutput: {
		prototype: "SO %d %s",
		pattern:   regexp.MustCompile(`^SO ([1-9]|[12][0-9]|3[0-2]) (on|off)$`),
	},
}

// Command is a validated board instruction. Construct it with NewRelay or NewOutput.
type Command struct {
	kind     Kind
	index    int
	state    State
	periodMs int
}

func NewRelay(index int, state State, periodMs int) (Command, error) {
	if err := validateIndex(index); err != nil {
		return Command{}, err
	}
	if err := validateState(state); err != nil {
		return Command{}, err
	}
	if periodMs < MinPeriodMs || periodMs > MaxPeriodMs {
		return Command{}, &ValidationError{Field: "period", Value: periodMs, Min: MinPeriodMs, Max: MaxPeriodMs}
	}

	return Command{kind: KindRelay, index: index, state: state, periodMs: periodMs}, nil
}

func NewOutput(index int, state State) (Command, error) {
	if err := validateIndex(index); err != nil {
		return Command{}, err
	}
	if err := validateState(state); err != nil {
		return Command{}, err
	}

	return Command{kind: KindOutput, index: index, state: state}, nil
}

func (c Command) Kind() Kind     { return c.kind }
func (c Command) Index() int     { return c.index }
func (c Command) State() State   { return c.state }
func (c Command) PeriodMs() int  { return c.periodMs }
func (c Command) String() string { return c.mustLine() }

// Line renders the command without the trailing newline.
func (c Command) Line() (string, error) {
	format, ok := formats[c.kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q", ErrMalformedLine, c.kind)
	}

	var line string
	switch c.kind {
	case KindRelay:
		line = fmt.Sprintf(format.prototype, c.index, c.state, c.periodMs)
	default:
		line = fmt.Sprintf(format.prototype, c.index, c.state)
	}
	if strings.Contains(line, "%!") || !format.pattern.MatchString(line) {
		return "", fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	return line, nil
}

// Encode returns the newline-terminated ISO-8859-1 wire bytes.
func (c Command) Encode() ([]byte, error) {
	line, err := c.Line()
	if err != nil {
		return nil, err
	}
	payload, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(line + "\n"))
	if err != nil {
		return nil, fmt.Errorf("encode latin-1: %w", err)
	}

	return payload, nil
}

func (c Command) mustLine() string {
	line, err := c.Line()
	if err != nil {
		return fmt.Sprintf("<invalid %s command>", c.kind)
	}

	return line
}

func validateIndex(index int) error {
	if index < MinIndex || index > MaxIndex {
		return &ValidationError{Field: "index", Value: index, Min: MinIndex, Max: MaxIndex}
	}

	return nil
}

func validateState(state State) error {
	if state != StateOn && state != StateOff {
		return &ValidationError{Field: "state", Value: state}
	}

	return nil
}
