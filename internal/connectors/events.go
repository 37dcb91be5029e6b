package connectors

import "time"

// CommandEvent is published once per dispatched board command.
type CommandEvent struct {
	Kind      string
	Index     int
	State     string
	PeriodMs  int
	Line      string
	Delivered bool
	Err       string
	At        time.Time
}
