package ui

import (
	"context"

	"fyne.io/fyne/v2"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/command"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
)

type Dispatcher interface {
	SetRelay(ctx context.Context, index int, state command.State, periodMs int) error
	SetOutput(ctx context.Context, index int, state command.State) error
}

type DataDependencies struct {
	Bus               bus.MessageBus
	CurrentConfig     func() config.AppConfig
	CurrentConnStatus func() (connectors.ConnectionStatus, bool)
}

type ActionDependencies struct {
	Dispatcher     Dispatcher
	OnSave         func(cfg config.AppConfig) error
	OnConnect      func()
	OnDisconnect   func()
	OnClearJournal func() error
	OnQuit         func()
}

type UIHooks struct {
	RunOnUI         func(func())
	RunAsync        func(func())
	ShowErrorDialog func(err error, window fyne.Window)
}

type LaunchOptions struct {
	StartHidden bool
}

type RuntimeDependencies struct {
	Data    DataDependencies
	Actions ActionDependencies
	UIHooks UIHooks
	Launch  LaunchOptions
}
