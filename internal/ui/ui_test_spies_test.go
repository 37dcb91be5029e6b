package ui

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/skobkin/dsrelay/internal/command"
)

type basicAppWrapper struct {
	fyne.App
}

type appRunQuitSpy struct {
	fyne.App
	runCalls  int
	quitCalls int
}

func (a *appRunQuitSpy) Run() {
	a.runCalls++
}

func (a *appRunQuitSpy) Quit() {
	a.quitCalls++
}

type trayAppSpy struct {
	fyne.App
	trayMenu *fyne.Menu
	trayIcon fyne.Resource
}

func (a *trayAppSpy) SetSystemTrayMenu(menu *fyne.Menu) {
	a.trayMenu = menu
}

func (a *trayAppSpy) SetSystemTrayIcon(icon fyne.Resource) {
	a.trayIcon = icon
}

func (a *trayAppSpy) SetSystemTrayWindow(fyne.Window) {}

type windowSpy struct {
	fyne.Window
	showCalls      int
	hideCalls      int
	focusCalls     int
	closeIntercept func()
}

func (w *windowSpy) Show() {
	w.showCalls++
	if w.Window != nil {
		w.Window.Show()
	}
}

func (w *windowSpy) Hide() {
	w.hideCalls++
	if w.Window != nil {
		w.Window.Hide()
	}
}

func (w *windowSpy) RequestFocus() {
	w.focusCalls++
	if w.Window != nil {
		w.Window.RequestFocus()
	}
}

func (w *windowSpy) SetCloseIntercept(fn func()) {
	w.closeIntercept = fn
	if w.Window != nil {
		w.Window.SetCloseIntercept(fn)
	}
}

type dispatchCall struct {
	kind   string
	index  int
	state  command.State
	period int
}

type dispatcherSpy struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (d *dispatcherSpy) SetRelay(_ context.Context, index int, state command.State, periodMs int) error {
	if _, err := command.NewRelay(index, state, periodMs); err != nil {
		return err
	}
	d.mu.Lock()
	d.calls = append(d.calls, dispatchCall{kind: "relay", index: index, state: state, period: periodMs})
	d.mu.Unlock()

	return nil
}

func (d *dispatcherSpy) SetOutput(_ context.Context, index int, state command.State) error {
	if _, err := command.NewOutput(index, state); err != nil {
		return err
	}
	d.mu.Lock()
	d.calls = append(d.calls, dispatchCall{kind: "output", index: index, state: state})
	d.mu.Unlock()

	return nil
}

func (d *dispatcherSpy) snapshot() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]dispatchCall(nil), d.calls...)
}

func syncHooks() UIHooks {
	return UIHooks{
		RunOnUI:  func(fn func()) { fn() },
		RunAsync: func(fn func()) { fn() },
	}
}
