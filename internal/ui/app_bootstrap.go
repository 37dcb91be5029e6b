package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	relayapp "github.com/skobkin/dsrelay/internal/app"
)

var appLogger = slog.With("component", "ui")

var (
	newFyneApp = func() fyne.App {
		return fyneapp.NewWithID(relayapp.Name)
	}
	fyneDo = fyne.Do
)

func Run(dep RuntimeDependencies) error {
	return runWithApp(dep, newFyneApp())
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	fyApp.SetIcon(theme.ComputerIcon())
	appLogger.Info("starting UI runtime", "start_hidden", dep.Launch.StartHidden)

	window := fyApp.NewWindow("")
	window.Resize(fyne.NewSize(520, 640))

	statusLabel := widget.NewLabel("")
	presenter := newConnectionStatusPresenter(window, statusLabel, resolveInitialConnStatus(dep))
	statusRow := container.NewBorder(nil, nil, presenter.StatusIcon(), nil, statusLabel)

	connection := newConnectionPanel(dep, statusRow)
	controls := newControlPanel(dep)
	window.SetContent(container.NewVScroll(container.NewVBox(
		connection.Content(),
		controls.Content(),
		widget.NewLabel("Version: "+relayapp.BuildVersionWithDate()),
	)))

	stopNotifications := startNotificationService(dep, fyApp)
	stopUIListeners := bindPresentationListeners(dep, presenter)

	uiRuntime := newUIRuntime(fyApp, window, stopNotifications, stopUIListeners, dep.Actions.OnQuit)
	uiRuntime.BindCloseIntercept()
	configureSystemTray(fyApp, window, dep.Actions.OnDisconnect, uiRuntime.Quit)

	if dep.Actions.OnConnect != nil {
		dep.Actions.OnConnect()
	}
	uiRuntime.Run(dep.Launch.StartHidden)

	return nil
}
