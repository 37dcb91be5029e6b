package ui

import (
	"context"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"

	relayapp "github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/notifications"
)

func startNotificationService(dep RuntimeDependencies, fyApp fyne.App) func() {
	notificationsCtx, stopNotifications := context.WithCancel(context.Background())
	notificationService := relayapp.NewNotificationService(
		dep.Data.Bus,
		dep.currentConfig,
		NewFyneNotificationSender(fyApp),
		slog.With("component", "ui.notifications"),
	)
	notificationService.Start(notificationsCtx)

	return stopNotifications
}

// FyneNotificationSender shows notifications through the Fyne app.
type FyneNotificationSender struct {
	app fyne.App
}

func NewFyneNotificationSender(app fyne.App) *FyneNotificationSender {
	return &FyneNotificationSender{app: app}
}

func (s *FyneNotificationSender) Send(notification notifications.Payload) {
	if s == nil || s.app == nil {
		return
	}

	title := strings.TrimSpace(notification.Title)
	content := strings.TrimSpace(notification.Content)
	if title == "" && content == "" {
		return
	}

	fyneDo(func() {
		s.app.SendNotification(fyne.NewNotification(title, content))
	})
}
