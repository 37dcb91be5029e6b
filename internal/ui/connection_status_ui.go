package ui

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	relayapp "github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
)

type connectionStatusPresenter struct {
	window      fyne.Window
	statusLabel *widget.Label
	statusIcon  *widget.Icon

	mu      sync.RWMutex
	current connectors.ConnectionStatus
}

func newConnectionStatusPresenter(
	window fyne.Window,
	statusLabel *widget.Label,
	initialStatus connectors.ConnectionStatus,
) *connectionStatusPresenter {
	presenter := &connectionStatusPresenter{
		window:      window,
		statusLabel: statusLabel,
		statusIcon:  widget.NewIcon(statusIconResource(initialStatus)),
		current:     initialStatus,
	}
	presenter.applyUI(initialStatus)

	return presenter
}

func (p *connectionStatusPresenter) StatusIcon() *widget.Icon {
	return p.statusIcon
}

func (p *connectionStatusPresenter) Set(status connectors.ConnectionStatus) {
	p.mu.Lock()
	p.current = status
	p.mu.Unlock()
	p.applyUI(status)
}

func (p *connectionStatusPresenter) CurrentStatus() connectors.ConnectionStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.current
}

func (p *connectionStatusPresenter) applyUI(status connectors.ConnectionStatus) {
	applyConnStatusUI(p.window, p.statusLabel, p.statusIcon, status)
}

func formatConnStatus(status connectors.ConnectionStatus) string {
	text := strings.ToLower(relayapp.ConnectionStateLabel(connectors.ConnectionStatus{State: status.State}))
	if transportName := transportDisplayName(status.TransportName); transportName != "" {
		text = transportName + " " + text
	}
	if target := strings.TrimSpace(status.Target); target != "" {
		text += " (" + target + ")"
	}
	if status.Err != "" {
		text += " (" + status.Err + ")"
	}

	return text
}

func transportDisplayName(name string) string {
	normalized := config.ConnectorType(strings.ToLower(strings.TrimSpace(name)))
	switch normalized {
	case config.ConnectorIP, config.ConnectorSerial:
		return connectorOptionFromType(normalized)
	default:
		return strings.TrimSpace(name)
	}
}

func formatWindowTitle(status connectors.ConnectionStatus) string {
	return fmt.Sprintf("DSRelay %s - %s", relayapp.BuildVersion(), formatConnStatus(status))
}

func applyConnStatusUI(window fyne.Window, statusLabel *widget.Label, statusIcon *widget.Icon, status connectors.ConnectionStatus) {
	if window != nil {
		window.SetTitle(formatWindowTitle(status))
	}
	if statusLabel != nil {
		statusLabel.SetText(formatConnStatus(status))
	}
	if statusIcon != nil {
		statusIcon.SetResource(statusIconResource(status))
	}
}

func statusIconResource(status connectors.ConnectionStatus) fyne.Resource {
	switch status.State {
	case connectors.ConnectionStateConnected:
		return theme.ConfirmIcon()
	case connectors.ConnectionStateConnecting:
		return theme.ViewRefreshIcon()
	case connectors.ConnectionStateError, connectors.ConnectionStateBadConfig:
		return theme.ErrorIcon()
	default:
		return theme.CancelIcon()
	}
}

func resolveInitialConnStatus(dep RuntimeDependencies) connectors.ConnectionStatus {
	if dep.Data.CurrentConnStatus != nil {
		if status, known := dep.Data.CurrentConnStatus(); known {
			return status
		}
	}

	return relayapp.ConnectionStatusFromConfig(dep.currentConfig().Connection)
}
