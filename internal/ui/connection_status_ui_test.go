package ui

import (
	"strings"
	"testing"

	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	relayapp "github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
)

func TestFormatWindowTitle(t *testing.T) {
	got := formatWindowTitle(connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnected,
		TransportName: "ip",
	})
	want := "DSRelay " + relayapp.BuildVersion() + " - IP connected"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatConnStatus(t *testing.T) {
	tests := []struct {
		name   string
		status connectors.ConnectionStatus
		want   string
	}{
		{
			name:   "serial connected",
			status: connectors.ConnectionStatus{State: connectors.ConnectionStateConnected, TransportName: "serial", Target: "/dev/ttyUSB0@9600"},
			want:   "Serial connected (/dev/ttyUSB0@9600)",
		},
		{
			name:   "ip error",
			status: connectors.ConnectionStatus{State: connectors.ConnectionStateError, TransportName: "ip", Target: "10.0.0.5:17123", Err: "connection refused"},
			want:   "IP error (10.0.0.5:17123) (connection refused)",
		},
		{
			name:   "not configured",
			status: connectors.ConnectionStatus{State: connectors.ConnectionStateBadConfig, TransportName: "ip"},
			want:   "IP not configured",
		},
	}

	for _, tc := range tests {
		if got := formatConnStatus(tc.status); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestTransportDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ip", want: "IP"},
		{in: "SERIAL", want: "Serial"},
		{in: "custom", want: "custom"},
		{in: " ", want: ""},
	}

	for _, tc := range tests {
		if got := transportDisplayName(tc.in); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestStatusIconResource(t *testing.T) {
	if got := statusIconResource(connectors.ConnectionStatus{State: connectors.ConnectionStateConnected}); got.Name() != theme.ConfirmIcon().Name() {
		t.Fatalf("expected confirm icon for connected, got %q", got.Name())
	}
	if got := statusIconResource(connectors.ConnectionStatus{State: connectors.ConnectionStateBadConfig}); got.Name() != theme.ErrorIcon().Name() {
		t.Fatalf("expected error icon for bad config, got %q", got.Name())
	}
	if got := statusIconResource(connectors.ConnectionStatus{State: connectors.ConnectionStateDisconnected}); got.Name() != theme.CancelIcon().Name() {
		t.Fatalf("expected cancel icon for disconnected, got %q", got.Name())
	}
}

func TestConnectionStatusPresenterSet(t *testing.T) {
	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	window := app.NewWindow("status")
	label := widget.NewLabel("")
	presenter := newConnectionStatusPresenter(window, label, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnecting,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
	})

	if presenter.StatusIcon() == nil {
		t.Fatalf("expected status icon")
	}
	if !strings.Contains(label.Text, "connecting") || !strings.Contains(window.Title(), "10.0.0.5:17123") {
		t.Fatalf("unexpected initial label %q title %q", label.Text, window.Title())
	}

	presenter.Set(connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnected,
		TransportName: "serial",
		Target:        "/dev/ttyUSB0@9600",
	})
	if !strings.Contains(label.Text, "connected") || !strings.Contains(label.Text, "/dev/ttyUSB0@9600") {
		t.Fatalf("expected connected status in label, got %q", label.Text)
	}
	if presenter.CurrentStatus().State != connectors.ConnectionStateConnected {
		t.Fatalf("expected current state to be connected, got %q", presenter.CurrentStatus().State)
	}
}

func TestApplyConnStatusUIHandlesNilTargets(t *testing.T) {
	applyConnStatusUI(nil, nil, nil, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateDisconnected,
		TransportName: "serial",
	})
}

func TestResolveInitialConnStatus(t *testing.T) {
	dep := RuntimeDependencies{}
	if got := resolveInitialConnStatus(dep); got.State != connectors.ConnectionStateBadConfig {
		t.Fatalf("expected bad config without host, got %q", got.State)
	}

	dep.Data.CurrentConfig = func() config.AppConfig {
		cfg := config.Default()
		cfg.Connection.Host = "10.0.0.5"

		return cfg
	}
	if got := resolveInitialConnStatus(dep); got.State != connectors.ConnectionStateDisconnected || got.Target != "10.0.0.5:17123" {
		t.Fatalf("unexpected status from config %+v", got)
	}

	dep.Data.CurrentConnStatus = func() (connectors.ConnectionStatus, bool) {
		return connectors.ConnectionStatus{State: connectors.ConnectionStateConnected}, true
	}
	if got := resolveInitialConnStatus(dep); got.State != connectors.ConnectionStateConnected {
		t.Fatalf("expected known runtime status, got %q", got.State)
	}
}
