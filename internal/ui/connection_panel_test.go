package ui

import (
	"errors"
	"strings"
	"testing"

	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/dsrelay/internal/config"
)

func newTestConnectionPanel(t *testing.T, dep RuntimeDependencies) *connectionPanel {
	t.Helper()

	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	return newConnectionPanel(dep, widget.NewLabel("status"))
}

func TestConnectionPanelConnectSavesChangedConnection(t *testing.T) {
	var saved []config.AppConfig
	var connectCalls int
	dep := RuntimeDependencies{
		Actions: ActionDependencies{
			OnSave: func(cfg config.AppConfig) error {
				saved = append(saved, cfg)

				return nil
			},
			OnConnect: func() { connectCalls++ },
		},
	}
	p := newTestConnectionPanel(t, dep)

	p.hostEntry.SetText(" 10.0.0.5 ")
	p.portEntry.SetText("17200")
	p.connect()

	if len(saved) != 1 {
		t.Fatalf("expected one save, got %d", len(saved))
	}
	if saved[0].Connection.Host != "10.0.0.5" || saved[0].Connection.Port != 17200 {
		t.Fatalf("unexpected saved connection %+v", saved[0].Connection)
	}
	if connectCalls != 0 {
		t.Fatalf("expected changed connection to be applied by save, got %d connect calls", connectCalls)
	}

	p.connect()
	if connectCalls != 1 {
		t.Fatalf("expected explicit connect for unchanged connection, got %d", connectCalls)
	}
}

func TestConnectionPanelRejectsBadPort(t *testing.T) {
	var saveCalls int
	dep := RuntimeDependencies{
		Actions: ActionDependencies{
			OnSave: func(config.AppConfig) error {
				saveCalls++

				return nil
			},
		},
	}
	p := newTestConnectionPanel(t, dep)

	p.hostEntry.SetText("10.0.0.5")
	p.portEntry.SetText("70000")
	p.connect()

	if saveCalls != 0 {
		t.Fatalf("expected no save for invalid port, got %d", saveCalls)
	}
	if !strings.Contains(p.status.Text, "invalid TCP port") {
		t.Fatalf("unexpected status %q", p.status.Text)
	}
}

func TestConnectionPanelShowsSaveError(t *testing.T) {
	dep := RuntimeDependencies{
		Actions: ActionDependencies{
			OnSave: func(config.AppConfig) error { return errors.New("ip host is required") },
			OnConnect: func() {
				t.Fatalf("connect must not run after a failed save")
			},
		},
	}
	p := newTestConnectionPanel(t, dep)
	p.connect()

	if p.status.Text != "Save failed: ip host is required" {
		t.Fatalf("unexpected status %q", p.status.Text)
	}
}

func TestConnectionPanelSerialFields(t *testing.T) {
	origList := listSerialPorts
	listSerialPorts = func() ([]string, error) { return []string{"/dev/ttyUSB1", "/dev/ttyUSB0"}, nil }
	t.Cleanup(func() { listSerialPorts = origList })

	var saved config.AppConfig
	dep := RuntimeDependencies{
		Actions: ActionDependencies{
			OnSave: func(cfg config.AppConfig) error {
				saved = cfg

				return nil
			},
		},
	}
	p := newTestConnectionPanel(t, dep)

	p.connectorSelect.SetSelected(connectorOptionSerial)
	if p.hostEntry.Visible() || !p.serialBaudSelect.Visible() {
		t.Fatalf("expected serial fields to replace ip fields")
	}
	if got := p.serialPortSelect.Options; len(got) != 2 || got[0] != "/dev/ttyUSB0" {
		t.Fatalf("unexpected serial port options %v", got)
	}

	p.serialPortSelect.SetSelected("/dev/ttyUSB1")
	p.serialBaudSelect.SetSelected("115200")
	p.notifyCheck.SetChecked(false)
	p.connect()

	if saved.Connection.Connector != config.ConnectorSerial || saved.Connection.SerialPort != "/dev/ttyUSB1" || saved.Connection.SerialBaud != 115200 {
		t.Fatalf("unexpected saved connection %+v", saved.Connection)
	}
	if saved.Notifications.ConnectionStatus {
		t.Fatalf("expected notifications to be disabled")
	}
}

func TestConnectionPanelClearJournal(t *testing.T) {
	p := newTestConnectionPanel(t, RuntimeDependencies{})
	if !p.clearButton.Disabled() {
		t.Fatalf("expected clear button to be disabled without a journal")
	}

	var clearCalls int
	p = newTestConnectionPanel(t, RuntimeDependencies{
		Actions: ActionDependencies{OnClearJournal: func() error {
			clearCalls++

			return nil
		}},
	})
	p.clearJournal()
	if clearCalls != 1 || p.status.Text != "Journal cleared" {
		t.Fatalf("unexpected clear result calls=%d status=%q", clearCalls, p.status.Text)
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "", want: config.DefaultPort},
		{in: " 17123 ", want: 17123},
		{in: "0", wantErr: true},
		{in: "65536", wantErr: true},
		{in: "port", wantErr: true},
	}

	for _, tc := range tests {
		got, err := parsePort(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got nil", tc.in)
			}

			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %d, got %d (%v)", tc.in, tc.want, got, err)
		}
	}
}
