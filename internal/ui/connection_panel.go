package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"go.bug.st/serial"

	"github.com/skobkin/dsrelay/internal/config"
)

const (
	connectorOptionIP     = "IP"
	connectorOptionSerial = "Serial"
)

var defaultSerialBaudOptions = []string{"9600", "19200", "38400", "57600", "115200"}

// listSerialPorts is swapped in tests.
var listSerialPorts = serial.GetPortsList

type connectionPanel struct {
	dep     RuntimeDependencies
	current config.AppConfig

	connectorSelect  *widget.Select
	hostEntry        *widget.Entry
	portEntry        *widget.Entry
	serialPortSelect *widget.Select
	serialBaudSelect *widget.Select
	notifyCheck      *widget.Check
	connectButton    *widget.Button
	disconnectButton *widget.Button
	clearButton      *widget.Button
	status           *widget.Label

	content fyne.CanvasObject
}

func newConnectionPanel(dep RuntimeDependencies, connStatusRow fyne.CanvasObject) *connectionPanel {
	p := &connectionPanel{
		dep:     dep,
		current: dep.currentConfig(),
		status:  widget.NewLabel(""),
	}
	p.current.FillMissingDefaults()
	conn := p.current.Connection

	p.connectorSelect = widget.NewSelect([]string{connectorOptionIP, connectorOptionSerial}, nil)
	p.connectorSelect.SetSelected(connectorOptionFromType(conn.Connector))

	p.hostEntry = widget.NewEntry()
	p.hostEntry.SetText(conn.Host)
	p.hostEntry.SetPlaceHolder("IP address or hostname")

	p.portEntry = widget.NewEntry()
	p.portEntry.SetText(strconv.Itoa(conn.Port))

	p.serialPortSelect = widget.NewSelect(nil, nil)
	p.serialPortSelect.PlaceHolder = "Select serial port"
	p.serialPortSelect.SetSelected(conn.SerialPort)

	p.serialBaudSelect = widget.NewSelect(uniqueValues(append(defaultSerialBaudOptions, strconv.Itoa(conn.SerialBaud))), nil)
	p.serialBaudSelect.SetSelected(strconv.Itoa(conn.SerialBaud))

	p.notifyCheck = widget.NewCheck("Notify on connection changes", nil)
	p.notifyCheck.SetChecked(p.current.Notifications.ConnectionStatus)

	refreshPortsButton := widget.NewButton("Refresh", p.refreshPorts)
	serialPortRow := container.NewBorder(nil, nil, nil, refreshPortsButton, p.serialPortSelect)

	hostLabel := widget.NewLabel("IP Host")
	portLabel := widget.NewLabel("TCP Port")
	serialPortLabel := widget.NewLabel("Serial Port")
	serialBaudLabel := widget.NewLabel("Serial Baud")
	fields := container.New(layout.NewFormLayout(),
		widget.NewLabel("Connector"), p.connectorSelect,
		hostLabel, p.hostEntry,
		portLabel, p.portEntry,
		serialPortLabel, serialPortRow,
		serialBaudLabel, p.serialBaudSelect,
	)

	setConnectorFields := func(connector config.ConnectorType) {
		setVisible(connector == config.ConnectorIP, hostLabel, p.hostEntry, portLabel, p.portEntry)
		setVisible(connector == config.ConnectorSerial, serialPortLabel, serialPortRow, serialBaudLabel, p.serialBaudSelect)
	}
	p.connectorSelect.OnChanged = func(value string) {
		next := connectorTypeFromOption(value)
		setConnectorFields(next)
		if next == config.ConnectorSerial {
			p.refreshPorts()
		}
	}
	setConnectorFields(conn.Connector)

	p.connectButton = widget.NewButton("Connect", p.connect)
	p.connectButton.Importance = widget.HighImportance
	p.disconnectButton = widget.NewButton("Disconnect", p.disconnect)
	p.clearButton = widget.NewButton("Clear journal", p.clearJournal)
	if dep.Actions.OnClearJournal == nil {
		p.clearButton.Disable()
	}

	p.content = widget.NewCard("Connection", "", container.NewVBox(
		connStatusRow,
		fields,
		p.notifyCheck,
		container.NewHBox(p.connectButton, p.disconnectButton, layout.NewSpacer(), p.clearButton),
		p.status,
	))

	return p
}

func (p *connectionPanel) Content() fyne.CanvasObject {
	return p.content
}

// readConfig builds the config from the form on top of the last saved one.
func (p *connectionPanel) readConfig() (config.AppConfig, error) {
	cfg := p.current
	cfg.Connection.Connector = connectorTypeFromOption(p.connectorSelect.Selected)
	cfg.Connection.Host = strings.TrimSpace(p.hostEntry.Text)
	cfg.Connection.SerialPort = strings.TrimSpace(p.serialPortSelect.Selected)
	cfg.Notifications.ConnectionStatus = p.notifyCheck.Checked

	switch cfg.Connection.Connector {
	case config.ConnectorIP:
		port, err := parsePort(p.portEntry.Text)
		if err != nil {
			return config.AppConfig{}, err
		}
		cfg.Connection.Port = port
	case config.ConnectorSerial:
		baud, err := parseSerialBaud(p.serialBaudSelect.Selected)
		if err != nil {
			return config.AppConfig{}, err
		}
		cfg.Connection.SerialBaud = baud
	}

	return cfg, nil
}

func (p *connectionPanel) connect() {
	cfg, err := p.readConfig()
	if err != nil {
		p.status.SetText("Connect failed: " + err.Error())

		return
	}
	previous := p.current.Connection
	if p.dep.Actions.OnSave != nil {
		if err := p.dep.Actions.OnSave(cfg); err != nil {
			p.status.SetText("Save failed: " + err.Error())

			return
		}
	}
	p.current = cfg
	p.status.SetText("")

	// A changed connection is already applied by the save.
	if cfg.Connection == previous && p.dep.Actions.OnConnect != nil {
		p.dep.Actions.OnConnect()
	}
}

func (p *connectionPanel) disconnect() {
	if p.dep.Actions.OnDisconnect != nil {
		p.dep.Actions.OnDisconnect()
	}
}

func (p *connectionPanel) clearJournal() {
	if p.dep.Actions.OnClearJournal == nil {
		p.status.SetText("Journal is disabled")

		return
	}
	if err := p.dep.Actions.OnClearJournal(); err != nil {
		p.status.SetText("Journal clear failed: " + err.Error())

		return
	}
	p.status.SetText("Journal cleared")
}

func (p *connectionPanel) refreshPorts() {
	selectedPort := strings.TrimSpace(p.serialPortSelect.Selected)
	ports, err := listSerialPorts()
	if err != nil {
		p.status.SetText("Failed to list serial ports: " + err.Error())

		return
	}
	sort.Strings(ports)

	if currentPort := strings.TrimSpace(p.current.Connection.SerialPort); currentPort != "" {
		ports = append(ports, currentPort)
	}
	if selectedPort != "" {
		ports = append(ports, selectedPort)
	}
	ports = uniqueValues(ports)
	p.serialPortSelect.SetOptions(ports)
	if selectedPort != "" {
		p.serialPortSelect.SetSelected(selectedPort)
	}

	if len(ports) == 0 {
		p.status.SetText("No serial ports detected")

		return
	}
	p.status.SetText("")
}

func setVisible(visible bool, objects ...fyne.CanvasObject) {
	for _, object := range objects {
		if visible {
			object.Show()

			continue
		}
		object.Hide()
	}
}

func uniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		unique = append(unique, trimmed)
	}

	return unique
}

func connectorOptionFromType(connector config.ConnectorType) string {
	if connector == config.ConnectorSerial {
		return connectorOptionSerial
	}

	return connectorOptionIP
}

func connectorTypeFromOption(value string) config.ConnectorType {
	if strings.TrimSpace(value) == connectorOptionSerial {
		return config.ConnectorSerial
	}

	return config.ConnectorIP
}

func parsePort(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return config.DefaultPort, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid TCP port %q", value)
	}

	return port, nil
}

func parseSerialBaud(value string) (int, error) {
	baud, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid serial baud %q", value)
	}
	if baud <= 0 {
		return 0, fmt.Errorf("serial baud must be positive")
	}

	return baud, nil
}
