package app

import (
	"strings"

	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
)

func TransportNameFromConnector(connector config.ConnectorType) string {
	switch connector {
	case config.ConnectorIP:
		return "ip"
	case config.ConnectorSerial:
		return "serial"
	default:
		if value := strings.TrimSpace(string(connector)); value != "" {
			return value
		}

		return "unknown"
	}
}

// ConnectionStatusFromConfig is the status shown before the manager reports anything.
func ConnectionStatusFromConfig(cfg config.ConnectionConfig) connectors.ConnectionStatus {
	status := connectors.ConnectionStatus{
		State:         connectors.ConnectionStateDisconnected,
		TransportName: TransportNameFromConnector(cfg.Connector),
		Target:        cfg.Target(),
	}
	if status.Target == "" {
		status.State = connectors.ConnectionStateBadConfig
	}

	return status
}

// ConnectionStateLabel is a short human-readable state name.
func ConnectionStateLabel(status connectors.ConnectionStatus) string {
	switch status.State {
	case connectors.ConnectionStateConnected:
		return "Connected"
	case connectors.ConnectionStateConnecting:
		return "Connecting"
	case connectors.ConnectionStateError:
		if status.Err != "" {
			return "Error: " + status.Err
		}

		return "Error"
	case connectors.ConnectionStateBadConfig:
		return "Not configured"
	default:
		return "Disconnected"
	}
}
