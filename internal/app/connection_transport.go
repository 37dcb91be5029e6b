package app

import (
	"fmt"

	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/transport"
)

// NewTransportForConnection builds the transport selected by cfg.Connector.
func NewTransportForConnection(cfg config.ConnectionConfig) (transport.Transport, error) {
	switch cfg.EffectiveConnector() {
	case config.ConnectorIP:
		port := cfg.Port
		if port <= 0 {
			port = DefaultIPPort
		}

		return transport.NewIPTransport(cfg.Host, port), nil
	case config.ConnectorSerial:
		baud := cfg.SerialBaud
		if baud <= 0 {
			baud = config.DefaultSerialBaud
		}

		return transport.NewSerialTransport(cfg.SerialPort, baud), nil
	default:
		return nil, fmt.Errorf("unsupported connector: %q", cfg.Connector)
	}
}
