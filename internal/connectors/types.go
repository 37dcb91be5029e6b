package connectors

import "time"

// ConnectionState describes the connection lifecycle state reported to subscribers.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateError        ConnectionState = "error"
	ConnectionStateBadConfig    ConnectionState = "bad_config"
)

// ConnectionStatus is a bus event snapshot of current connection status.
type ConnectionStatus struct {
	State         ConnectionState `json:"state"`
	Err           string          `json:"error,omitempty"`
	TransportName string          `json:"transport"`
	Target        string          `json:"target"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Same reports whether two statuses describe the same observable condition.
func (s ConnectionStatus) Same(other ConnectionStatus) bool {
	return s.State == other.State &&
		s.Err == other.Err &&
		s.TransportName == other.TransportName &&
		s.Target == other.Target
}

// RawFrame carries raw bytes diagnostics for debug/log views.
type RawFrame struct {
	Hex string
	Len int
}
