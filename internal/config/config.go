package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ConnectorType identifies which transport backend should be used.
type ConnectorType string

const (
	ConnectorIP     ConnectorType = "ip"
	ConnectorSerial ConnectorType = "serial"

	DefaultPort          = 17123
	DefaultSerialBaud    = 9600
	DefaultMQTTBroker    = "tcp://127.0.0.1:1883"
	DefaultMQTTRootTopic = "dsrelay"
	DefaultHTTPListen    = "127.0.0.1:8917"
	DefaultRetentionDays = 30
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// ConnectionConfig contains connector-specific connection parameters.
type ConnectionConfig struct {
	Connector  ConnectorType `json:"connector"`
	Host       string        `json:"host"`
	Port       int           `json:"port"`
	SerialPort string        `json:"serial_port"`
	SerialBaud int           `json:"serial_baud"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	ConnectionStatus bool `json:"connection_status"`
}

// MQTTConfig configures the optional MQTT command bridge.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	Broker    string `json:"broker"`
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	RootTopic string `json:"root_topic"`
}

// HTTPConfig configures the optional HTTP control API.
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"`
}

// JournalConfig controls the local command journal.
type JournalConfig struct {
	Enabled       bool `json:"enabled"`
	RetentionDays int  `json:"retention_days"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection    ConnectionConfig   `json:"connection"`
	Logging       LoggingConfig      `json:"logging"`
	Notifications NotificationConfig `json:"notifications"`
	MQTT          MQTTConfig         `json:"mqtt"`
	HTTP          HTTPConfig         `json:"http"`
	Journal       JournalConfig      `json:"journal"`
}

func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Connector:  ConnectorIP,
			Host:       "",
			Port:       DefaultPort,
			SerialPort: "",
			SerialBaud: DefaultSerialBaud,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Notifications: NotificationConfig{
			ConnectionStatus: true,
		},
		MQTT: MQTTConfig{
			Enabled:   false,
			Broker:    DefaultMQTTBroker,
			ClientID:  "dsrelay",
			RootTopic: DefaultMQTTRootTopic,
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Listen:  DefaultHTTPListen,
		},
		Journal: JournalConfig{
			Enabled:       true,
			RetentionDays: DefaultRetentionDays,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.Connector == "" {
		c.Connection.Connector = ConnectorIP
	}
	c.Connection.Host = strings.TrimSpace(c.Connection.Host)
	if c.Connection.Port <= 0 {
		c.Connection.Port = DefaultPort
	}
	if c.Connection.SerialBaud <= 0 {
		c.Connection.SerialBaud = DefaultSerialBaud
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.MQTT.Broker) == "" {
		c.MQTT.Broker = DefaultMQTTBroker
	}
	if strings.TrimSpace(c.MQTT.RootTopic) == "" {
		c.MQTT.RootTopic = DefaultMQTTRootTopic
	}
	c.MQTT.RootTopic = strings.Trim(strings.TrimSpace(c.MQTT.RootTopic), "/")
	if strings.TrimSpace(c.HTTP.Listen) == "" {
		c.HTTP.Listen = DefaultHTTPListen
	}
	if c.Journal.RetentionDays < 0 {
		c.Journal.RetentionDays = 0
	}
}

func (c AppConfig) Validate() error {
	switch c.Connection.Connector {
	case ConnectorIP:
		if strings.TrimSpace(c.Connection.Host) == "" {
			return errors.New("ip host is required")
		}
		if c.Connection.Port <= 0 || c.Connection.Port > 65535 {
			return fmt.Errorf("ip port out of range: %d", c.Connection.Port)
		}
	case ConnectorSerial:
		if strings.TrimSpace(c.Connection.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	default:
		return fmt.Errorf("unknown connector: %s", c.Connection.Connector)
	}

	if c.MQTT.Enabled {
		if strings.TrimSpace(c.MQTT.Broker) == "" {
			return errors.New("mqtt broker is required")
		}
		if strings.TrimSpace(c.MQTT.RootTopic) == "" {
			return errors.New("mqtt root topic is required")
		}
	}
	if c.HTTP.Enabled && strings.TrimSpace(c.HTTP.Listen) == "" {
		return errors.New("http listen address is required")
	}

	return nil
}

// ApplyEnv overrides config values from DSRELAY_* environment variables.
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup("DSRELAY_CONNECTOR"); ok && strings.TrimSpace(v) != "" {
		c.Connection.Connector = ConnectorType(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup("DSRELAY_HOST"); ok {
		c.Connection.Host = strings.TrimSpace(v)
	}
	if v, ok := lookup("DSRELAY_PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse DSRELAY_PORT: %w", err)
		}
		c.Connection.Port = port
	}
	if v, ok := lookup("DSRELAY_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = strings.TrimSpace(v)
	}
	if v, ok := lookup("DSRELAY_MQTT_BROKER"); ok && strings.TrimSpace(v) != "" {
		c.MQTT.Broker = strings.TrimSpace(v)
		c.MQTT.Enabled = true
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}

// EffectiveConnector resolves an unset connector to ip.
func (c ConnectionConfig) EffectiveConnector() ConnectorType {
	if strings.TrimSpace(string(c.Connector)) == "" {
		return ConnectorIP
	}

	return c.Connector
}

// Target is a human-readable address of the configured board, empty when unset.
func (c ConnectionConfig) Target() string {
	switch c.EffectiveConnector() {
	case ConnectorIP:
		host := strings.TrimSpace(c.Host)
		if host == "" {
			return ""
		}
		port := c.Port
		if port <= 0 {
			port = DefaultPort
		}

		return net.JoinHostPort(host, strconv.Itoa(port))
	case ConnectorSerial:
		portName := strings.TrimSpace(c.SerialPort)
		if portName == "" {
			return ""
		}

		baud := c.SerialBaud
		if baud <= 0 {
			baud = DefaultSerialBaud
		}

		return fmt.Sprintf("%s@%d", portName, baud)
	default:
		return ""
	}
}
