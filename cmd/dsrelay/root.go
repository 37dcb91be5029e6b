package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/notifications"
)

var (
	envFile   string
	configDir string
	overrides connectionOverrides
)

var rootCmd = &cobra.Command{
	Use:           app.Name,
	Short:         "Control DSXXX relay boards over TCP or a serial line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if envFile == "" {
			return
		}
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("load env file", "path", envFile, "error", err)
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with DSRELAY_* variables")
	flags.StringVar(&configDir, "config-dir", "", "directory for config, journal and logs (default: user config dir)")
	flags.StringVar(&overrides.Connector, "connector", "", "connector type: ip or serial")
	flags.StringVar(&overrides.Host, "host", "", "board IP address or hostname")
	flags.IntVar(&overrides.Port, "port", 0, fmt.Sprintf("board TCP port (default %d)", config.DefaultPort))
	flags.StringVar(&overrides.SerialPort, "serial-port", "", "serial device, e.g. /dev/ttyUSB0 or COM3")
	flags.IntVar(&overrides.SerialBaud, "baud", 0, fmt.Sprintf("serial baud rate (default %d)", config.DefaultSerialBaud))
}

// connectionOverrides holds connection flags. Zero values leave the config untouched.
type connectionOverrides struct {
	Connector  string
	Host       string
	Port       int
	SerialPort string
	SerialBaud int
}

func (o connectionOverrides) apply(cfg *config.ConnectionConfig) error {
	if connector := strings.ToLower(strings.TrimSpace(o.Connector)); connector != "" {
		switch config.ConnectorType(connector) {
		case config.ConnectorIP, config.ConnectorSerial:
			cfg.Connector = config.ConnectorType(connector)
		default:
			return fmt.Errorf("unknown connector %q", o.Connector)
		}
	}
	if host := strings.TrimSpace(o.Host); host != "" {
		cfg.Host = host
	}
	if o.Port != 0 {
		if o.Port < 0 || o.Port > 65535 {
			return fmt.Errorf("port out of range: %d", o.Port)
		}
		cfg.Port = o.Port
	}
	if serialPort := strings.TrimSpace(o.SerialPort); serialPort != "" {
		cfg.SerialPort = serialPort
	}
	if o.SerialBaud != 0 {
		if o.SerialBaud < 0 {
			return fmt.Errorf("baud must be positive: %d", o.SerialBaud)
		}
		cfg.SerialBaud = o.SerialBaud
	}

	return nil
}

func resolvePaths() (app.Paths, error) {
	if configDir != "" {
		return app.PathsIn(configDir)
	}

	return app.ResolvePaths()
}

// runtimeOptions layers env variables and then flags over the saved config.
func runtimeOptions(notifier notifications.Sender, extra func(cfg *config.AppConfig) error) (app.Options, error) {
	paths, err := resolvePaths()
	if err != nil {
		return app.Options{}, err
	}

	return app.Options{
		Paths:    &paths,
		Notifier: notifier,
		Override: func(cfg *config.AppConfig) error {
			if err := cfg.ApplyEnv(nil); err != nil {
				return err
			}
			if err := overrides.apply(&cfg.Connection); err != nil {
				return err
			}
			if extra != nil {
				return extra(cfg)
			}

			return nil
		},
	}, nil
}
