package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/config"
)

const maskedSecret = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the saved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved configuration as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		paths, err := resolvePaths()
		if err != nil {
			return err
		}
		cfg, err := config.Load(paths.ConfigFile)
		if err != nil {
			return err
		}
		if cfg.MQTT.Password != "" {
			cfg.MQTT.Password = maskedSecret
		}
		raw, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(raw))

		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		paths, err := resolvePaths()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), paths.ConfigFile)

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:     "set <section.field> <value>",
	Short:   "Change one configuration value",
	Example: "  dsrelay config set connection.host 192.168.1.50\n  dsrelay config set mqtt.enabled true",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := resolvePaths()
		if err != nil {
			return err
		}
		cfg, err := config.Load(paths.ConfigFile)
		if err != nil {
			return err
		}
		if err := setConfigValue(&cfg, args[0], args[1]); err != nil {
			return err
		}
		cfg.FillMissingDefaults()

		return config.Save(paths.ConfigFile, cfg)
	},
}

// setConfigValue decodes value into the field addressed by its JSON name.
func setConfigValue(cfg *config.AppConfig, key, value string) error {
	section, field, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || section == "" || field == "" {
		return fmt.Errorf("config key must look like section.field: %q", key)
	}

	sections := map[string]any{
		"connection":    &cfg.Connection,
		"logging":       &cfg.Logging,
		"notifications": &cfg.Notifications,
		"mqtt":          &cfg.MQTT,
		"http":          &cfg.HTTP,
		"journal":       &cfg.Journal,
	}
	target, ok := sections[section]
	if !ok {
		return fmt.Errorf("unknown config section %q", section)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any{field: value}); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
