package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/actions"
	"github.com/skobkin/dsrelay/internal/app"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the available actions and their options",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printActions(cmd.OutOrStdout(), actions.Definitions())
	},
}

var actionCmd = &cobra.Command{
	Use:     "action <id> [option=value...]",
	Short:   "Run an action by ID",
	Example: "  dsrelay action set_relay_single index=3 state=on period=1500",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := actions.Lookup(args[0]); !ok {
			return fmt.Errorf("%w: %q", actions.ErrUnknownAction, args[0])
		}
		options, err := parseOptionArgs(args[1:])
		if err != nil {
			return err
		}

		return sendOnce(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, rt *app.Runtime) error {
			return rt.Actions.Execute(ctx, args[0], options)
		})
	},
}

func parseOptionArgs(args []string) (map[string]any, error) {
	options := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("option must look like key=value: %q", arg)
		}
		options[key] = strings.TrimSpace(value)
	}

	return options, nil
}

func printActions(out io.Writer, defs []actions.Definition) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, def := range defs {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", def.ID, def.Label)
		for _, opt := range def.Options {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n", opt.ID, opt.Label, describeOption(opt))
		}
	}

	return w.Flush()
}

func describeOption(opt actions.Option) string {
	switch opt.Type {
	case actions.OptionDropdown:
		ids := make([]string, 0, len(opt.Choices))
		for _, c := range opt.Choices {
			ids = append(ids, c.ID)
		}

		return fmt.Sprintf("one of %s, default %v", strings.Join(ids, "|"), opt.Default)
	default:
		return fmt.Sprintf("%d..%d, default %v", opt.Min, opt.Max, opt.Default)
	}
}

func init() {
	rootCmd.AddCommand(actionsCmd, actionCmd)
}
