package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skobkin/dsrelay/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dsrelay",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", app.Name, app.BuildVersionWithDate())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
