package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/beatpilot"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of beatpilot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "beatpilot version %s\n", strings.TrimSpace(beatpilot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
