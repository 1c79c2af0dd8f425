package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/beatpilot/internal/presentation/tui"
	"github.com/aretw0/beatpilot/pkg/repair"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair raw model output read from stdin",
	Long: `Runs the repair pipeline on text read from stdin and prints the resulting
suggestion set as JSON, with the stage that produced it on stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}

		result, stage := repair.RepairWithStage(string(raw))

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		fmt.Fprintf(cmd.ErrOrStderr(), "stage: %s\n", tui.StageLabel(cmd.ErrOrStderr(), stage))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
