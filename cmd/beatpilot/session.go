package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/beatpilot/internal/presentation/tui"
	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/aretw0/beatpilot/pkg/summary"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, summarize and remove sessions in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored state of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := st.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return loadError(args[0], err)
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionSummaryCmd = &cobra.Command{
	Use:   "summary <session-id>",
	Short: "Summarize the accepted tracks of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := st.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return loadError(args[0], err)
		}
		sum := summary.Summarize(state)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON || !tui.IsTerminal(os.Stdout) {
			data, err := json.MarshalIndent(sum, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		md := tui.SessionMarkdown(args[0], state, sum)
		rendered, err := tui.NewRenderer()(md)
		if err != nil {
			rendered = md
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		var errs []error
		for _, sessionID := range args {
			if err := st.Sessions.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func loadError(id string, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("session '%s' not found", id)
	}
	return fmt.Errorf("error loading session '%s': %w", id, err)
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionSummaryCmd, sessionRmCmd)
	sessionSummaryCmd.Flags().Bool("json", false, "Print the summary as JSON")
}
