package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/beatpilot/pkg/adapters/http"
	"github.com/aretw0/beatpilot/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes BeatPilot sessions as MCP tools over Standard Input/Output:
analyze_vibe, accept_suggestion and get_summary. Each tool takes a session_id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)

		srv := mcp.NewServer(st.Sessions, httpAdapter.UUIDAllocator{},
			mcp.WithLogger(st.Logger),
			mcp.WithProtocolOptions(st.ProtocolOptions()...),
		)
		st.Logger.Info("Starting BeatPilot MCP Server (Stdio)...")
		return srv.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
