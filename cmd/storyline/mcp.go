package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/storyline/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp <story>...",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes stories as MCP tools (story_state, advance, select_choice, retreat,
progress_map) so AI agents can play them.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMCP(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "MCP Server execution failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}

func runMCP(cmd *cobra.Command, paths []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	mgr, err := e.newManager(cmd, paths, nil)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(mgr, e.logger)

	switch transport {
	case "stdio":
		// Stdout carries JSON-RPC.
		log.SetOutput(os.Stderr)
		e.logger.Info("Starting Storyline MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e.logger.Info("Starting Storyline MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil {
			return err
		}
		e.logger.Info("MCP Server stopped gracefully")
		return nil
	}
	return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
}
