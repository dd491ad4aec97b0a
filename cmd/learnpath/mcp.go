package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pseng/MyH5P-pages/internal/cli"
	"github.com/pseng/MyH5P-pages/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts learnpath as an MCP Server.
This allows AI agents to inspect, validate and draw learning paths as tools.
Record-store credentials are masked in everything the server returns.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		baseURL, _ := cmd.Flags().GetString("base-url")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		srv := mcp.NewServer(rt.Service, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting learnpath MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			if baseURL == "" {
				baseURL = fmt.Sprintf("http://localhost:%d", port)
			}
			logger.Info("Starting learnpath MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, addr, baseURL); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public URL of the SSE endpoint (default http://localhost:<port>)")
}

