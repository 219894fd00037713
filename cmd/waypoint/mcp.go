package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes session stepping as MCP tools and documents as resources, so agents
can walk a checklist the same way a person does.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs must never reach stdout, which carries JSON-RPC on stdio.
		env := newEnv(cmd, cli.WithLogOutput(os.Stderr))
		defer env.Close()
		slog.SetDefault(env.Logger)

		srv := mcp.NewServer(env.Service(), env.Documents, waypoint.Version, mcp.WithLogger(env.Logger))

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			env.Logger.Info("Starting Waypoint MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				env.Logger.Error("MCP Server execution failed", "err", err)
				env.Close()
				os.Exit(1)
			}
		case "sse":
			env.Logger.Info("Starting Waypoint MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				env.Logger.Error("MCP Server execution failed", "err", err)
				env.Close()
				os.Exit(1)
			}
			env.Logger.Info("MCP Server stopped gracefully")
		default:
			env.Close()
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
