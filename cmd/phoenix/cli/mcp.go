package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomislavmiksik/phoenix-be/internal/config"
	pmcp "github.com/tomislavmiksik/phoenix-be/internal/mcp"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

func newMCPCmd() *cobra.Command {
	var (
		username  string
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes one user's
measurements as tools for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for MCP clients that launch it as a subprocess. Logs go to stderr.`,
		Example: `  phoenix mcp --user alice                            # stdio mode
  phoenix mcp --user alice --transport http --port 3001  # streamable HTTP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, username, transport, port)
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "Username whose measurements the tools operate on (required)")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")
	cmd.MarkFlagRequired("user")

	return cmd
}

func runMCP(cmd *cobra.Command, username, transport string, port int) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr, false)

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.FindUserByUsername(cmd.Context(), username); err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}

	measurements := service.WithMeasurementLogging(service.NewMeasurementService(st), logger)
	srv := pmcp.NewMCPServer(measurements, st, username, versionString(), logger)

	if transport == "http" {
		return srv.ServeHTTP(fmt.Sprintf(":%d", port))
	}
	return srv.ServeStdio()
}
