package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/knowstore/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the knowledge store's meta-tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		comps, err := buildComponents(cfg)
		if err != nil {
			return err
		}
		defer comps.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "knowstore MCP server started on stdio (data=%s, entries=%d)\n",
			cfg.DataDir, comps.backend.Count())

		srv := mcpserver.NewServer(comps.dispatcher)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
