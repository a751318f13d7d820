package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knowstore/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server with the MCP endpoint and REST API",
	Long:  `Starts the knowstore HTTP server: the MCP JSON-RPC endpoint at /mcp plus health, stats and audit trail endpoints.`,
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

		port := cfg.Port
		if serverPort != 0 {
			port = serverPort
		}

		server.Version = Version
		srv := server.New(server.Config{
			Host:     cfg.Host,
			Port:     port,
			AllowAll: true,
		}, comps.dispatcher, comps.store, comps.audits)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "knowstore server v%s starting on %s:%d\n", Version, cfg.Host, port)
		fmt.Fprintf(os.Stderr, "  Audit database: %s\n", cfg.DatabasePath())
		fmt.Fprintf(os.Stderr, "  Entries indexed: %d\n", comps.backend.Count())

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "override the configured HTTP port")
	rootCmd.AddCommand(serverCmd)
}
