package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "knowstore",
	Short: "Schema-driven knowledge store for AI coding agents",
	Long: `Knowstore persists problem/solution patterns learned during coding
sessions into a semantic vector store, deduplicates near-identical
entries on insert, and exposes the whole store to AI agents through
three MCP meta-tools: discover_tools, get_tool_spec and execute_tool.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".knowstore.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
