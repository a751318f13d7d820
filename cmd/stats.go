package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge store statistics",
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

		stats, err := comps.store.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("computing stats: %w", err)
		}

		fmt.Printf("Total entries: %d\n", stats.TotalEntries)
		fmt.Printf("Average quality: %.2f\n", stats.AvgQualityScore)
		if len(stats.EntriesByStatus) > 0 {
			fmt.Println("By status:")
			for status, count := range stats.EntriesByStatus {
				fmt.Printf("  %-14s %d\n", status, count)
			}
		}
		if len(stats.EntriesByType) > 0 {
			fmt.Println("By pattern type:")
			for patternType, count := range stats.EntriesByType {
				fmt.Printf("  %-14s %d\n", patternType, count)
			}
		}
		if len(stats.TopTags) > 0 {
			fmt.Println("Top tags:")
			for _, tc := range stats.TopTags {
				fmt.Printf("  %-14s %d\n", tc.Tag, tc.Count)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
