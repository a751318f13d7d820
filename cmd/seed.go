package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedEntry is one entry in a seed file.
type seedEntry struct {
	ProblemPattern string   `yaml:"problem_pattern"`
	Solution       string   `yaml:"solution"`
	CodeExample    string   `yaml:"code_example"`
	Tags           []string `yaml:"tags"`
	PatternType    string   `yaml:"pattern_type"`
	QualityScore   *float64 `yaml:"quality_score"`
}

var seedSkipDedup bool

var seedCmd = &cobra.Command{
	Use:   "seed <file.yml>",
	Short: "Import knowledge entries from a YAML seed file",
	Long: `Reads a YAML list of problem/solution patterns and adds each one to the
knowledge store through the regular add_entry pipeline, so seeded entries
are deduplicated and audited like any other entry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading seed file: %w", err)
		}
		var entries []seedEntry
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing seed file: %w", err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("seed file %s contains no entries", args[0])
		}

		comps, err := buildComponents(cfg)
		if err != nil {
			return err
		}
		defer comps.Close()

		bar := progressbar.NewOptions(len(entries),
			progressbar.OptionSetDescription("Seeding entries"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		ctx := context.Background()
		created, duplicates, failed := 0, 0, 0

		for _, e := range entries {
			params := map[string]any{
				"problem_pattern": e.ProblemPattern,
				"solution":        e.Solution,
				"source_type":     "seeded",
				"dedup_check":     !seedSkipDedup,
			}
			if e.CodeExample != "" {
				params["code_example"] = e.CodeExample
			}
			if len(e.Tags) > 0 {
				tags := make([]any, len(e.Tags))
				for i, tag := range e.Tags {
					tags[i] = tag
				}
				params["tags"] = tags
			}
			if e.PatternType != "" {
				params["pattern_type"] = e.PatternType
			}
			if e.QualityScore != nil {
				params["quality_score"] = *e.QualityScore
			}

			result, err := comps.dispatcher.ExecuteTool(ctx, "add_entry", params)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "\nError seeding %q: %v\n", e.ProblemPattern, err)
			} else if out, ok := result.(map[string]any); ok && out["created"] == false {
				duplicates++
				if verbose {
					fmt.Fprintf(os.Stderr, "\nSkipped duplicate of %v: %q\n", out["duplicate_of"], e.ProblemPattern)
				}
			} else {
				created++
			}
			bar.Add(1)
		}
		bar.Finish()

		if err := comps.backend.Persist(ctx, cfg.DataDir); err != nil {
			return fmt.Errorf("persisting vector store: %w", err)
		}

		fmt.Printf("Seeded %d entries (%d duplicates skipped, %d failed) from %s\n",
			created, duplicates, failed, args[0])
		if failed > 0 {
			return fmt.Errorf("%d entries failed to seed", failed)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedSkipDedup, "skip-dedup", false, "add entries without checking for duplicates")
	rootCmd.AddCommand(seedCmd)
}
