package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/services"
)

func newMatchCmd() *cobra.Command {
	var include, ignore, rulesFile string

	cmd := &cobra.Command{
		Use:   "match [flags] path...",
		Short: "Show whether include/ignore patterns admit each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := services.FilterRules{
				IncludePatterns: config.SplitList(include),
				IgnorePatterns:  config.SplitList(ignore),
			}

			if rulesFile != "" {
				file, err := config.LoadRulesFile(rulesFile)
				if err != nil {
					return err
				}
				if len(rules.IncludePatterns) == 0 {
					rules.IncludePatterns = file.IncludePatterns
				}
				if len(rules.IgnorePatterns) == 0 {
					rules.IgnorePatterns = file.IgnorePatterns
				}
			}

			for _, path := range args {
				decision := "skip"
				if rules.Admits(path) {
					decision = "admit"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", decision, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&include, "include", "", "comma-separated include patterns")
	cmd.Flags().StringVar(&ignore, "ignore", "", "comma-separated ignore patterns")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rules file; flags win over its lists")

	return cmd
}
