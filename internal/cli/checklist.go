package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mozilla/circleci-to-gha/internal/services/render"
)

func newChecklistCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Print the migration checklist for CircleCI configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := analyzeConfigs(configPath)
			if err != nil {
				return err
			}
			for _, report := range reports {
				if report.Failed() {
					fmt.Fprintf(os.Stderr, "%s: %v\n", report.Path, report.Err)
					continue
				}
				fmt.Printf("# Migration checklist: %s\n\n", report.Path)
				for _, line := range render.Checklist(report.Plan) {
					fmt.Println(line)
				}
				fmt.Println()
			}
			return batchOutcome(reports)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"CircleCI config file or directory (default: .circleci/config.yml)")
	return cmd
}
