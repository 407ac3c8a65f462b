package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mozilla/circleci-to-gha/internal/models"
	"github.com/mozilla/circleci-to-gha/internal/services/analyzer"
	"github.com/mozilla/circleci-to-gha/internal/services/render"
	"github.com/mozilla/circleci-to-gha/internal/workspace"
)

func newAnalyzeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze CircleCI configs and print the migration plan and checklist",
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
				printPlan(report.Plan)
				fmt.Println()
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

// analyzeConfigs discovers, reads, and analyzes every config under path.
// A single file's read or parse failure is recorded on its report and
// never aborts the batch.
func analyzeConfigs(path string) ([]models.FileReport, error) {
	paths, err := workspace.DiscoverConfigs(path)
	if err != nil {
		return nil, err
	}

	svc := analyzer.NewService(logger)
	var sources []analyzer.Source
	var reports []models.FileReport
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			reports = append(reports, models.FileReport{Path: p, Err: err})
			continue
		}
		sources = append(sources, analyzer.Source{Path: p, Text: string(data)})
	}
	return append(reports, svc.AnalyzeBatch(sources)...), nil
}

// batchOutcome maps a report set to the command result: the command only
// fails when nothing could be analyzed
func batchOutcome(reports []models.FileReport) error {
	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
		}
	}
	if failed == len(reports) && len(reports) > 0 {
		return fmt.Errorf("all %d config file(s) failed analysis", failed)
	}
	return nil
}

func printPlan(plan *models.MigrationPlan) {
	fmt.Printf("# Migration plan: %s\n", plan.SourceName)
	fmt.Printf("Complexity: %s\n", plan.Complexity)

	if len(plan.Patterns) > 0 {
		fmt.Println("Detected patterns:")
		for _, p := range plan.Patterns {
			marker := ""
			if p.MustFix {
				marker = " (MUST FIX)"
			}
			fmt.Printf("  - %s at %s: %s%s\n", p.Kind, p.Location(), p.Evidence, marker)
		}
	}
	if len(plan.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, w := range plan.Warnings {
			fmt.Printf("  - %s\n", w.String())
		}
	}
	if len(plan.Secrets) > 0 {
		fmt.Printf("Required secrets: %s\n", strings.Join(plan.Secrets, ", "))
	}
}
