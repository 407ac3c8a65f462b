// Package render turns migration plans into human-readable checklists and
// generation request payloads. Everything here is pure formatting: no
// network, no file IO.
package render

import (
	"fmt"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// Checklist section headers, rendered in this order
const (
	SectionSecrets      = "## Secrets"
	SectionInfraPRs     = "## Infra PRs"
	SectionWorkflows    = "## Workflow files"
	SectionVerification = "## Manual verification"
	SectionTesting      = "## Testing"
)

// verificationByKind holds the manual check each pattern kind requires
var verificationByKind = map[models.PatternKind]string{
	models.PatternDockerPush:      "Push an image from a test branch and confirm it lands in Artifact Registry",
	models.PatternAirflowTrigger:  "Trigger the DAG from a workflow run and confirm it starts in Airflow",
	models.PatternIntegrationTest: "Run the integration job and confirm dry-run queries authenticate",
	models.PatternPathFiltering:   "Verify path-filtered workflows only run when their paths change",
	models.PatternContainerJob:    "Confirm the custom image runs as a container job on a hosted runner",
	models.PatternPyPIPublish:     "Publish a release candidate and confirm the package reaches PyPI",
}

// Checklist renders the migration plan as markdown checkbox lines grouped
// under fixed section headers
func Checklist(plan *models.MigrationPlan) []string {
	var lines []string

	lines = append(lines, SectionSecrets)
	if len(plan.Secrets) == 0 {
		lines = append(lines, "- [ ] No repository secrets required")
	}
	for _, secret := range plan.Secrets {
		lines = append(lines, fmt.Sprintf("- [ ] Configure repository secret `%s`", secret))
	}

	lines = append(lines, "", SectionInfraPRs)
	if len(plan.InfraPRs) == 0 {
		lines = append(lines, "- [ ] No infrastructure changes required")
	}
	for _, pr := range plan.InfraPRs {
		lines = append(lines, fmt.Sprintf("- [ ] Open a PR against %s updating `%s` to %s", pr.Repository, pr.File, pr.Reason))
	}

	lines = append(lines, "", SectionWorkflows)
	lines = append(lines, fmt.Sprintf("- [ ] Create GitHub Actions workflow files replacing %s", plan.SourceName))
	lines = append(lines, "- [ ] Remove the .circleci directory once workflows are green")

	lines = append(lines, "", SectionVerification)
	for _, item := range verificationItems(plan) {
		lines = append(lines, item)
	}

	lines = append(lines, "", SectionTesting)
	lines = append(lines, "- [ ] Open a draft PR and confirm every workflow runs to completion")
	lines = append(lines, "- [ ] Compare workflow run time against the last CircleCI pipeline")

	return lines
}

// verificationItems produces one line per distinct kind, must-fix findings
// first with an explicit marker
func verificationItems(plan *models.MigrationPlan) []string {
	var items []string

	for _, f := range plan.MustFixFindings() {
		items = append(items, fmt.Sprintf("- [ ] Replace %s in %s with a supported mechanism (MUST FIX)", f.Evidence, f.Location()))
	}

	for _, kind := range plan.Kinds() {
		if note, ok := verificationByKind[kind]; ok {
			items = append(items, "- [ ] "+note)
		}
	}

	for _, w := range plan.Warnings {
		items = append(items, fmt.Sprintf("- [ ] Resolve config inconsistency: %s", w.String()))
	}

	if len(items) == 0 {
		items = append(items, "- [ ] Review generated workflows against the original pipeline")
	}
	return items
}
