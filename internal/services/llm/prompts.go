package llm

import (
	"fmt"
	"strings"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// systemPrompt frames every generation call. The structured analysis in the
// user prompt carries the facts; the system prompt sets the conventions.
const systemPrompt = `You are a CI migration assistant converting CircleCI pipelines to GitHub Actions.

Rules:
- Generate complete, valid GitHub Actions workflow YAML.
- Use google-github-actions/auth with workload identity federation instead of service account key files where the analysis lists GCP secrets.
- Use docker/build-push-action for registry pushes.
- Preserve job dependency ordering from the original workflows.
- Use dorny/paths-filter for path-filtered pipelines.
- Never invent repository secrets beyond the ones listed in the analysis.`

// buildWorkflowPrompt assembles the user message for workflow generation:
// the original config plus a summary of the structured migration plan
func buildWorkflowPrompt(request *models.GenerationRequest) string {
	var b strings.Builder

	b.WriteString("Convert this CircleCI configuration to GitHub Actions workflows.\n\n")
	fmt.Fprintf(&b, "Target repository: %s\n\n", request.RepoName)

	b.WriteString("CircleCI Config:\n```yaml\n")
	b.WriteString(request.ConfigText)
	b.WriteString("\n```\n\n")

	if plan := request.Plan; plan != nil {
		b.WriteString("Migration analysis:\n")
		fmt.Fprintf(&b, "- Complexity: %s\n", plan.Complexity)
		for _, p := range plan.Patterns {
			fmt.Fprintf(&b, "- %s at %s (%s)\n", p.Kind, p.Location(), p.Evidence)
		}
		for _, secret := range plan.Secrets {
			fmt.Fprintf(&b, "- Available repository secret: %s\n", secret)
		}
		b.WriteString("\n")

		if plan.HasKind(models.PatternPathFiltering) {
			b.WriteString("Replace the dynamic-config setup workflow with a change-detection job using dorny/paths-filter so downstream jobs only run when their paths change.\n\n")
		}
	}

	b.WriteString("Generate complete GitHub Actions workflow YAML file(s).\n")
	b.WriteString("Return in format:\n")
	b.WriteString("FILENAME: <filename.yml>\n")
	b.WriteString("```yaml\n<workflow content>\n```\n")

	return b.String()
}
