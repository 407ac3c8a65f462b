package render

import "fmt"

// InfraPRBody renders the PR description for granting a repository push
// access to Google Artifact Registry
func InfraPRBody(repoName string) string {
	return fmt.Sprintf(`## Add GAR access for %[1]s

This PR adds the %[1]s repository to the list of repositories
that can push images to Google Artifact Registry.

### Changes
- Added %[1]s to the repository list in data-artifacts/tf/prod/locals.tf

### Testing
- [ ] Terraform plan shows expected changes
- [ ] No other resources affected

Related to CircleCI to GitHub Actions migration.
`, repoName)
}
