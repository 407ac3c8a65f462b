// Package planner aggregates detector findings into a migration plan:
// required repository secrets, required external infrastructure PRs, and a
// complexity classification. Plan building is a total function of the
// finding sequence and cannot fail.
package planner

import (
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// Secret names configured on migrated repositories
const (
	SecretServiceAccount       = "GCP_SERVICE_ACCOUNT_JSON"
	SecretDryRunServiceAccount = "GCP_SERVICE_ACCOUNT_DRY_RUN_JSON"
	SecretAirflowTriggerURL    = "AIRFLOW_TRIGGER_URL"
	SecretPyPIToken            = "PYPI_API_TOKEN"
)

// InfraRepo is the infrastructure repository migration PRs land in
const InfraRepo = "dataservices-infra"

// secretsByKind maps a pattern kind to the secrets it requires. Secrets
// accumulate in first-seen kind order and are deduplicated.
var secretsByKind = map[models.PatternKind][]string{
	models.PatternDockerPush:      {SecretServiceAccount},
	models.PatternAirflowTrigger:  {SecretDryRunServiceAccount, SecretAirflowTriggerURL},
	models.PatternIntegrationTest: {SecretDryRunServiceAccount},
}

// infraPRsByKind maps a pattern kind to required infrastructure changes,
// deduplicated by (repository, file)
var infraPRsByKind = map[models.PatternKind][]models.InfraPR{
	models.PatternDockerPush: {{
		Repository: InfraRepo,
		File:       "data-artifacts/tf/prod/locals.tf",
		Reason:     "grant the repository push access to Google Artifact Registry",
	}},
	models.PatternAirflowTrigger: {{
		Repository: InfraRepo,
		File:       "airflow-triggers/tf/prod/invokers.tf",
		Reason:     "allow the repository workload identity to invoke the DAG trigger function",
	}},
	models.PatternIntegrationTest: {{
		Repository: InfraRepo,
		File:       "data-access/tf/prod/dry_run_members.tf",
		Reason:     "add the repository to the dry-run service account members",
	}},
}

// Service builds migration plans from detector output
type Service struct {
	logger arbor.ILogger
}

// NewService creates a planner service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Build assembles the read-only MigrationPlan for one config's findings
func (s *Service) Build(sourceName string, patterns []models.DetectedPattern, warnings []models.DetectionWarning) *models.MigrationPlan {
	plan := &models.MigrationPlan{
		SourceName: sourceName,
		Patterns:   patterns,
		Warnings:   warnings,
		Secrets:    requiredSecrets(patterns),
		InfraPRs:   requiredInfraPRs(patterns),
		Complexity: classify(patterns),
	}

	s.logger.Debug().
		Str("source", sourceName).
		Str("complexity", string(plan.Complexity)).
		Int("secrets", len(plan.Secrets)).
		Int("infra_prs", len(plan.InfraPRs)).
		Msg("Migration plan built")

	return plan
}

func requiredSecrets(patterns []models.DetectedPattern) []string {
	seen := make(map[string]bool)
	var secrets []string
	add := func(names []string) {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				secrets = append(secrets, name)
			}
		}
	}

	for _, p := range patterns {
		add(secretsByKind[p.Kind])
		// Token-based upload needs a repository secret until the project
		// moves to trusted publishing
		if p.Kind == models.PatternPyPIPublish && p.MustFix {
			add([]string{SecretPyPIToken})
		}
	}
	return secrets
}

func requiredInfraPRs(patterns []models.DetectedPattern) []models.InfraPR {
	type key struct{ repo, file string }
	seen := make(map[key]bool)
	var prs []models.InfraPR
	for _, p := range patterns {
		for _, pr := range infraPRsByKind[p.Kind] {
			k := key{pr.Repository, pr.File}
			if !seen[k] {
				seen[k] = true
				prs = append(prs, pr)
			}
		}
	}
	return prs
}

// classify derives the complexity tier from the distinct infra-sensitive
// kinds present. Pure function of the kind set, independent of detection
// order.
func classify(patterns []models.DetectedPattern) models.Complexity {
	distinct := make(map[models.PatternKind]bool)
	for _, p := range patterns {
		if p.Kind.IsInfraSensitive() {
			distinct[p.Kind] = true
		}
	}
	switch {
	case len(distinct) == 0:
		return models.ComplexitySimple
	case len(distinct) == 1:
		return models.ComplexityModerate
	default:
		return models.ComplexityComplex
	}
}
