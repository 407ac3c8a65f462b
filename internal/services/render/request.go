package render

import (
	"github.com/google/uuid"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// BuildGenerationRequest assembles the payload handed to the workflow
// generation service. The plan is embedded as-is and never mutated.
func BuildGenerationRequest(configText string, plan *models.MigrationPlan, repoName string) *models.GenerationRequest {
	return &models.GenerationRequest{
		ID:         uuid.NewString(),
		RepoName:   repoName,
		ConfigText: configText,
		Plan:       plan,
	}
}
