package interfaces

import (
	"context"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// GenerationService defines the external text-generation boundary. It is
// the only suspension point in the pipeline: a blocking request/response
// call with a bounded timeout and no implicit whole-request retry. A failed
// call surfaces as *models.GenerationError; the analysis and checklist for
// the file remain valid.
type GenerationService interface {
	// GenerateWorkflows converts the analyzed config into GitHub Actions
	// workflow files, keyed by filename
	GenerateWorkflows(ctx context.Context, request *models.GenerationRequest) (models.WorkflowFiles, error)

	// Provider names the backing model provider ("claude" or "gemini")
	Provider() string

	// Close releases provider resources
	Close() error
}
