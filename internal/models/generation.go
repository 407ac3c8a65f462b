package models

// GenerationRequest is the structured payload handed to the workflow
// generation service. Built by the request builder, pure data, no IO.
type GenerationRequest struct {
	// ID is a unique identifier for tracing one generation call
	ID string `json:"id"`
	// RepoName is the target GitHub repository name
	RepoName string `json:"repo_name"`
	// ConfigText is the original CircleCI config document
	ConfigText string `json:"config_text"`
	// Plan is the structured analysis for the config
	Plan *MigrationPlan `json:"plan"`
}

// WorkflowFiles maps generated workflow filename -> YAML content
type WorkflowFiles map[string]string

// FileReport is the per-file outcome of a batch analysis. Either Plan or
// Err is set, never both.
type FileReport struct {
	// Path is the analyzed config file path
	Path string         `json:"path"`
	Plan *MigrationPlan `json:"plan,omitempty"`
	// Err holds the ParseError for files that failed, nil otherwise
	Err error `json:"-"`
}

// Failed reports whether analysis of this file failed
func (r FileReport) Failed() bool {
	return r.Err != nil
}
