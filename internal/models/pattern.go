package models

import "fmt"

// PatternKind is one fixed category of infrastructure-sensitive behavior
// detected in a job or step
type PatternKind string

// PatternKind constants
const (
	PatternDockerPush      PatternKind = "DOCKER_PUSH"      // Registry build/push step or orb
	PatternAirflowTrigger  PatternKind = "AIRFLOW_TRIGGER"  // DAG trigger endpoint call
	PatternIntegrationTest PatternKind = "INTEGRATION_TEST" // Integration/dry-run test job
	PatternPathFiltering   PatternKind = "PATH_FILTERING"   // Dynamic config / path filtering setup
	PatternContainerJob    PatternKind = "CONTAINER_JOB"    // Non-standard docker image executor
	PatternPyPIPublish     PatternKind = "PYPI_PUBLISH"     // Package build/upload step
	PatternGeneric         PatternKind = "GENERIC"          // No infrastructure-sensitive behavior
)

// IsInfraSensitive reports whether the kind contributes to complexity
// classification. GENERIC never does.
func (k PatternKind) IsInfraSensitive() bool {
	return k != PatternGeneric && k != ""
}

// DetectedPattern is a single finding produced by the pattern detector
type DetectedPattern struct {
	Kind PatternKind `json:"kind"`
	// JobName locates the finding; empty for pipeline-level findings
	JobName string `json:"job_name,omitempty"`
	// StepIndex is the zero-based step position, -1 for job-level findings
	StepIndex int `json:"step_index"`
	// MustFix marks findings that block migration until resolved
	// (e.g. a deprecated upload tool)
	MustFix bool `json:"must_fix,omitempty"`
	// Evidence is the matched orb id or command substring that triggered
	// the rule
	Evidence string `json:"evidence,omitempty"`
}

// Location renders a human-readable job/step reference
func (d DetectedPattern) Location() string {
	switch {
	case d.JobName == "":
		return "pipeline"
	case d.StepIndex < 0:
		return d.JobName
	default:
		return fmt.Sprintf("%s (step %d)", d.JobName, d.StepIndex+1)
	}
}

// DetectionWarning is a non-fatal inconsistency found during analysis.
// Warnings are collected on the plan, never raised as errors.
type DetectionWarning struct {
	// Workflow names the workflow the warning belongs to, empty when not
	// workflow-scoped
	Workflow string `json:"workflow,omitempty"`
	Message  string `json:"message"`
}

func (w DetectionWarning) String() string {
	if w.Workflow == "" {
		return w.Message
	}
	return fmt.Sprintf("workflow %q: %s", w.Workflow, w.Message)
}
