package models

// StepType identifies the variant of a parsed pipeline step
type StepType string

// StepType constants
const (
	StepTypeCheckout StepType = "checkout" // Source checkout step
	StepTypeRun      StepType = "run"      // Shell command step
	StepTypeOrb      StepType = "orb"      // Orb command invocation (e.g. "gcp-gcr/build-and-push-image")
	StepTypeCustom   StepType = "custom"   // Anything that is not one of the above
)

// StepSpec is one step of a job. Immutable once parsed.
type StepSpec struct {
	Type StepType `json:"type"`
	// Name is the display name for run steps, empty when not declared
	Name string `json:"name,omitempty"`
	// Command is the shell text for run steps
	Command string `json:"command,omitempty"`
	// OrbID is the fully resolved orb command reference for orb steps
	// (alias replaced with the registry id from the top-level orbs map)
	OrbID string `json:"orb_id,omitempty"`
	// Parameters holds orb invocation parameters as flat key -> string pairs
	Parameters map[string]string `json:"parameters,omitempty"`
	// Raw carries the original YAML text of steps that did not fit the
	// typed schema so detection rules can still inspect it
	Raw string `json:"raw,omitempty"`
}

// ExecutorType identifies how a job runs
type ExecutorType string

// ExecutorType constants
const (
	ExecutorDocker  ExecutorType = "docker"
	ExecutorMachine ExecutorType = "machine"
	ExecutorUnknown ExecutorType = "unknown"
)

// Executor describes the execution environment of a job
type Executor struct {
	Type ExecutorType `json:"type"`
	// Image is the primary docker image, empty for machine executors
	Image string `json:"image,omitempty"`
	// SecondaryImages lists service containers after the primary image
	SecondaryImages []string `json:"secondary_images,omitempty"`
}

// JobSpec is a single job definition within a pipeline config.
// Owned exclusively by its PipelineConfig.
type JobSpec struct {
	Name          string     `json:"name"`
	Executor      Executor   `json:"executor"`
	Steps         []StepSpec `json:"steps"`
	ResourceClass string     `json:"resource_class,omitempty"`
	// EnvironmentKeys lists declared environment variable names, never values
	EnvironmentKeys []string `json:"environment_keys,omitempty"`
	// Unrecognized carries raw YAML text of job keys outside the typed schema
	Unrecognized map[string]string `json:"unrecognized,omitempty"`
}

// FilterSet holds branch or tag include/exclude lists from workflow filters
type FilterSet struct {
	Only   []string `json:"only,omitempty"`
	Ignore []string `json:"ignore,omitempty"`
}

// WorkflowJob is one job reference inside a workflow, with trigger filters
// and dependency edges. Workflows can invoke orb commands directly
// ("alias/command" entries) without a local job definition.
type WorkflowJob struct {
	Name string `json:"name"`
	// OrbID is the fully resolved orb command reference for workflow-level
	// orb invocations, empty for references to local jobs
	OrbID    string    `json:"orb_id,omitempty"`
	Requires []string  `json:"requires,omitempty"`
	Branches FilterSet `json:"branches,omitempty"`
	Tags     FilterSet `json:"tags,omitempty"`
}

// IsOrbInvocation reports whether this entry invokes an orb command rather
// than a local job
func (w WorkflowJob) IsOrbInvocation() bool {
	return w.OrbID != ""
}

// WorkflowSpec is an ordered sequence of job references forming a DAG via
// the Requires edges
type WorkflowSpec struct {
	Name string        `json:"name"`
	Jobs []WorkflowJob `json:"jobs"`
}

// PipelineConfig is the normalized model of one CircleCI config file.
// Jobs and Workflows preserve declaration order from the source document.
type PipelineConfig struct {
	// SourceName identifies the file this config was parsed from
	SourceName string `json:"source_name"`
	// RawText is the original document text, kept for generation requests
	RawText string `json:"-"`
	// Setup mirrors the top-level "setup: true" marker of dynamic-config
	// parent pipelines
	Setup     bool           `json:"setup,omitempty"`
	Jobs      []JobSpec      `json:"jobs"`
	Workflows []WorkflowSpec `json:"workflows"`
	// Orbs maps orb alias -> registry id from the top-level orbs block
	Orbs map[string]string `json:"orbs,omitempty"`
	// Unrecognized carries raw YAML text of unknown top-level keys so later
	// stages can still extract partial information
	Unrecognized map[string]string `json:"unrecognized,omitempty"`
}

// Job returns the job with the given name, or nil when it does not exist
func (p *PipelineConfig) Job(name string) *JobSpec {
	for i := range p.Jobs {
		if p.Jobs[i].Name == name {
			return &p.Jobs[i]
		}
	}
	return nil
}

// JobNames returns job names in declaration order
func (p *PipelineConfig) JobNames() []string {
	names := make([]string, 0, len(p.Jobs))
	for i := range p.Jobs {
		names = append(names, p.Jobs[i].Name)
	}
	return names
}
