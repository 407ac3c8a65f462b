// Package detector classifies parsed pipeline configs against the fixed
// catalog of infrastructure-sensitive patterns. Detection is deterministic:
// jobs are visited in declaration order, steps in sequence order, and rules
// in catalog order, so identical input always yields identical findings.
package detector

import (
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// Service runs the pattern catalog over a pipeline config
type Service struct {
	logger arbor.ILogger
}

// NewService creates a detector service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Detect produces the ordered findings and warnings for a config. It never
// fails: a config with no infrastructure-sensitive behavior yields a single
// GENERIC finding.
func (s *Service) Detect(config *models.PipelineConfig) ([]models.DetectedPattern, []models.DetectionWarning) {
	var patterns []models.DetectedPattern

	for j := range config.Jobs {
		job := &config.Jobs[j]

		for _, rule := range jobRules {
			if f, ok := rule.match(job); ok {
				patterns = append(patterns, models.DetectedPattern{
					Kind:      rule.kind,
					JobName:   job.Name,
					StepIndex: -1,
					MustFix:   f.mustFix,
					Evidence:  f.evidence,
				})
			}
		}

		for i := range job.Steps {
			ctx := ruleContext{config: config, job: job, step: &job.Steps[i]}
			for _, rule := range stepRules {
				if f, ok := rule.match(ctx); ok {
					patterns = append(patterns, models.DetectedPattern{
						Kind:      rule.kind,
						JobName:   job.Name,
						StepIndex: i,
						MustFix:   f.mustFix,
						Evidence:  f.evidence,
					})
				}
			}
		}
	}

	// Workflows can invoke orb commands directly, without a local job
	// (setup pipelines do this with path-filtering/filter). Those entries go
	// through the same step catalog as orb steps.
	for _, wf := range config.Workflows {
		for _, wj := range wf.Jobs {
			if !wj.IsOrbInvocation() {
				continue
			}
			step := models.StepSpec{Type: models.StepTypeOrb, OrbID: wj.OrbID}
			ctx := ruleContext{config: config, step: &step}
			for _, rule := range stepRules {
				if f, ok := rule.match(ctx); ok {
					patterns = append(patterns, models.DetectedPattern{
						Kind:      rule.kind,
						JobName:   wj.Name,
						StepIndex: -1,
						MustFix:   f.mustFix,
						Evidence:  f.evidence,
					})
				}
			}
		}
	}

	if len(patterns) == 0 {
		patterns = append(patterns, models.DetectedPattern{
			Kind:      models.PatternGeneric,
			StepIndex: -1,
			Evidence:  "no infrastructure-sensitive patterns",
		})
	}

	warnings := s.validateWorkflows(config)

	s.logger.Debug().
		Str("source", config.SourceName).
		Int("patterns", len(patterns)).
		Int("warnings", len(warnings)).
		Msg("Pattern detection complete")

	return patterns, warnings
}

// validateWorkflows checks workflow job references and dependency edges.
// Violations are recorded as warnings, never raised.
func (s *Service) validateWorkflows(config *models.PipelineConfig) []models.DetectionWarning {
	var warnings []models.DetectionWarning

	for _, wf := range config.Workflows {
		inWorkflow := make(map[string]bool, len(wf.Jobs))
		for _, wj := range wf.Jobs {
			inWorkflow[wj.Name] = true
		}

		for _, wj := range wf.Jobs {
			// Orb invocations are not local jobs; only local references can
			// dangle
			if !wj.IsOrbInvocation() && config.Job(wj.Name) == nil {
				warnings = append(warnings, models.DetectionWarning{
					Workflow: wf.Name,
					Message:  "references undefined job " + quoted(wj.Name),
				})
			}
			for _, dep := range wj.Requires {
				if !inWorkflow[dep] {
					warnings = append(warnings, models.DetectionWarning{
						Workflow: wf.Name,
						Message:  "job " + quoted(wj.Name) + " requires " + quoted(dep) + " which is not part of the workflow",
					})
				}
			}
		}

		if cycle := findCycle(wf); cycle != "" {
			warnings = append(warnings, models.DetectionWarning{
				Workflow: wf.Name,
				Message:  "dependency cycle involving job " + quoted(cycle),
			})
		}
	}
	return warnings
}

// findCycle runs a three-color depth-first search over the requires edges
// of one workflow. Returns the first job found on a cycle, in declaration
// order, or empty when the graph is a DAG.
func findCycle(wf models.WorkflowSpec) string {
	requires := make(map[string][]string, len(wf.Jobs))
	for _, wj := range wf.Jobs {
		requires[wj.Name] = wj.Requires
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(wf.Jobs))

	var visit func(name string) bool
	visit = func(name string) bool {
		switch state[name] {
		case visiting:
			return true
		case done:
			return false
		}
		state[name] = visiting
		for _, dep := range requires[name] {
			if visit(dep) {
				return true
			}
		}
		state[name] = done
		return false
	}

	for _, wj := range wf.Jobs {
		if state[wj.Name] == unvisited && visit(wj.Name) {
			return wj.Name
		}
	}
	return ""
}

func quoted(s string) string {
	return "\"" + s + "\""
}
