package models

// Complexity classifies how involved a migration is expected to be
type Complexity string

// Complexity constants
const (
	ComplexitySimple   Complexity = "simple"   // Only GENERIC findings, or none
	ComplexityModerate Complexity = "moderate" // Exactly one infra-sensitive kind
	ComplexityComplex  Complexity = "complex"  // Two or more infra-sensitive kinds
)

// InfraPR describes one required change in an external infrastructure
// repository. Deduplicated by (Repository, File).
type InfraPR struct {
	Repository string `json:"repository"`
	File       string `json:"file"`
	Reason     string `json:"reason"`
}

// MigrationPlan is the derived, read-only summary for one pipeline config.
// Built fresh per analyzed file and never mutated by downstream consumers.
type MigrationPlan struct {
	// SourceName identifies the analyzed config file
	SourceName string `json:"source_name"`
	// Patterns in detection order: job appearance order, then step order
	Patterns []DetectedPattern `json:"patterns"`
	// Warnings collected during detection (dangling references, cycles)
	Warnings []DetectionWarning `json:"warnings,omitempty"`
	// Secrets that must be configured on the target repository, in
	// first-seen pattern kind order, deduplicated
	Secrets []string `json:"secrets,omitempty"`
	// InfraPRs required in external repositories, deduplicated by repo+file
	InfraPRs []InfraPR `json:"infra_prs,omitempty"`
	// Complexity is a pure function of the distinct pattern kinds present
	Complexity Complexity `json:"complexity"`
}

// Kinds returns the distinct pattern kinds in first-seen order
func (p *MigrationPlan) Kinds() []PatternKind {
	seen := make(map[PatternKind]bool, len(p.Patterns))
	var kinds []PatternKind
	for _, d := range p.Patterns {
		if !seen[d.Kind] {
			seen[d.Kind] = true
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}

// HasKind reports whether any finding of the given kind is present
func (p *MigrationPlan) HasKind(kind PatternKind) bool {
	for _, d := range p.Patterns {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// MustFixFindings returns the findings flagged as blocking
func (p *MigrationPlan) MustFixFindings() []DetectedPattern {
	var out []DetectedPattern
	for _, d := range p.Patterns {
		if d.MustFix {
			out = append(out, d)
		}
	}
	return out
}
