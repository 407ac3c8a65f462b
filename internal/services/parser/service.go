// Package parser loads CircleCI pipeline configuration files into the
// normalized internal model. Parsing preserves document order and carries
// unrecognized substructure as raw text so detection rules can still
// inspect content that does not fit the typed schema.
package parser

import (
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// Service parses raw pipeline configuration text
type Service struct {
	logger arbor.ILogger
}

// NewService creates a parser service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Parse converts raw config text into a PipelineConfig. It fails only on
// invalid YAML syntax (returned as *models.ParseError); syntactically valid
// but structurally unexpected documents always produce a config, with
// unknown parts preserved opaquely.
func (s *Service) Parse(sourceName, text string) (*models.PipelineConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, models.NewParseError(sourceName, err)
	}

	config := &models.PipelineConfig{
		SourceName: sourceName,
		RawText:    text,
	}

	root := documentRoot(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		// Empty or non-mapping documents are valid, just uninteresting
		s.logger.Debug().Str("source", sourceName).Msg("Config has no top-level mapping")
		return config, nil
	}

	// Orbs must be resolved before jobs so step references can carry the
	// full orb id
	if orbsNode := mappingValue(root, "orbs"); orbsNode != nil {
		config.Orbs = s.parseOrbs(config, orbsNode)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		value := root.Content[i+1]

		switch key {
		case "version", "orbs":
			// Recognized, nothing to model
		case "setup":
			config.Setup = value.Value == "true"
		case "jobs":
			config.Jobs = s.parseJobs(config, value)
		case "workflows":
			config.Workflows = s.parseWorkflows(config, value)
		default:
			if config.Unrecognized == nil {
				config.Unrecognized = make(map[string]string)
			}
			config.Unrecognized[key] = rawText(value)
		}
	}

	s.logger.Debug().
		Str("source", sourceName).
		Int("jobs", len(config.Jobs)).
		Int("workflows", len(config.Workflows)).
		Bool("setup", config.Setup).
		Msg("Parsed pipeline config")

	return config, nil
}

// parseOrbs builds the alias -> registry id table. Inline orb definitions
// (mapping values) have no registry id; their body is kept as raw text.
func (s *Service) parseOrbs(config *models.PipelineConfig, node *yaml.Node) map[string]string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	orbs := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		alias := node.Content[i].Value
		value := node.Content[i+1]
		if value.Kind == yaml.ScalarNode {
			orbs[alias] = value.Value
			continue
		}
		// Inline orb: keep alias as its own id and preserve the body
		orbs[alias] = alias
		if config.Unrecognized == nil {
			config.Unrecognized = make(map[string]string)
		}
		config.Unrecognized["orbs."+alias] = rawText(value)
	}
	return orbs
}

func (s *Service) parseJobs(config *models.PipelineConfig, node *yaml.Node) []models.JobSpec {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	jobs := make([]models.JobSpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		jobs = append(jobs, s.parseJob(config, name, node.Content[i+1]))
	}
	return jobs
}

func (s *Service) parseJob(config *models.PipelineConfig, name string, node *yaml.Node) models.JobSpec {
	job := models.JobSpec{
		Name:     name,
		Executor: models.Executor{Type: models.ExecutorUnknown},
	}
	if node.Kind != yaml.MappingNode {
		return job
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		switch key {
		case "docker":
			job.Executor = parseDockerExecutor(value)
		case "machine":
			job.Executor = models.Executor{Type: models.ExecutorMachine}
		case "resource_class":
			job.ResourceClass = value.Value
		case "environment":
			job.EnvironmentKeys = mappingKeys(value)
		case "steps":
			job.Steps = s.parseSteps(config, value)
		default:
			if job.Unrecognized == nil {
				job.Unrecognized = make(map[string]string)
			}
			job.Unrecognized[key] = rawText(value)
		}
	}
	return job
}

func parseDockerExecutor(node *yaml.Node) models.Executor {
	exec := models.Executor{Type: models.ExecutorDocker}
	if node.Kind != yaml.SequenceNode {
		return exec
	}
	for _, entry := range node.Content {
		image := ""
		if entry.Kind == yaml.MappingNode {
			if imageNode := mappingValue(entry, "image"); imageNode != nil {
				image = imageNode.Value
			}
		} else if entry.Kind == yaml.ScalarNode {
			image = entry.Value
		}
		if image == "" {
			continue
		}
		if exec.Image == "" {
			exec.Image = image
		} else {
			exec.SecondaryImages = append(exec.SecondaryImages, image)
		}
	}
	return exec
}

func (s *Service) parseSteps(config *models.PipelineConfig, node *yaml.Node) []models.StepSpec {
	if node.Kind != yaml.SequenceNode {
		return nil
	}
	steps := make([]models.StepSpec, 0, len(node.Content))
	for _, entry := range node.Content {
		steps = append(steps, s.parseStep(config, entry))
	}
	return steps
}

// parseStep classifies one step entry into the tagged StepSpec variants.
// Setup-pipeline continuation steps and path-filtering orb invocations come
// through here as ordinary orb steps, so the detector sees them uniformly.
func (s *Service) parseStep(config *models.PipelineConfig, node *yaml.Node) models.StepSpec {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "checkout" {
			return models.StepSpec{Type: models.StepTypeCheckout}
		}
		if strings.Contains(node.Value, "/") {
			return models.StepSpec{
				Type:  models.StepTypeOrb,
				OrbID: resolveOrbRef(config.Orbs, node.Value),
			}
		}
		return models.StepSpec{Type: models.StepTypeCustom, Raw: node.Value}
	case yaml.MappingNode:
		if len(node.Content) < 2 {
			return models.StepSpec{Type: models.StepTypeCustom, Raw: rawText(node)}
		}
		key := node.Content[0].Value
		value := node.Content[1]

		switch {
		case key == "checkout":
			return models.StepSpec{Type: models.StepTypeCheckout}
		case key == "run":
			return parseRunStep(value)
		case strings.Contains(key, "/"):
			return models.StepSpec{
				Type:       models.StepTypeOrb,
				OrbID:      resolveOrbRef(config.Orbs, key),
				Parameters: flattenParameters(value),
			}
		default:
			return models.StepSpec{Type: models.StepTypeCustom, Raw: rawText(node)}
		}
	default:
		return models.StepSpec{Type: models.StepTypeCustom, Raw: rawText(node)}
	}
}

func parseRunStep(node *yaml.Node) models.StepSpec {
	step := models.StepSpec{Type: models.StepTypeRun}
	switch node.Kind {
	case yaml.ScalarNode:
		step.Command = node.Value
	case yaml.MappingNode:
		if cmd := mappingValue(node, "command"); cmd != nil {
			step.Command = cmd.Value
		}
		if name := mappingValue(node, "name"); name != nil {
			step.Name = name.Value
		}
		if step.Command == "" {
			step.Raw = rawText(node)
		}
	default:
		step.Raw = rawText(node)
	}
	return step
}

// resolveOrbRef replaces the alias part of "alias/command" with the
// registry id declared in the top-level orbs block. Unknown aliases pass
// through unchanged.
func resolveOrbRef(orbs map[string]string, ref string) string {
	alias, command, ok := strings.Cut(ref, "/")
	if !ok {
		return ref
	}
	if id, found := orbs[alias]; found && id != "" {
		return id + "/" + command
	}
	return ref
}

// flattenParameters converts orb invocation parameters into flat
// key -> string pairs; non-scalar values keep their raw YAML text
func flattenParameters(node *yaml.Node) map[string]string {
	if node == nil || node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return nil
	}
	params := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		if value.Kind == yaml.ScalarNode {
			params[key] = value.Value
		} else {
			params[key] = rawText(value)
		}
	}
	return params
}

func (s *Service) parseWorkflows(config *models.PipelineConfig, node *yaml.Node) []models.WorkflowSpec {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	workflows := make([]models.WorkflowSpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		value := node.Content[i+1]
		if name == "version" {
			continue
		}
		workflows = append(workflows, models.WorkflowSpec{
			Name: name,
			Jobs: parseWorkflowJobs(config, mappingValue(value, "jobs")),
		})
	}
	return workflows
}

func parseWorkflowJobs(config *models.PipelineConfig, node *yaml.Node) []models.WorkflowJob {
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	jobs := make([]models.WorkflowJob, 0, len(node.Content))
	for _, entry := range node.Content {
		switch entry.Kind {
		case yaml.ScalarNode:
			jobs = append(jobs, annotateOrbJob(config.Orbs, models.WorkflowJob{Name: entry.Value}))
		case yaml.MappingNode:
			if len(entry.Content) < 2 {
				continue
			}
			jobs = append(jobs, parseWorkflowJob(config, entry.Content[0].Value, entry.Content[1]))
		}
	}
	return jobs
}

// annotateOrbJob resolves "alias/command" workflow entries so workflow-level
// orb invocations carry the full orb id the way orb steps do
func annotateOrbJob(orbs map[string]string, job models.WorkflowJob) models.WorkflowJob {
	if strings.Contains(job.Name, "/") {
		job.OrbID = resolveOrbRef(orbs, job.Name)
	}
	return job
}

func parseWorkflowJob(config *models.PipelineConfig, name string, node *yaml.Node) models.WorkflowJob {
	job := annotateOrbJob(config.Orbs, models.WorkflowJob{Name: name})
	if node.Kind != yaml.MappingNode {
		return job
	}
	if requires := mappingValue(node, "requires"); requires != nil {
		job.Requires = sequenceValues(requires)
	}
	if filters := mappingValue(node, "filters"); filters != nil {
		if branches := mappingValue(filters, "branches"); branches != nil {
			job.Branches = parseFilterSet(branches)
		}
		if tags := mappingValue(filters, "tags"); tags != nil {
			job.Tags = parseFilterSet(tags)
		}
	}
	return job
}

func parseFilterSet(node *yaml.Node) models.FilterSet {
	return models.FilterSet{
		Only:   scalarOrSequence(mappingValue(node, "only")),
		Ignore: scalarOrSequence(mappingValue(node, "ignore")),
	}
}

// documentRoot unwraps the yaml document node
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	if doc.Kind == 0 {
		return nil
	}
	return doc
}

// mappingValue returns the value node for a key within a mapping node
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// mappingKeys returns mapping keys in document order
func mappingKeys(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

func sequenceValues(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	values := make([]string, 0, len(node.Content))
	for _, entry := range node.Content {
		values = append(values, entry.Value)
	}
	return values
}

func scalarOrSequence(node *yaml.Node) []string {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.ScalarNode {
		return []string{node.Value}
	}
	return sequenceValues(node)
}

// rawText re-serializes a node so unknown structure survives as
// inspectable text
func rawText(node *yaml.Node) string {
	out, err := yaml.Marshal(node)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\n")
}
