package detector

import (
	"regexp"
	"strings"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// ruleContext carries everything a predicate may inspect for one step
type ruleContext struct {
	config *models.PipelineConfig
	job    *models.JobSpec
	step   *models.StepSpec
}

// finding is the raw output of a predicate before location is attached
type finding struct {
	evidence string
	mustFix  bool
}

// jobRule inspects a job as a whole (name, executor)
type jobRule struct {
	kind  models.PatternKind
	match func(job *models.JobSpec) (finding, bool)
}

// stepRule inspects a single step in its pipeline context
type stepRule struct {
	kind  models.PatternKind
	match func(ctx ruleContext) (finding, bool)
}

// The catalogs are evaluated in declaration order for every job and step;
// rules are independent and a single step may satisfy several of them.
var jobRules = []jobRule{
	{kind: models.PatternIntegrationTest, match: matchIntegrationJobName},
	{kind: models.PatternContainerJob, match: matchContainerExecutor},
}

var stepRules = []stepRule{
	{kind: models.PatternDockerPush, match: matchDockerPush},
	{kind: models.PatternAirflowTrigger, match: matchAirflowTrigger},
	{kind: models.PatternIntegrationTest, match: matchIntegrationStep},
	{kind: models.PatternPathFiltering, match: matchPathFiltering},
	{kind: models.PatternPyPIPublish, match: matchPyPIPublish},
}

// dockerPushCommands are build/push tool invocations in run commands
var dockerPushCommands = []string{
	"docker build",
	"docker push",
	"gcloud builds submit",
	"gcr.io",
	"pkg.dev",
}

// dockerPushOrbFamilies are registry-push orb families matched against
// resolved orb ids
var dockerPushOrbFamilies = []string{"gcp-gcr", "aws-ecr", "docker"}

// airflowTriggerHost is the Cloud Function host DAG triggers are posted to
const airflowTriggerHost = "cloudfunctions.net"

var (
	pytestIntegrationMarker = regexp.MustCompile(`pytest\b.*-m[= ]+['"]?integration`)
	dryRunFlag              = regexp.MustCompile(`--dry[-_]run\b`)
	sqlToolHint             = regexp.MustCompile(`(?i)\b(bq|sql|bigquery)\b`)
)

// knownBaseImagePrefixes cover convenience images and registry namespaces
// that translate directly to hosted GitHub runners plus a setup step
var knownBaseImagePrefixes = []string{"cimg/", "circleci/"}

// knownBaseImageNames are official language/OS images that need no
// container job translation
var knownBaseImageNames = []string{
	"python", "node", "golang", "go", "ruby", "openjdk", "ubuntu", "alpine", "debian",
}

func matchIntegrationJobName(job *models.JobSpec) (finding, bool) {
	normalized := strings.ToLower(job.Name)
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")
	if strings.Contains(normalized, "integration") {
		return finding{evidence: "job name " + job.Name}, true
	}
	return finding{}, false
}

func matchContainerExecutor(job *models.JobSpec) (finding, bool) {
	if job.Executor.Type != models.ExecutorDocker || job.Executor.Image == "" {
		return finding{}, false
	}
	if isKnownBaseImage(job.Executor.Image) {
		return finding{}, false
	}
	return finding{evidence: "image " + job.Executor.Image}, true
}

func isKnownBaseImage(image string) bool {
	for _, prefix := range knownBaseImagePrefixes {
		if strings.HasPrefix(image, prefix) {
			return true
		}
	}
	name, _, _ := strings.Cut(image, ":")
	for _, known := range knownBaseImageNames {
		if name == known {
			return true
		}
	}
	return false
}

func matchDockerPush(ctx ruleContext) (finding, bool) {
	step := ctx.step
	if step.Type == models.StepTypeRun {
		for _, marker := range dockerPushCommands {
			if strings.Contains(step.Command, marker) {
				return finding{evidence: marker}, true
			}
		}
	}
	if step.Type == models.StepTypeOrb {
		for _, family := range dockerPushOrbFamilies {
			if strings.Contains(step.OrbID, family) {
				return finding{evidence: "orb " + step.OrbID}, true
			}
		}
	}
	return finding{}, false
}

func matchAirflowTrigger(ctx ruleContext) (finding, bool) {
	step := ctx.step
	if step.Type != models.StepTypeRun {
		return finding{}, false
	}
	if strings.Contains(step.Command, airflowTriggerHost) {
		return finding{evidence: airflowTriggerHost}, true
	}
	name := strings.ToLower(step.Name)
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	if strings.Contains(name, "trigger airflow") {
		return finding{evidence: "step name " + step.Name}, true
	}
	return finding{}, false
}

func matchIntegrationStep(ctx ruleContext) (finding, bool) {
	step := ctx.step
	if step.Type != models.StepTypeRun {
		return finding{}, false
	}
	if dryRunFlag.MatchString(step.Command) && sqlToolHint.MatchString(step.Command) {
		return finding{evidence: "SQL dry-run validation"}, true
	}
	if strings.Contains(step.Command, "sqlfluff") {
		return finding{evidence: "sqlfluff"}, true
	}
	if pytestIntegrationMarker.MatchString(step.Command) {
		return finding{evidence: "pytest -m integration"}, true
	}
	return finding{}, false
}

func matchPathFiltering(ctx ruleContext) (finding, bool) {
	step := ctx.step
	if step.Type == models.StepTypeOrb {
		if strings.Contains(step.OrbID, "path-filtering") {
			return finding{evidence: "orb " + step.OrbID}, true
		}
		if strings.Contains(step.OrbID, "continuation") {
			return finding{evidence: "orb " + step.OrbID}, true
		}
	}
	// A setup pipeline generating its own child config dynamically
	if ctx.config.Setup && step.Type == models.StepTypeRun &&
		strings.Contains(step.Command, "circleci config") {
		return finding{evidence: "dynamic config generation"}, true
	}
	return finding{}, false
}

func matchPyPIPublish(ctx ruleContext) (finding, bool) {
	step := ctx.step
	if step.Type != models.StepTypeRun {
		return finding{}, false
	}
	// twine uploads carry long-lived credentials and must move to trusted
	// publishing
	if strings.Contains(step.Command, "twine upload") {
		return finding{evidence: "twine upload", mustFix: true}, true
	}
	if strings.Contains(step.Command, "python -m build") ||
		strings.Contains(step.Command, "setup.py sdist") ||
		strings.Contains(step.Command, "setup.py bdist_wheel") {
		return finding{evidence: "package build step"}, true
	}
	return finding{}, false
}
