package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

func newTestService() *Service {
	return NewService(arbor.NewLogger())
}

func runStep(name, command string) models.StepSpec {
	return models.StepSpec{Type: models.StepTypeRun, Name: name, Command: command}
}

func orbStep(orbID string) models.StepSpec {
	return models.StepSpec{Type: models.StepTypeOrb, OrbID: orbID}
}

func dockerJob(name, image string, steps ...models.StepSpec) models.JobSpec {
	return models.JobSpec{
		Name:     name,
		Executor: models.Executor{Type: models.ExecutorDocker, Image: image},
		Steps:    steps,
	}
}

func configWith(jobs ...models.JobSpec) *models.PipelineConfig {
	return &models.PipelineConfig{SourceName: "config.yml", Jobs: jobs}
}

func kinds(patterns []models.DetectedPattern) []models.PatternKind {
	out := make([]models.PatternKind, len(patterns))
	for i, p := range patterns {
		out[i] = p.Kind
	}
	return out
}

func TestDetect_DockerPushCommand(t *testing.T) {
	config := configWith(dockerJob("push", "cimg/base:stable",
		runStep("", "docker build -t app . && docker push us-docker.pkg.dev/proj/app"),
	))
	patterns, _ := newTestService().Detect(config)

	require.NotEmpty(t, patterns)
	assert.Equal(t, models.PatternDockerPush, patterns[0].Kind)
	assert.Equal(t, "push", patterns[0].JobName)
	assert.Equal(t, 0, patterns[0].StepIndex)
}

func TestDetect_DockerPushOrb(t *testing.T) {
	config := configWith(dockerJob("push", "cimg/base:stable",
		orbStep("circleci/gcp-gcr@0.15.1/build-and-push-image"),
	))
	patterns, _ := newTestService().Detect(config)
	assert.Contains(t, kinds(patterns), models.PatternDockerPush)
}

func TestDetect_AirflowTrigger(t *testing.T) {
	cases := []struct {
		name string
		step models.StepSpec
	}{
		{"cloud function url", runStep("", "curl -X POST https://us-west1-proj.cloudfunctions.net/trigger-dag")},
		{"step name", runStep("Trigger Airflow DAG", "./scripts/deploy.sh")},
		{"underscored step name", runStep("trigger_airflow", "./scripts/deploy.sh")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := configWith(dockerJob("deploy", "cimg/python:3.11", tc.step))
			patterns, _ := newTestService().Detect(config)
			assert.Contains(t, kinds(patterns), models.PatternAirflowTrigger)
		})
	}
}

func TestDetect_IntegrationTest(t *testing.T) {
	cases := []struct {
		name    string
		jobName string
		step    models.StepSpec
	}{
		{"job name", "integration-tests", runStep("", "make check")},
		{"job name without separators", "run_integration_suite", runStep("", "make check")},
		{"pytest marker", "tests", runStep("", `pytest -m "integration" tests/`)},
		{"sql dry run", "tests", runStep("", "bq query --dry_run < query.sql")},
		{"sqlfluff", "lint", runStep("", "sqlfluff lint sql/")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := configWith(dockerJob(tc.jobName, "cimg/python:3.11", tc.step))
			patterns, _ := newTestService().Detect(config)
			assert.Contains(t, kinds(patterns), models.PatternIntegrationTest)
		})
	}
}

func TestDetect_PathFiltering(t *testing.T) {
	config := configWith(dockerJob("setup", "cimg/base:stable",
		orbStep("circleci/path-filtering@0.1.2/filter"),
	))
	patterns, _ := newTestService().Detect(config)
	assert.Contains(t, kinds(patterns), models.PatternPathFiltering)
}

func TestDetect_PathFilteringDynamicConfig(t *testing.T) {
	config := configWith(dockerJob("setup", "cimg/base:stable",
		runStep("", "circleci config pack generated/ > continue.yml"),
	))
	config.Setup = true
	patterns, _ := newTestService().Detect(config)
	assert.Contains(t, kinds(patterns), models.PatternPathFiltering)
}

func TestDetect_ContainerJob(t *testing.T) {
	config := configWith(dockerJob("build", "us-docker.pkg.dev/proj/private-builder:v3",
		runStep("", "make build"),
	))
	patterns, _ := newTestService().Detect(config)
	assert.Contains(t, kinds(patterns), models.PatternContainerJob)
}

func TestDetect_KnownBaseImagesAreNotContainerJobs(t *testing.T) {
	for _, image := range []string{"cimg/python:3.11", "circleci/node:18", "python:3.11-slim", "ubuntu:22.04"} {
		config := configWith(dockerJob("build", image, runStep("", "make build")))
		patterns, _ := newTestService().Detect(config)
		assert.NotContains(t, kinds(patterns), models.PatternContainerJob, "image %s", image)
	}
}

func TestDetect_PyPIPublishMustFix(t *testing.T) {
	config := configWith(dockerJob("release", "cimg/python:3.11",
		runStep("", "python -m build"),
		runStep("", "twine upload dist/*"),
	))
	patterns, _ := newTestService().Detect(config)

	var twine *models.DetectedPattern
	for i := range patterns {
		if patterns[i].Kind == models.PatternPyPIPublish && patterns[i].MustFix {
			twine = &patterns[i]
		}
	}
	require.NotNil(t, twine, "twine upload must be flagged must-fix")
	assert.Equal(t, 1, twine.StepIndex)
}

func TestDetect_GenericFallback(t *testing.T) {
	config := configWith(dockerJob("build", "cimg/go:1.22",
		models.StepSpec{Type: models.StepTypeCheckout},
		runStep("", "go test ./..."),
	))
	patterns, _ := newTestService().Detect(config)

	require.Len(t, patterns, 1)
	assert.Equal(t, models.PatternGeneric, patterns[0].Kind)
}

func TestDetect_OneStepMultipleRules(t *testing.T) {
	// A single command can satisfy several independent predicates
	config := configWith(dockerJob("integration-deploy", "cimg/base:stable",
		runStep("", "docker push gcr.io/proj/app && curl https://x.cloudfunctions.net/dag"),
	))
	patterns, _ := newTestService().Detect(config)

	ks := kinds(patterns)
	assert.Contains(t, ks, models.PatternIntegrationTest)
	assert.Contains(t, ks, models.PatternDockerPush)
	assert.Contains(t, ks, models.PatternAirflowTrigger)
}

func TestDetect_Deterministic(t *testing.T) {
	config := configWith(
		dockerJob("integration-tests", "cimg/python:3.11", runStep("", "pytest -m integration")),
		dockerJob("push", "cimg/base:stable", runStep("", "docker push gcr.io/proj/app")),
		dockerJob("release", "cimg/python:3.11", runStep("", "twine upload dist/*")),
	)
	svc := newTestService()

	first, firstWarnings := svc.Detect(config)
	for i := 0; i < 5; i++ {
		again, againWarnings := svc.Detect(config)
		assert.Equal(t, first, again)
		assert.Equal(t, firstWarnings, againWarnings)
	}
}

func TestDetect_WorkflowLevelOrbInvocation(t *testing.T) {
	// Setup pipelines invoke path-filtering/filter as a workflow job with no
	// local job definition
	config := &models.PipelineConfig{
		SourceName: "config.yml",
		Setup:      true,
		Workflows: []models.WorkflowSpec{{
			Name: "setup-workflow",
			Jobs: []models.WorkflowJob{{
				Name:  "path-filtering/filter",
				OrbID: "circleci/path-filtering@0.1.2/filter",
			}},
		}},
	}
	patterns, warnings := newTestService().Detect(config)

	require.Len(t, patterns, 1)
	assert.Equal(t, models.PatternPathFiltering, patterns[0].Kind)
	assert.Equal(t, "path-filtering/filter", patterns[0].JobName)
	assert.Empty(t, warnings, "orb invocations are not dangling job references")
}

func TestDetect_WorkflowLevelRegistryOrbInvocation(t *testing.T) {
	config := configWith(dockerJob("build", "cimg/base:stable", runStep("", "make")))
	config.Workflows = []models.WorkflowSpec{{
		Name: "deploy",
		Jobs: []models.WorkflowJob{
			{Name: "build"},
			{Name: "gcr/build-and-push-image", OrbID: "circleci/gcp-gcr@0.15.1/build-and-push-image", Requires: []string{"build"}},
		},
	}}
	patterns, warnings := newTestService().Detect(config)

	assert.Contains(t, kinds(patterns), models.PatternDockerPush)
	assert.Empty(t, warnings)
}

func TestDetect_WarnsOnUndefinedJobReference(t *testing.T) {
	config := configWith(dockerJob("build", "cimg/base:stable", runStep("", "make")))
	config.Workflows = []models.WorkflowSpec{{
		Name: "main",
		Jobs: []models.WorkflowJob{{Name: "build"}, {Name: "missing"}},
	}}
	_, warnings := newTestService().Detect(config)

	require.Len(t, warnings, 1)
	assert.Equal(t, "main", warnings[0].Workflow)
	assert.Contains(t, warnings[0].Message, `"missing"`)
}

func TestDetect_WarnsOnRequireOutsideWorkflow(t *testing.T) {
	config := configWith(
		dockerJob("build", "cimg/base:stable", runStep("", "make")),
		dockerJob("deploy", "cimg/base:stable", runStep("", "make deploy")),
	)
	config.Workflows = []models.WorkflowSpec{{
		Name: "deploy-only",
		Jobs: []models.WorkflowJob{{Name: "deploy", Requires: []string{"build"}}},
	}}
	_, warnings := newTestService().Detect(config)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "not part of the workflow")
}

func TestDetect_WarnsOnDependencyCycle(t *testing.T) {
	config := configWith(
		dockerJob("a", "cimg/base:stable", runStep("", "make")),
		dockerJob("b", "cimg/base:stable", runStep("", "make")),
	)
	config.Workflows = []models.WorkflowSpec{{
		Name: "cyclic",
		Jobs: []models.WorkflowJob{
			{Name: "a", Requires: []string{"b"}},
			{Name: "b", Requires: []string{"a"}},
		},
	}}
	patterns, warnings := newTestService().Detect(config)

	// Cycles warn but never abort detection
	assert.NotEmpty(t, patterns)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "dependency cycle")
	assert.Contains(t, warnings[0].Message, `"a"`)
}
