package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

func newTestService() *Service {
	return NewService(arbor.NewLogger())
}

const dockerPushConfig = `version: 2.1
jobs:
  build-and-push:
    docker:
      - image: cimg/python:3.11
    steps:
      - checkout
      - run:
          name: Build and push image
          command: |
            docker build -t us-docker.pkg.dev/proj/app:latest .
            docker push us-docker.pkg.dev/proj/app:latest
workflows:
  deploy:
    jobs:
      - build-and-push:
          filters:
            branches:
              only: main
`

func TestAnalyze_DockerPushPlan(t *testing.T) {
	plan, err := newTestService().Analyze("config.yml", dockerPushConfig)
	require.NoError(t, err)

	assert.Equal(t, models.ComplexityModerate, plan.Complexity)
	require.Len(t, plan.Patterns, 1)
	assert.Equal(t, models.PatternDockerPush, plan.Patterns[0].Kind)
	assert.Equal(t, "build-and-push", plan.Patterns[0].JobName)
	assert.Equal(t, []string{"GCP_SERVICE_ACCOUNT_JSON"}, plan.Secrets)
	require.Len(t, plan.InfraPRs, 1)
	assert.Equal(t, "data-artifacts/tf/prod/locals.tf", plan.InfraPRs[0].File)
}

func TestAnalyze_Deterministic(t *testing.T) {
	svc := newTestService()

	first, err := svc.Analyze("config.yml", dockerPushConfig)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Analyze("config.yml", dockerPushConfig)
		require.NoError(t, err)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(againJSON))
	}
}

func TestAnalyze_SetupPipelinePathFiltering(t *testing.T) {
	// The canonical setup config has no local jobs at all; the orb is
	// invoked straight from the workflow
	text := `version: 2.1
setup: true
orbs:
  path-filtering: circleci/path-filtering@0.1.2
workflows:
  setup-workflow:
    jobs:
      - path-filtering/filter:
          base-revision: main
          config-path: .circleci/continue.yml
`
	plan, err := newTestService().Analyze("config.yml", text)
	require.NoError(t, err)

	assert.True(t, plan.HasKind(models.PatternPathFiltering))
	assert.Equal(t, models.ComplexityModerate, plan.Complexity)
	assert.Empty(t, plan.Warnings)
}

func TestAnalyze_ParseErrorSurfaced(t *testing.T) {
	_, err := newTestService().Analyze("broken.yml", "jobs: [unclosed")
	require.Error(t, err)
	assert.True(t, models.IsParseError(err))
}

func TestAnalyzeBatch_IsolatesFailures(t *testing.T) {
	sources := []Source{
		{Path: "a.yml", Text: dockerPushConfig},
		{Path: "b.yml", Text: "jobs: [unclosed"},
		{Path: "c.yml", Text: "version: 2.1\njobs: {}\n"},
	}
	reports := newTestService().AnalyzeBatch(sources)

	require.Len(t, reports, 3)
	assert.Equal(t, "a.yml", reports[0].Path)
	assert.False(t, reports[0].Failed())
	require.NotNil(t, reports[0].Plan)

	assert.True(t, reports[1].Failed())
	assert.True(t, models.IsParseError(reports[1].Err))
	assert.Nil(t, reports[1].Plan)

	assert.False(t, reports[2].Failed())
	assert.Equal(t, models.ComplexitySimple, reports[2].Plan.Complexity)
}

func TestAnalyzeBatch_EmptyInput(t *testing.T) {
	reports := newTestService().AnalyzeBatch(nil)
	assert.Empty(t, reports)
}
