package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

func TestNormalizeFilename(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"ci.yml", "ci.yml"},
		{"deploy.yaml", "deploy.yaml"},
		{"ci", "ci.yml"},
		{".github/workflows/ci.yml", "ci.yml"},
		{"  ci.yml  ", "ci.yml"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, NormalizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestDiscoverConfigs_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2.1\n"), 0644))

	configs, err := DiscoverConfigs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, configs)
}

func TestDiscoverConfigs_DirectoryLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.yml", "alpha.yaml", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x: 1\n"), 0644))
	}

	configs, err := DiscoverConfigs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "alpha.yaml"),
		filepath.Join(dir, "zeta.yml"),
	}, configs)
}

func TestDiscoverConfigs_EmptyDirectoryIsError(t *testing.T) {
	_, err := DiscoverConfigs(t.TempDir())
	assert.Error(t, err)
}

func TestDiscoverConfigs_MissingPathIsError(t *testing.T) {
	_, err := DiscoverConfigs(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestDefaultOutputDir(t *testing.T) {
	got := DefaultOutputDir(filepath.Join("repo", ".circleci", "config.yml"))
	assert.Equal(t, filepath.Join("repo", ".github", "workflows"), got)
}

func TestSaveWorkflows(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), ".github", "workflows")
	files := models.WorkflowFiles{
		"ci.yml": "name: CI\n",
		"deploy": "name: Deploy\n",
	}

	saved, err := SaveWorkflows(files, outputDir, arbor.NewLogger())
	require.NoError(t, err)

	require.Len(t, saved, 2)
	assert.Contains(t, saved, "ci.yml")
	assert.Contains(t, saved, "deploy.yml")

	content, err := os.ReadFile(filepath.Join(outputDir, "deploy.yml"))
	require.NoError(t, err)
	assert.Equal(t, "name: Deploy\n", string(content))
}

func TestRemoveCircleCIDir(t *testing.T) {
	repo := t.TempDir()
	circleDir := filepath.Join(repo, ".circleci")
	require.NoError(t, os.MkdirAll(circleDir, 0755))
	configPath := filepath.Join(circleDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 2.1\n"), 0644))

	require.NoError(t, RemoveCircleCIDir(configPath, arbor.NewLogger()))
	_, err := os.Stat(circleDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveCircleCIDir_RefusesOtherDirectories(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 2.1\n"), 0644))

	err := RemoveCircleCIDir(configPath, arbor.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to remove")

	_, statErr := os.Stat(configPath)
	assert.NoError(t, statErr, "directory must be untouched")
}
