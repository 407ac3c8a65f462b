// Package workspace is the file IO layer around the analysis core: it
// discovers CircleCI config files, writes generated workflow files, and
// cleans up the .circleci directory after a migration. The core never
// touches the filesystem itself.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
)

// DefaultConfigPath is the conventional CircleCI config location
const DefaultConfigPath = ".circleci/config.yml"

// DiscoverConfigs resolves a config path argument into the list of YAML
// files to analyze, in lexical order. A file path yields itself; a
// directory yields every *.yml / *.yaml inside it.
func DiscoverConfigs(path string) ([]string, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory %s: %w", path, err)
	}

	var configs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yml" || ext == ".yaml" {
			configs = append(configs, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(configs)

	if len(configs) == 0 {
		return nil, fmt.Errorf("no YAML config files found under %s", path)
	}
	return configs, nil
}

// NormalizeFilename strips any leading path components the generation
// service may have included and forces a YAML extension
func NormalizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
		name += ".yml"
	}
	return name
}

// DefaultOutputDir returns .github/workflows beside the .circleci
// directory the config lives in
func DefaultOutputDir(configPath string) string {
	repoRoot := filepath.Dir(filepath.Dir(configPath))
	return filepath.Join(repoRoot, ".github", "workflows")
}

// SaveWorkflows writes generated workflow files to outputDir, creating it
// when missing. Returns the files actually written, keyed by their
// normalized names.
func SaveWorkflows(files models.WorkflowFiles, outputDir string, logger arbor.ILogger) (models.WorkflowFiles, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	saved := make(models.WorkflowFiles, len(files))
	for name, content := range files {
		normalized := NormalizeFilename(name)
		target := filepath.Join(outputDir, normalized)
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write workflow file %s: %w", target, err)
		}
		saved[normalized] = content
		logger.Info().Str("file", target).Msg("Workflow file written")
	}
	return saved, nil
}

// RemoveCircleCIDir deletes the .circleci directory containing configPath.
// Refuses to delete anything not actually named .circleci.
func RemoveCircleCIDir(configPath string, logger arbor.ILogger) error {
	dir := filepath.Dir(configPath)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if filepath.Base(abs) != ".circleci" {
		return fmt.Errorf("refusing to remove %s: not a .circleci directory", abs)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("failed to remove %s: %w", abs, err)
	}
	logger.Info().Str("dir", abs).Msg("Removed CircleCI config directory")
	return nil
}
