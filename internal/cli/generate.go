package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mozilla/circleci-to-gha/internal/common"
	"github.com/mozilla/circleci-to-gha/internal/interfaces"
	"github.com/mozilla/circleci-to-gha/internal/models"
	"github.com/mozilla/circleci-to-gha/internal/services/analyzer"
	"github.com/mozilla/circleci-to-gha/internal/services/llm"
	"github.com/mozilla/circleci-to-gha/internal/services/render"
	"github.com/mozilla/circleci-to-gha/internal/storage"
	"github.com/mozilla/circleci-to-gha/internal/workspace"
)

func newGenerateCmd() *cobra.Command {
	var (
		configPath     string
		outputDir      string
		repoName       string
		dryRun         bool
		removeCircleCI bool
		noCache        bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate GitHub Actions workflows from CircleCI configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := workspace.DiscoverConfigs(configPath)
			if err != nil {
				return err
			}
			repo := repoNameOrDefault(repoName)

			var cache *storage.GenerationCache
			if appConfig.Cache.Enabled && !noCache {
				cache, err = storage.OpenGenerationCache(appConfig.Cache.Path, logger)
				if err != nil {
					// The cache is an optimization; generation works without it
					logger.Warn().Err(err).Msg("Generation cache unavailable")
				} else {
					defer cache.Close()
				}
			}

			generator := llm.NewService(appConfig, logger)
			defer generator.Close()
			svc := analyzer.NewService(logger)

			failures := 0
			for _, path := range paths {
				if err := generateOne(cmd, svc, generator, cache, path, repo, outputDir, dryRun); err != nil {
					failures++
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				}
			}
			if failures == len(paths) {
				return fmt.Errorf("workflow generation failed for all %d config file(s)", failures)
			}

			if removeCircleCI && !dryRun && failures == 0 {
				if err := workspace.RemoveCircleCIDir(paths[0], logger); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"CircleCI config file or directory (default: .circleci/config.yml)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "",
		"Output directory for workflows (default: .github/workflows beside the config)")
	cmd.Flags().StringVar(&repoName, "repo", "",
		"Target repository name (default: working directory name)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Print generated workflows without saving")
	cmd.Flags().BoolVar(&removeCircleCI, "remove-circleci", false,
		"Remove the .circleci directory after generating workflows")
	cmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Skip the local generation cache")
	return cmd
}

// generateOne runs the full pipeline for a single config file: analyze,
// generate (or reuse a cached result), then print or write the workflows
func generateOne(cmd *cobra.Command, svc *analyzer.Service, generator interfaces.GenerationService, cache *storage.GenerationCache, path, repo, outputDir string, dryRun bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(data)

	plan, err := svc.Analyze(path, text)
	if err != nil {
		return err
	}

	request := render.BuildGenerationRequest(text, plan, repo)

	cacheKey := storage.CacheKey(generator.Provider(), activeModel(), text)
	files, hit := cachedFiles(cache, cacheKey)
	if !hit {
		files, err = generator.GenerateWorkflows(cmd.Context(), request)
		if err != nil {
			return err
		}
		if cache != nil {
			if putErr := cache.Put(cacheKey, files); putErr != nil {
				logger.Warn().Err(putErr).Msg("Failed to cache generation result")
			}
		}
	}

	if dryRun {
		fmt.Printf("# Generated workflows for %s (dry-run)\n", path)
		for name, content := range files {
			fmt.Printf("\n--- %s ---\n%s\n", workspace.NormalizeFilename(name), content)
		}
		return nil
	}

	dir := outputDir
	if dir == "" {
		dir = workspace.DefaultOutputDir(path)
	}
	saved, err := workspace.SaveWorkflows(files, dir, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d workflow file(s) to %s\n", len(saved), dir)
	return nil
}

func cachedFiles(cache *storage.GenerationCache, key string) (models.WorkflowFiles, bool) {
	if cache == nil {
		return nil, false
	}
	files, ok, err := cache.Get(key)
	if err != nil {
		logger.Warn().Err(err).Msg("Generation cache read failed")
		return nil, false
	}
	return files, ok
}

func activeModel() string {
	if appConfig.LLM.DefaultProvider == common.LLMProviderGemini {
		return appConfig.Gemini.Model
	}
	return appConfig.Claude.Model
}
