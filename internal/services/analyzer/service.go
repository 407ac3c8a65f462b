// Package analyzer wires the parser, detector, and planner into the
// single-pass analysis pipeline: Load -> Detect -> Build Plan. It performs
// no file or network IO; callers hand it raw config text.
package analyzer

import (
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/models"
	"github.com/mozilla/circleci-to-gha/internal/services/detector"
	"github.com/mozilla/circleci-to-gha/internal/services/parser"
	"github.com/mozilla/circleci-to-gha/internal/services/planner"
)

// Source is one config document to analyze
type Source struct {
	// Path identifies the document in reports and plans
	Path string
	// Text is the raw YAML content
	Text string
}

// Service runs the full analysis pipeline over config text
type Service struct {
	parser   *parser.Service
	detector *detector.Service
	planner  *planner.Service
	logger   arbor.ILogger
}

// NewService creates an analyzer with its parser, detector, and planner
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		parser:   parser.NewService(logger),
		detector: detector.NewService(logger),
		planner:  planner.NewService(logger),
		logger:   logger,
	}
}

// Analyze produces the migration plan for one config document. The only
// failure mode is a *models.ParseError on invalid YAML; detection and plan
// building are total.
func (s *Service) Analyze(sourceName, text string) (*models.MigrationPlan, error) {
	config, err := s.parser.Parse(sourceName, text)
	if err != nil {
		return nil, err
	}
	patterns, warnings := s.detector.Detect(config)
	return s.planner.Build(sourceName, patterns, warnings), nil
}

// AnalyzeBatch analyzes each source independently. A parse failure is
// recorded on that file's report and never aborts the remaining files.
// Report order follows the input order.
func (s *Service) AnalyzeBatch(sources []Source) []models.FileReport {
	reports := make([]models.FileReport, 0, len(sources))
	for _, src := range sources {
		plan, err := s.Analyze(src.Path, src.Text)
		if err != nil {
			s.logger.Warn().Str("path", src.Path).Err(err).Msg("Config analysis failed")
			reports = append(reports, models.FileReport{Path: src.Path, Err: err})
			continue
		}
		reports = append(reports, models.FileReport{Path: src.Path, Plan: plan})
	}
	return reports
}
