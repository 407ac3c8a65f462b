package models

import (
	"errors"
	"fmt"
)

// ParseError reports malformed source text. Fatal for the single file,
// non-fatal for a batch.
type ParseError struct {
	// SourceName identifies the file that failed to parse
	SourceName string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.SourceName, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps a YAML syntax failure with its originating file
func NewParseError(sourceName string, err error) *ParseError {
	return &ParseError{SourceName: sourceName, Err: err}
}

// IsParseError reports whether err is (or wraps) a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// GenerationError reports a failure of the external generation service.
// Plan and checklist output for the file remain valid when this occurs.
type GenerationError struct {
	// Provider names the generation backend that failed
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError wraps a provider failure
func NewGenerationError(provider string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Err: err}
}
