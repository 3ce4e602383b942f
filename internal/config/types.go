// Package config provides functionality for parsing and validating
// preprocessing run configuration files (JSON/YAML).
package config

import (
	"fmt"
	"strings"
)

// ParseResult contains the result of parsing a configuration file.
type ParseResult struct {
	// Data contains the parsed configuration as a map
	Data map[string]any
	// Errors contains any parsing errors encountered
	Errors []ParseError
	// FilePath is the path to the parsed file (empty if parsed from string)
	FilePath string
	// Format indicates the detected format (json, yaml)
	Format string
}

// IsValid returns true if no parsing errors occurred.
func (r *ParseResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ParseError represents a parsing error with location information.
type ParseError struct {
	// Path is the file path where the error occurred
	Path string
	// Line is the line number (1-based, 0 if unknown)
	Line int
	// Column is the column number (1-based, 0 if unknown)
	Column int
	// Message is the error message
	Message string
	// Type categorizes the error (syntax, io, format)
	Type string
}

// Error implements the error interface.
func (e ParseError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&sb, ", column %d", e.Column)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	// Path is the JSON pointer of the offending value (e.g. "/logging/level")
	Path string
	// Type is the error type (required, type, enum, pattern, ...)
	Type string
	// Message is the error message
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Result contains the combined result of parsing and validation.
type Result struct {
	Data             map[string]any
	ParseErrors      []ParseError
	ValidationErrors []ValidationError
	FilePath         string
	Format           string
}

// IsValid returns true if no errors occurred.
func (r *Result) IsValid() bool {
	return len(r.ParseErrors) == 0 && len(r.ValidationErrors) == 0
}

// AllErrors returns parsing and validation errors as a single slice.
func (r *Result) AllErrors() []error {
	errs := make([]error, 0, len(r.ParseErrors)+len(r.ValidationErrors))
	for _, e := range r.ParseErrors {
		errs = append(errs, e)
	}
	for _, e := range r.ValidationErrors {
		errs = append(errs, e)
	}
	return errs
}

// Parse error types.
const (
	ErrorTypeIO     = "io"
	ErrorTypeSyntax = "syntax"
	ErrorTypeFormat = "format"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// RunConfig is a fully resolved preprocessing run configuration.
type RunConfig struct {
	Data      DataConfig      `json:"data" yaml:"data"`
	Artifacts ArtifactsConfig `json:"artifacts" yaml:"artifacts"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// DataConfig locates and describes the input tables.
type DataConfig struct {
	Train         string   `json:"train" yaml:"train"`
	Test          string   `json:"test" yaml:"test"`
	Delimiter     string   `json:"delimiter" yaml:"delimiter"`
	MissingValues []string `json:"missingValues" yaml:"missingValues"`
	// RowFilter is an optional boolean expression applied to both tables before the split
	RowFilter string `json:"rowFilter,omitempty" yaml:"rowFilter,omitempty"`
}

// ArtifactsConfig locates persisted outputs.
type ArtifactsConfig struct {
	Dir          string `json:"dir" yaml:"dir"`
	Preprocessor string `json:"preprocessor" yaml:"preprocessor"`
	// Export is an optional directory receiving the transformed arrays as CSV
	Export string `json:"export,omitempty" yaml:"export,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}
