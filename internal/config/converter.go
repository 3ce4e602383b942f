package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/internal/logger"
	"github.com/Klnishant/DiamondPricePrediction/internal/pathutil"
	"github.com/Klnishant/DiamondPricePrediction/internal/persistence"
	"github.com/Klnishant/DiamondPricePrediction/internal/table"
)

// Default returns the configuration used when no file is given: the tables
// written by data ingestion and the artifact under artifacts/.
func Default() *RunConfig {
	return &RunConfig{
		Data: DataConfig{
			Train:         filepath.Join(persistence.DefaultArtifactDir, "train.csv"),
			Test:          filepath.Join(persistence.DefaultArtifactDir, "test.csv"),
			Delimiter:     ",",
			MissingValues: table.DefaultOptions().MissingValues,
		},
		Artifacts: ArtifactsConfig{
			Dir:          persistence.DefaultArtifactDir,
			Preprocessor: persistence.DefaultArtifactName,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ConvertToRunConfig overlays validated configuration data on the defaults.
// Keys absent from data keep their default value.
func ConvertToRunConfig(data map[string]any) (*RunConfig, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: configuration data is nil", errhandling.ErrInvalidConfig)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errhandling.ErrInvalidConfig, err)
	}

	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errhandling.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadRunConfig parses, validates and converts the configuration file at path.
// The returned Result carries parse and validation errors for reporting;
// the error is non-nil whenever the Result is not valid.
func LoadRunConfig(path string) (*RunConfig, *Result, error) {
	result := ParseConfig(path)
	if !result.IsValid() {
		return nil, result, fmt.Errorf("%w: %s: %d error(s), first: %v",
			errhandling.ErrInvalidConfig, path, len(result.AllErrors()), result.AllErrors()[0])
	}

	cfg, err := ConvertToRunConfig(result.Data)
	if err != nil {
		return nil, result, err
	}

	logger.Debug("configuration loaded",
		"path", path,
		"format", result.Format,
	)
	return cfg, result, nil
}

// Validate checks the settings that the schema cannot, after flags and
// environment overrides have been applied.
func (c *RunConfig) Validate() error {
	if err := pathutil.ValidateFilePath(c.Data.Train); err != nil {
		return fmt.Errorf("%w: data.train: %v", errhandling.ErrInvalidConfig, err)
	}
	if err := pathutil.ValidateFilePath(c.Data.Test); err != nil {
		return fmt.Errorf("%w: data.test: %v", errhandling.ErrInvalidConfig, err)
	}
	if utf8.RuneCountInString(c.Data.Delimiter) != 1 {
		return fmt.Errorf("%w: data.delimiter must be a single character, got %q",
			errhandling.ErrInvalidConfig, c.Data.Delimiter)
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("%w: artifacts.dir cannot be empty", errhandling.ErrInvalidConfig)
	}
	if err := pathutil.ValidateFileName(c.Artifacts.Preprocessor, ".json"); err != nil {
		return fmt.Errorf("%w: artifacts.preprocessor: %v", errhandling.ErrInvalidConfig, err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", errhandling.ErrInvalidConfig, err)
	}
	if _, err := logger.ParseFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("%w: logging.format: %v", errhandling.ErrInvalidConfig, err)
	}
	return nil
}

// TableOptions returns the table reading options.
func (c *RunConfig) TableOptions() table.Options {
	opts := table.DefaultOptions()
	if r, _ := utf8.DecodeRuneInString(c.Data.Delimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	if c.Data.MissingValues != nil {
		opts.MissingValues = make([]string, len(c.Data.MissingValues))
		copy(opts.MissingValues, c.Data.MissingValues)
	}
	return opts
}

// ArtifactPath returns the full path of the fitted transform artifact.
func (c *RunConfig) ArtifactPath() string {
	return persistence.NewArtifactStore(c.Artifacts.Dir).Path(c.Artifacts.Preprocessor)
}
