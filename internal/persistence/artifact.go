// Package persistence stores fitted transforms as JSON artifacts so that
// training and serving code can reload them without refitting.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/internal/logger"
	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

const (
	// DefaultArtifactDir is the default directory for artifacts.
	DefaultArtifactDir = "artifacts"

	// DefaultArtifactName is the default file name of the fitted transform.
	DefaultArtifactName = "preprocessor.json"
)

// ErrInvalidName is returned when an artifact name is empty.
var ErrInvalidName = errors.New("artifact name is required")

// ArtifactStore persists fitted transforms under a base directory.
// Writes are atomic: readers see either the previous artifact or the new one.
type ArtifactStore struct {
	dir string
	mu  sync.RWMutex
}

// NewArtifactStore creates a store rooted at dir.
// If dir is empty, DefaultArtifactDir is used.
func NewArtifactStore(dir string) *ArtifactStore {
	if dir == "" {
		dir = DefaultArtifactDir
	}
	return &ArtifactStore{dir: dir}
}

// Dir returns the base directory.
func (s *ArtifactStore) Dir() string { return s.dir }

// Path returns the file path of the named artifact.
func (s *ArtifactStore) Path(name string) string {
	// Sanitize name to prevent directory traversal
	return filepath.Join(s.dir, filepath.Base(name))
}

// Save writes fitted under name and returns the written path.
func (s *ArtifactStore) Save(name string, fitted *preprocess.FittedTransform) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	if err := SaveFile(path, fitted); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the named artifact.
func (s *ArtifactStore) Load(name string) (*preprocess.FittedTransform, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return LoadFile(s.Path(name))
}

// Exists checks if the named artifact exists.
func (s *ArtifactStore) Exists(name string) (bool, error) {
	if name == "" {
		return false, ErrInvalidName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking artifact file: %w", err)
	}
	return true, nil
}

// SaveFile writes fitted to path as indented JSON.
// Uses a temp file in the same directory and a rename, creating the
// directory if it doesn't exist.
func SaveFile(path string, fitted *preprocess.FittedTransform) error {
	if fitted == nil {
		return errhandling.ErrNilArtifact
	}
	if err := Validate(fitted); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("failed to create artifact directory",
			"path", dir,
			"error", err.Error(),
		)
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(fitted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}

	// Concurrent writers each get their own temp file; the last rename wins.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp artifact file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		logger.Warn("failed to rename artifact file",
			"temp_path", tempPath,
			"final_path", path,
			"error", err.Error(),
		)
		return fmt.Errorf("renaming artifact file: %w", err)
	}

	logger.Debug("artifact written",
		"path", path,
		"bytes", len(data),
		"columns", len(fitted.OutputColumns()),
	)
	return nil
}

// LoadFile reads and validates the artifact at path.
func LoadFile(path string) (*preprocess.FittedTransform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact file: %w", err)
	}

	var fitted preprocess.FittedTransform
	if err := json.Unmarshal(data, &fitted); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errhandling.ErrInvalidArtifact, path, err)
	}
	if err := Validate(&fitted); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("artifact loaded",
		"path", path,
		"version", fitted.Version,
		"columns", len(fitted.OutputColumns()),
	)
	return &fitted, nil
}

// Validate checks that fitted carries every statistic its stages need.
func Validate(fitted *preprocess.FittedTransform) error {
	if fitted == nil {
		return errhandling.ErrNilArtifact
	}
	if fitted.Version != preprocess.ArtifactVersion {
		return fmt.Errorf("%w: %d (supported: %d)", errhandling.ErrArtifactVersion, fitted.Version, preprocess.ArtifactVersion)
	}
	if len(fitted.FeatureColumns) == 0 {
		return fmt.Errorf("%w: no feature columns", errhandling.ErrInvalidArtifact)
	}

	features := make(map[string]bool, len(fitted.FeatureColumns))
	for _, c := range fitted.FeatureColumns {
		features[c] = true
	}

	outputs := 0
	for _, b := range fitted.Branches {
		for _, c := range b.Columns {
			if !features[c.Name] {
				return fmt.Errorf("%w: column %q is not a feature column", errhandling.ErrInvalidArtifact, c.Name)
			}
			for i, st := range c.Stages {
				if err := validateStage(st); err != nil {
					return fmt.Errorf("%w: column %q stage %d: %v", errhandling.ErrInvalidArtifact, c.Name, i, err)
				}
			}
			outputs++
		}
	}
	if outputs != len(fitted.FeatureColumns) {
		return fmt.Errorf("%w: %d fitted columns for %d feature columns",
			errhandling.ErrInvalidArtifact, outputs, len(fitted.FeatureColumns))
	}
	return nil
}

func validateStage(st preprocess.FittedStage) error {
	switch st.Op {
	case preprocess.OpImputeMedian:
		if st.Median == nil {
			return errors.New("missing median")
		}
	case preprocess.OpImputeMode:
		if st.Mode == nil {
			return errors.New("missing mode")
		}
	case preprocess.OpOrdinalEncode:
		if len(st.Categories) == 0 {
			return errors.New("missing categories")
		}
	case preprocess.OpStandardize:
		if st.Mean == nil || st.Std == nil {
			return errors.New("missing mean or std")
		}
		if *st.Std == 0 {
			return errors.New("zero std")
		}
	default:
		return fmt.Errorf("unknown operation %q", st.Op)
	}
	return nil
}
