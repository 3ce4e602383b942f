package runtime

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/internal/logger"
	"github.com/Klnishant/DiamondPricePrediction/internal/persistence"
	"github.com/Klnishant/DiamondPricePrediction/internal/table"
	"github.com/Klnishant/DiamondPricePrediction/internal/transform"
)

// ApplyResult is the outcome of applying a persisted transform to a new table.
type ApplyResult struct {
	RunID string
	// Matrix holds the transformed features, plus the target as last column when the input has one
	Matrix *mat.Dense
	// Columns names the columns of Matrix
	Columns []string
	// HasTarget is true when the input carried the target column
	HasTarget bool
}

// ApplyArtifact loads the fitted transform at artifactPath and applies it to
// the table at inputPath. The identifier column is dropped if present; the
// target column, if present, is appended unchanged as the last column.
func ApplyArtifact(artifactPath, inputPath string, opts table.Options) (*ApplyResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	runCtx := logger.RunContext{RunID: runID}

	result, stage, err := applyArtifact(runID, artifactPath, inputPath, opts)
	if err != nil {
		var wrapped error
		if stage == errhandling.StagePersist {
			wrapped = errhandling.NewPersistenceError(err)
		} else {
			wrapped = errhandling.Wrap(stage, err)
		}
		te := wrapped.(*errhandling.TransformError)
		logger.LogError("apply failed", logger.ErrorContext{
			RunID:         runID,
			Stage:         string(te.Stage),
			Column:        te.Column,
			Row:           te.Row,
			ErrorCategory: string(te.Category),
			ErrorMessage:  err.Error(),
			Err:           err,
			Source:        inputPath,
			Duration:      time.Since(start),
		})
		return nil, te
	}

	logger.Info("transform applied",
		slog.String("run_id", runID),
		slog.String("artifact", artifactPath),
		slog.String("input", inputPath),
		slog.Int("rows", result.Matrix.RawMatrix().Rows),
		slog.Bool("has_target", result.HasTarget),
		slog.Duration("duration", time.Since(start)),
	)
	logger.LogRunEnd(runCtx, StatusSuccess, time.Since(start))
	return result, nil
}

func applyArtifact(runID, artifactPath, inputPath string, opts table.Options) (*ApplyResult, errhandling.Stage, error) {
	fitted, err := persistence.LoadFile(artifactPath)
	if err != nil {
		return nil, errhandling.StagePersist, err
	}

	tbl, err := table.Load(inputPath, opts)
	if err != nil {
		return nil, errhandling.StageRead, err
	}

	var target []float64
	if tbl.Has(fitted.Target) {
		target, err = tbl.TargetValues(fitted.Target)
		if err != nil {
			return nil, errhandling.StageSplit, err
		}
		if tbl, err = tbl.Drop(fitted.Target); err != nil {
			return nil, errhandling.StageSplit, err
		}
	}
	if fitted.Identifier != "" && tbl.Has(fitted.Identifier) {
		if tbl, err = tbl.Drop(fitted.Identifier); err != nil {
			return nil, errhandling.StageSplit, err
		}
	}

	m, err := transform.Apply(fitted, tbl)
	if err != nil {
		return nil, errhandling.StageApplyTest, err
	}

	columns := fitted.OutputColumns()
	if target != nil {
		if m, err = transform.AppendTarget(m, target); err != nil {
			return nil, errhandling.StageAssemble, err
		}
		columns = append(columns, fitted.Target)
	}

	return &ApplyResult{RunID: runID, Matrix: m, Columns: columns, HasTarget: target != nil}, "", nil
}
