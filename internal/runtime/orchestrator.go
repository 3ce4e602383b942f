// Package runtime provides the transform orchestrator.
// It runs one preprocessing pass end to end: read both tables, split off the
// target, fit the transform on the training features, apply it to the test
// features, re-attach the target and persist the fitted transform.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/Klnishant/DiamondPricePrediction/internal/builder"
	"github.com/Klnishant/DiamondPricePrediction/internal/config"
	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/internal/logger"
	"github.com/Klnishant/DiamondPricePrediction/internal/persistence"
	"github.com/Klnishant/DiamondPricePrediction/internal/table"
	"github.com/Klnishant/DiamondPricePrediction/internal/transform"
	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

// Run status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// headRows is the number of rows of each input logged at debug level.
const headRows = 5

// Options configures an Orchestrator.
type Options struct {
	// ArtifactDir is the directory receiving the fitted transform
	ArtifactDir string
	// ArtifactName is the file name of the fitted transform
	ArtifactName string
	// Table controls how input tables are read
	Table table.Options
	// RowFilter is an optional expression selecting the rows of both tables
	RowFilter string
	// ExportDir, when set, receives the transformed arrays as train.csv and test.csv
	ExportDir string
}

// DefaultOptions returns options writing artifacts/preprocessor.json.
func DefaultOptions() Options {
	return Options{
		ArtifactDir:  persistence.DefaultArtifactDir,
		ArtifactName: persistence.DefaultArtifactName,
		Table:        table.DefaultOptions(),
	}
}

// OptionsFromConfig derives orchestrator options from a run configuration.
func OptionsFromConfig(cfg *config.RunConfig) Options {
	return Options{
		ArtifactDir:  cfg.Artifacts.Dir,
		ArtifactName: cfg.Artifacts.Preprocessor,
		Table:        cfg.TableOptions(),
		RowFilter:    cfg.Data.RowFilter,
		ExportDir:    cfg.Artifacts.Export,
	}
}

// Orchestrator runs preprocessing passes. It holds no per-run state, so
// repeated and concurrent runs are independent.
type Orchestrator struct {
	opts  Options
	store *persistence.ArtifactStore
}

// NewOrchestrator creates an orchestrator. Empty artifact settings fall back to the defaults.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.ArtifactName == "" {
		opts.ArtifactName = persistence.DefaultArtifactName
	}
	return &Orchestrator{
		opts:  opts,
		store: persistence.NewArtifactStore(opts.ArtifactDir),
	}
}

// ArtifactPath returns where Run persists the fitted transform.
func (o *Orchestrator) ArtifactPath() string {
	return o.store.Path(o.opts.ArtifactName)
}

// Run executes a preprocessing pass with a background context.
//
// For cancellation support, use RunWithContext instead.
func (o *Orchestrator) Run(trainPath, testPath string) (*preprocess.RunResult, error) {
	return o.RunWithContext(context.Background(), trainPath, testPath)
}

// run carries the state of one pass between stages.
type run struct {
	id      string
	started time.Time
	metrics logger.RunMetrics

	train, test *table.Split
	spec        preprocess.TransformSpec
	fitted      *preprocess.FittedTransform
	trainX      *mat.Dense
	testX       *mat.Dense
}

// RunWithContext executes a preprocessing pass.
//
// Execution flow:
//  1. Read the train and test tables
//  2. Apply the optional row filter to both
//  3. Split each into features and target
//  4. Build the transform, fit it on training features only
//  5. Apply the fitted transform to the test features
//  6. Append the target as the last column of both arrays
//  7. Persist the fitted transform
//
// Any failure is returned as a *errhandling.TransformError and nothing is
// persisted. The context is checked between stages.
func (o *Orchestrator) RunWithContext(ctx context.Context, trainPath, testPath string) (*preprocess.RunResult, error) {
	r := &run{id: uuid.NewString(), started: time.Now()}
	runCtx := logger.RunContext{RunID: r.id}
	logger.LogRunStart(runCtx, trainPath, testPath)

	steps := []struct {
		stage errhandling.Stage
		do    func() error
	}{
		{errhandling.StageRead, func() error { return o.read(r, trainPath, testPath) }},
		{errhandling.StageBuild, func() error { return o.build(r) }},
		{errhandling.StageFit, func() error { return o.fit(r) }},
		{errhandling.StageApplyTest, func() error { return o.applyTest(r) }},
		{errhandling.StageAssemble, func() error { return o.assemble(r) }},
		{errhandling.StagePersist, func() error { return o.persist(r) }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, o.fail(r, step.stage, err)
		}
		if err := step.do(); err != nil {
			return nil, o.fail(r, step.stage, err)
		}
	}

	r.metrics.TotalDuration = time.Since(r.started)
	r.metrics.OutputColumns = len(r.fitted.OutputColumns()) + 1
	logger.LogMetrics(runCtx, r.metrics)
	logger.LogRunEnd(runCtx, StatusSuccess, r.metrics.TotalDuration)

	return &preprocess.RunResult{
		RunID:        r.id,
		Train:        r.trainX,
		Test:         r.testX,
		ArtifactPath: o.ArtifactPath(),
		Columns:      append(r.fitted.OutputColumns(), r.fitted.Target),
		Summary:      logger.FormatMetricsHuman(r.metrics),
	}, nil
}

// fail wraps err for stage, logs it and ends the run.
func (o *Orchestrator) fail(r *run, stage errhandling.Stage, err error) error {
	wrapped := errhandling.Wrap(stage, err)
	if stage == errhandling.StagePersist && !errhandling.IsPersistenceError(wrapped) {
		wrapped = errhandling.NewPersistenceError(err)
	}

	te := wrapped.(*errhandling.TransformError)
	logger.LogError("preprocessing failed", logger.ErrorContext{
		RunID:         r.id,
		Stage:         string(te.Stage),
		Column:        te.Column,
		Row:           te.Row,
		ErrorCategory: string(te.Category),
		ErrorMessage:  err.Error(),
		Err:           err,
		Duration:      time.Since(r.started),
	})
	logger.LogRunEnd(logger.RunContext{RunID: r.id}, StatusError, time.Since(r.started))
	return te
}

// read loads both tables, filters them and splits off the target.
// A row filter failure is reported under the filter stage, a split failure under split.
func (o *Orchestrator) read(r *run, trainPath, testPath string) error {
	start := time.Now()
	stageCtx := logger.RunContext{RunID: r.id, Stage: string(errhandling.StageRead)}
	logger.LogStageStart(stageCtx)

	trainTbl, err := table.Load(trainPath, o.opts.Table)
	if err != nil {
		return err
	}
	testTbl, err := table.Load(testPath, o.opts.Table)
	if err != nil {
		return err
	}
	r.metrics.ReadDuration = time.Since(start)

	logger.Info("read complete",
		slog.String("run_id", r.id),
		slog.String("train_path", trainPath),
		slog.String("test_path", testPath),
		slog.Int("train_rows", trainTbl.Rows()),
		slog.Int("test_rows", testTbl.Rows()),
	)
	logger.Debug("train head", slog.String("run_id", r.id), slog.String("head", trainTbl.Head(headRows)))
	logger.Debug("test head", slog.String("run_id", r.id), slog.String("head", testTbl.Head(headRows)))

	trainTbl, testTbl, err = o.filter(r, trainTbl, testTbl)
	if err != nil {
		return errhandling.Wrap(errhandling.StageFilter, err)
	}

	r.train, err = trainTbl.SplitTarget(builder.TargetColumn, builder.IdentifierColumn)
	if err != nil {
		return errhandling.Wrap(errhandling.StageSplit, err)
	}
	r.test, err = testTbl.SplitTarget(builder.TargetColumn, builder.IdentifierColumn)
	if err != nil {
		return errhandling.Wrap(errhandling.StageSplit, err)
	}

	r.metrics.TrainRows = r.train.Features.Rows()
	r.metrics.TestRows = r.test.Features.Rows()
	logger.LogStageEnd(stageCtx, r.metrics.TrainRows+r.metrics.TestRows, time.Since(start), nil)
	return nil
}

// filter applies the configured row filter to both tables.
func (o *Orchestrator) filter(r *run, trainTbl, testTbl *table.Table) (*table.Table, *table.Table, error) {
	f, err := table.NewRowFilter(o.opts.RowFilter)
	if err != nil || f == nil {
		return trainTbl, testTbl, err
	}

	trainOut, removedTrain, err := trainTbl.Filter(f)
	if err != nil {
		return nil, nil, err
	}
	testOut, removedTest, err := testTbl.Filter(f)
	if err != nil {
		return nil, nil, err
	}

	r.metrics.FilteredRows = removedTrain + removedTest
	logger.Info("row filter applied",
		slog.String("run_id", r.id),
		slog.String("expression", f.Expression()),
		slog.Int("train_removed", removedTrain),
		slog.Int("test_removed", removedTest),
	)
	return trainOut, testOut, nil
}

func (o *Orchestrator) build(r *run) error {
	r.spec = builder.BuildTransform()

	branches := make([]string, len(r.spec.Branches))
	for i, b := range r.spec.Branches {
		branches[i] = b.Name
	}
	logger.WithRun(logger.RunContext{RunID: r.id, Stage: string(errhandling.StageBuild)}).Info("transform built",
		slog.Any("branches", branches),
		slog.Int("columns", len(r.spec.Columns())),
	)
	return nil
}

func (o *Orchestrator) fit(r *run) error {
	start := time.Now()
	fitted, trainX, err := transform.FitTransform(r.spec, r.train.Features)
	if err != nil {
		return err
	}
	r.fitted, r.trainX = fitted, trainX
	r.metrics.FitDuration = time.Since(start)

	logger.LogStageEnd(logger.RunContext{RunID: r.id, Stage: string(errhandling.StageFit)},
		r.train.Features.Rows(), r.metrics.FitDuration, nil)
	return nil
}

func (o *Orchestrator) applyTest(r *run) error {
	start := time.Now()
	testX, err := transform.Apply(r.fitted, r.test.Features)
	if err != nil {
		return err
	}
	r.testX = testX
	r.metrics.ApplyDuration = time.Since(start)

	logger.Info("transform applied",
		slog.String("run_id", r.id),
		slog.Int("train_rows", r.train.Features.Rows()),
		slog.Int("test_rows", r.test.Features.Rows()),
		slog.Duration("duration", r.metrics.FitDuration+r.metrics.ApplyDuration),
	)
	return nil
}

func (o *Orchestrator) assemble(r *run) error {
	trainX, err := transform.AppendTarget(r.trainX, r.train.Target)
	if err != nil {
		return err
	}
	testX, err := transform.AppendTarget(r.testX, r.test.Target)
	if err != nil {
		return err
	}
	r.trainX, r.testX = trainX, testX
	return nil
}

// persist saves the fitted transform and, if configured, exports both arrays.
// Exports are written to temporary files first and only renamed into place
// once the artifact is saved, so a failed export leaves no new artifact.
func (o *Orchestrator) persist(r *run) error {
	start := time.Now()

	var staged []stagedExport
	defer func() {
		for _, s := range staged {
			_ = os.Remove(s.tmp)
		}
	}()

	if o.opts.ExportDir != "" {
		header := append(r.fitted.OutputColumns(), r.fitted.Target)
		for _, e := range []struct {
			name string
			m    *mat.Dense
		}{{"train.csv", r.trainX}, {"test.csv", r.testX}} {
			final := filepath.Join(o.opts.ExportDir, e.name)
			tmp := final + ".tmp"
			if err := table.WriteMatrixFile(tmp, header, e.m); err != nil {
				return err
			}
			staged = append(staged, stagedExport{tmp: tmp, final: final})
		}
	}

	path, err := o.store.Save(o.opts.ArtifactName, r.fitted)
	if err != nil {
		return err
	}

	for _, s := range staged {
		if err := os.Rename(s.tmp, s.final); err != nil {
			return fmt.Errorf("moving export into place: %w", err)
		}
	}
	r.metrics.PersistDuration = time.Since(start)

	logger.Info("artifact saved",
		slog.String("run_id", r.id),
		slog.String("path", path),
		slog.String("export_dir", o.opts.ExportDir),
	)
	return nil
}

// stagedExport is an exported array waiting to be renamed into place.
type stagedExport struct {
	tmp, final string
}
