// Package main provides the CLI entry point for the diamond price preprocessing runtime.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Klnishant/DiamondPricePrediction/internal/cli"
	"github.com/Klnishant/DiamondPricePrediction/internal/config"
	"github.com/Klnishant/DiamondPricePrediction/internal/logger"
	"github.com/Klnishant/DiamondPricePrediction/internal/persistence"
	"github.com/Klnishant/DiamondPricePrediction/internal/runtime"
	"github.com/Klnishant/DiamondPricePrediction/internal/table"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

// envPrefix prefixes environment overrides, e.g. DIAMONDPREP_DATA_TRAIN.
const envPrefix = "DIAMONDPREP"

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// app holds the state of one CLI invocation.
type app struct {
	stdout, stderr io.Writer

	// Global flags
	verbose   bool
	quiet     bool
	logFormat string

	exitCode int
}

func (a *app) output() cli.OutputOptions {
	return cli.OutputOptions{Verbose: a.verbose, Quiet: a.quiet}
}

// execute runs the CLI with args and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		return ExitRuntimeError
	}
	return a.exitCode
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "diamondprep",
		Short: "diamondprep - preprocessing for diamond price prediction",
		Long: `diamondprep fits a preprocessing transform on a training table of diamonds,
applies it to a held-out table and persists the fitted transform for reuse.

Numeric columns (carat, depth, table, x, y, z) are median imputed and
standardized. Categorical columns (cut, color, clarity) are mode imputed,
ordinal encoded and standardized. The price column is appended last.

Examples:
  # Run with the default paths (artifacts/train.csv, artifacts/test.csv)
  diamondprep run

  # Run from a configuration file
  diamondprep run --config run.yaml

  # Apply a persisted transform to new data
  diamondprep apply artifacts/preprocessor.json new.csv --output new-transformed.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			} else if a.quiet {
				level = slog.LevelError
			}
			format, err := logger.ParseFormat(a.logFormat)
			if err != nil {
				return err
			}
			logger.SetLevelAndFormat(level, format)
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: json or human")

	root.AddCommand(newRunCmd(a), newApplyCmd(a), newInspectCmd(a), newValidateCmd(a), newVersionCmd(a))
	return root
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a run configuration file",
		Long: `Validate a run configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			a.exitCode = a.validate(args[0])
		},
	}
}

func (a *app) validate(path string) int {
	if !a.quiet {
		fmt.Fprintf(a.stdout, "Validating configuration: %s\n", path)
	}

	cfg, result, err := config.LoadRunConfig(path)
	if code := a.reportConfigErrors(result); code != ExitSuccess {
		return code
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "✗ Invalid configuration: %v\n", err)
		return ExitValidationError
	}

	cli.PrintSuccess(a.stdout, a.output(), "Configuration is valid (format: %s)", result.Format)
	if a.verbose {
		cli.PrintConfigSummary(a.stdout, cfg)
	}
	return ExitSuccess
}

// reportConfigErrors prints parse or validation errors and returns the matching exit code.
func (a *app) reportConfigErrors(result *config.Result) int {
	if result == nil {
		return ExitSuccess
	}
	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(a.stderr, result.ParseErrors, a.verbose)
		return ExitParseError
	}
	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(a.stderr, result.ValidationErrors, a.verbose, a.quiet)
		return ExitValidationError
	}
	return ExitSuccess
}

// overrides maps configuration keys to the run flags that set them.
var overrides = []struct {
	key  string
	flag string
	set  func(cfg *config.RunConfig, v string)
}{
	{"data.train", "train", func(c *config.RunConfig, v string) { c.Data.Train = v }},
	{"data.test", "test", func(c *config.RunConfig, v string) { c.Data.Test = v }},
	{"data.delimiter", "delimiter", func(c *config.RunConfig, v string) { c.Data.Delimiter = v }},
	{"data.rowFilter", "filter", func(c *config.RunConfig, v string) { c.Data.RowFilter = v }},
	{"artifacts.dir", "artifacts-dir", func(c *config.RunConfig, v string) { c.Artifacts.Dir = v }},
	{"artifacts.preprocessor", "artifact-name", func(c *config.RunConfig, v string) { c.Artifacts.Preprocessor = v }},
	{"artifacts.export", "export", func(c *config.RunConfig, v string) { c.Artifacts.Export = v }},
	{"logging.level", "log-level", func(c *config.RunConfig, v string) { c.Logging.Level = v }},
	{"logging.file", "log-file", func(c *config.RunConfig, v string) { c.Logging.File = v }},
}

func newRunCmd(a *app) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit the transform on the training table and apply it to the test table",
		Long: `Fit the preprocessing transform on the training table, apply it to the
test table and persist the fitted transform.

Settings are resolved from flags, then DIAMONDPREP_* environment variables
(e.g. DIAMONDPREP_DATA_TRAIN, DIAMONDPREP_ARTIFACTS_DIR), then the
configuration file, then defaults.

Exit codes:
  0 - Run completed and the artifact was written
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Run configuration file (JSON or YAML)")
	cmd.Flags().String("train", "", "Training table path")
	cmd.Flags().String("test", "", "Test table path")
	cmd.Flags().String("delimiter", "", "Field delimiter of both tables")
	cmd.Flags().String("filter", "", "Row filter expression applied to both tables")
	cmd.Flags().String("artifacts-dir", "", "Directory receiving the fitted transform")
	cmd.Flags().String("artifact-name", "", "File name of the fitted transform")
	cmd.Flags().String("export", "", "Directory receiving the transformed arrays as CSV")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().String("log-file", "", "Also write JSON logs to this file")

	cmd.Run = func(cmd *cobra.Command, _ []string) {
		cfg, code := a.resolveRunConfig(cmd, configPath)
		if code != ExitSuccess {
			a.exitCode = code
			return
		}
		a.exitCode = a.run(cfg)
	}
	return cmd
}

// resolveRunConfig layers flags and environment variables over the configuration file.
func (a *app) resolveRunConfig(cmd *cobra.Command, configPath string) (*config.RunConfig, int) {
	cfg := config.Default()
	if configPath != "" {
		loaded, result, err := config.LoadRunConfig(configPath)
		if code := a.reportConfigErrors(result); code != ExitSuccess {
			return nil, code
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "✗ Failed to load configuration: %v\n", err)
			return nil, ExitValidationError
		}
		cfg = loaded
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, o := range overrides {
		if err := v.BindPFlag(o.key, cmd.Flags().Lookup(o.flag)); err != nil {
			fmt.Fprintf(a.stderr, "✗ Failed to bind flag %s: %v\n", o.flag, err)
			return nil, ExitRuntimeError
		}
		if v.IsSet(o.key) {
			o.set(cfg, v.GetString(o.key))
		}
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(a.stderr, "✗ Invalid configuration: %v\n", err)
		return nil, ExitValidationError
	}
	return cfg, ExitSuccess
}

func (a *app) run(cfg *config.RunConfig) int {
	if err := a.configureLogging(cfg.Logging); err != nil {
		fmt.Fprintf(a.stderr, "✗ Failed to configure logging: %v\n", err)
		return ExitRuntimeError
	}
	defer logger.CloseLogFile()

	if !a.quiet {
		fmt.Fprintln(a.stdout, "Running preprocessing...")
		if a.verbose {
			cli.PrintConfigSummary(a.stdout, cfg)
		}
	}

	o := runtime.NewOrchestrator(runtime.OptionsFromConfig(cfg))
	result, err := o.Run(cfg.Data.Train, cfg.Data.Test)
	if err != nil {
		cli.PrintRunError(a.stderr, err, a.verbose)
		return ExitRuntimeError
	}

	cli.PrintRunResult(a.stdout, result, a.output())
	return ExitSuccess
}

// configureLogging applies the logging section. --verbose and --quiet take
// precedence over the configured level.
func (a *app) configureLogging(lc config.LoggingConfig) error {
	level, err := logger.ParseLevel(lc.Level)
	if err != nil {
		return err
	}
	if a.verbose {
		level = slog.LevelDebug
	} else if a.quiet {
		level = slog.LevelError
	}

	format, err := logger.ParseFormat(lc.Format)
	if err != nil {
		return err
	}

	if lc.File != "" {
		return logger.SetLogFile(lc.File, level, format)
	}
	logger.SetLevelAndFormat(level, format)
	return nil
}

func newApplyCmd(a *app) *cobra.Command {
	var outputPath, delimiter, configPath string

	cmd := &cobra.Command{
		Use:   "apply <artifact> <input>",
		Short: "Apply a persisted transform to a table",
		Long: `Apply a persisted transform to a table without refitting.

The id column is dropped if present. The price column, if present, is kept
unchanged as the last column. Without --output the array is written to stdout
and logs go to stderr.

With --config the delimiter and missing value markers of the run
configuration are used, so cells read the same way they did at fit time.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			opts, code := a.applyTableOptions(configPath, delimiter, cmd.Flags().Changed("delimiter"))
			if code != ExitSuccess {
				a.exitCode = code
				return
			}
			a.exitCode = a.apply(args[0], args[1], outputPath, opts)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the transformed array to this CSV file")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "Field delimiter of the input table")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Run configuration whose table settings are reused")
	return cmd
}

// applyTableOptions resolves how the apply input is read. An explicit
// --delimiter wins over the configuration file.
func (a *app) applyTableOptions(configPath, delimiter string, delimiterSet bool) (table.Options, int) {
	opts := table.DefaultOptions()
	if configPath != "" {
		cfg, result, err := config.LoadRunConfig(configPath)
		if code := a.reportConfigErrors(result); code != ExitSuccess {
			return opts, code
		}
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "✗ Invalid configuration: %v\n", err)
			return opts, ExitValidationError
		}
		opts = cfg.TableOptions()
	}

	if configPath == "" || delimiterSet {
		if utf8.RuneCountInString(delimiter) != 1 {
			fmt.Fprintf(a.stderr, "✗ Delimiter must be a single character, got %q\n", delimiter)
			return opts, ExitValidationError
		}
		opts.Delimiter, _ = utf8.DecodeRuneInString(delimiter)
	}
	return opts, ExitSuccess
}

func (a *app) apply(artifactPath, inputPath, outputPath string, opts table.Options) int {
	if outputPath == "" {
		prev := logger.SetOutput(a.stderr)
		defer logger.SetOutput(prev)
	}

	result, err := runtime.ApplyArtifact(artifactPath, inputPath, opts)
	if err != nil {
		cli.PrintRunError(a.stderr, err, a.verbose)
		return ExitRuntimeError
	}

	if outputPath == "" {
		if err := table.WriteMatrix(a.stdout, result.Columns, result.Matrix); err != nil {
			fmt.Fprintf(a.stderr, "✗ Failed to write output: %v\n", err)
			return ExitRuntimeError
		}
		return ExitSuccess
	}

	if err := table.WriteMatrixFile(outputPath, result.Columns, result.Matrix); err != nil {
		fmt.Fprintf(a.stderr, "✗ Failed to write output: %v\n", err)
		return ExitRuntimeError
	}
	cli.PrintApplyResult(a.stdout, result, outputPath, a.output())
	return ExitSuccess
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [artifact]",
		Short: "Print the fitted statistics of a persisted transform",
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			path := persistence.NewArtifactStore(persistence.DefaultArtifactDir).Path(persistence.DefaultArtifactName)
			if len(args) == 1 {
				path = args[0]
			}

			fitted, err := persistence.LoadFile(path)
			if err != nil {
				fmt.Fprintf(a.stderr, "✗ Failed to load artifact: %v\n", err)
				a.exitCode = ExitRuntimeError
				return
			}
			cli.PrintArtifact(a.stdout, path, fitted)
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "Version: %s\n", version)
			fmt.Fprintf(a.stdout, "Commit: %s\n", commit)
			fmt.Fprintf(a.stdout, "Build Date: %s\n", buildDate)
		},
	}
}
