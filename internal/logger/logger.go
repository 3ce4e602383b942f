// Package logger provides structured logging functionality.
// It wraps the standard log/slog package for consistent logging across preprocessing runs.
//
// Run helpers log run start/end, stage start/end and run metrics with
// consistent snake_case field names (run_id, stage, column, rows, duration).
//
// The package supports two output formats:
//   - JSON (default): Machine-readable structured logging
//   - Human: Human-readable console output with colors and prefixes
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Logger is the default logger instance.
var Logger *slog.Logger

// Console settings of the current Logger, kept so SetOutput can rebuild it.
var (
	outWriter io.Writer = os.Stdout
	outLevel            = slog.LevelInfo
	outFormat           = FormatJSON
)

func init() {
	Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetLevel configures the logging level.
func SetLevel(level slog.Level) {
	SetLevelAndFormat(level, FormatJSON)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// ParseLevel maps a configuration level name to a slog level.
// Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// =============================================================================
// Run Context Types
// =============================================================================

// RunContext identifies a preprocessing run in log records.
type RunContext struct {
	// RunID is the unique identifier of the run (required)
	RunID string
	// Stage is the orchestrator stage (read, split, fit, ...)
	Stage string
	// Branch is the transform branch being processed
	Branch string
	// Column is the column being processed
	Column string
}

// ErrorContext contains structured context for error logging.
type ErrorContext struct {
	RunID  string
	Stage  string
	Column string
	Row    int

	// ErrorCategory is the classification (input, fit, persistence, config)
	ErrorCategory string
	ErrorMessage  string
	Err           error

	Source   string
	Duration time.Duration

	Extra map[string]any
}

// RunMetrics contains per-run timing and volume figures.
type RunMetrics struct {
	TotalDuration   time.Duration
	ReadDuration    time.Duration
	FitDuration     time.Duration
	ApplyDuration   time.Duration
	PersistDuration time.Duration
	TrainRows       int
	TestRows        int
	FilteredRows    int
	OutputColumns   int
}

// =============================================================================
// Run Context Helpers
// =============================================================================

// WithRun returns a logger with run context attached.
// Only non-empty fields are included in the log output.
func WithRun(ctx RunContext) *slog.Logger {
	return Logger.With(buildContextAttrs(ctx)...)
}

// LogRunStart logs the start of a preprocessing run.
func LogRunStart(ctx RunContext, trainPath, testPath string) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.String("train_path", trainPath),
		slog.String("test_path", testPath),
	)
	Logger.Info("run started", attrs...)
}

// LogRunEnd logs the end of a preprocessing run with its final status.
func LogRunEnd(ctx RunContext, status string, duration time.Duration) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.String("status", status),
		slog.Duration("duration", duration),
	)
	if status == "success" {
		Logger.Info("run completed", attrs...)
		return
	}
	Logger.Error("run failed", attrs...)
}

// LogStageStart logs the start of an orchestrator stage.
func LogStageStart(ctx RunContext) {
	Logger.Debug("stage started", buildContextAttrs(ctx)...)
}

// LogStageEnd logs the completion of an orchestrator stage.
// If err is non-nil, logs as an error.
func LogStageEnd(ctx RunContext, rows int, duration time.Duration, err error) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.Int("rows", rows),
		slog.Duration("duration", duration),
	)

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		Logger.Error("stage failed", attrs...)
		return
	}
	Logger.Debug("stage completed", attrs...)
}

// LogMetrics logs run metrics.
func LogMetrics(ctx RunContext, m RunMetrics) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.Duration("total_duration", m.TotalDuration),
		slog.Duration("read_duration", m.ReadDuration),
		slog.Duration("fit_duration", m.FitDuration),
		slog.Duration("apply_duration", m.ApplyDuration),
		slog.Duration("persist_duration", m.PersistDuration),
		slog.Int("train_rows", m.TrainRows),
		slog.Int("test_rows", m.TestRows),
		slog.Int("filtered_rows", m.FilteredRows),
		slog.Int("output_columns", m.OutputColumns),
	)
	Logger.Info("run metrics", attrs...)
}

// LogError logs an error with its run context and error chain.
func LogError(message string, errCtx ErrorContext) {
	attrs := make([]any, 0, 16)

	if errCtx.RunID != "" {
		attrs = append(attrs, slog.String("run_id", errCtx.RunID))
	}
	if errCtx.Stage != "" {
		attrs = append(attrs, slog.String("stage", errCtx.Stage))
	}
	if errCtx.Column != "" {
		attrs = append(attrs, slog.String("column", errCtx.Column))
	}
	if errCtx.Row >= 0 && errCtx.Column != "" {
		attrs = append(attrs, slog.Int("row", errCtx.Row))
	}
	if errCtx.ErrorCategory != "" {
		attrs = append(attrs, slog.String("error_category", errCtx.ErrorCategory))
	}
	if errCtx.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error", errCtx.ErrorMessage))
	}
	if errCtx.Err != nil {
		attrs = append(attrs, slog.String("error_type", fmt.Sprintf("%T", errCtx.Err)))

		chain := []string{errCtx.Err.Error()}
		for cur := errors.Unwrap(errCtx.Err); cur != nil; cur = errors.Unwrap(cur) {
			chain = append(chain, cur.Error())
		}
		if len(chain) > 1 {
			attrs = append(attrs, slog.String("error_chain", strings.Join(chain, " -> ")))
		}
	}
	if errCtx.Source != "" {
		attrs = append(attrs, slog.String("source", errCtx.Source))
	}
	if errCtx.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", errCtx.Duration))
	}
	for k, v := range errCtx.Extra {
		attrs = append(attrs, slog.Any(k, v))
	}

	Logger.Error(message, attrs...)
}

// buildContextAttrs builds slog attributes from a RunContext.
func buildContextAttrs(ctx RunContext) []any {
	attrs := make([]any, 0, 4)
	attrs = append(attrs, slog.String("run_id", ctx.RunID))
	if ctx.Stage != "" {
		attrs = append(attrs, slog.String("stage", ctx.Stage))
	}
	if ctx.Branch != "" {
		attrs = append(attrs, slog.String("branch", ctx.Branch))
	}
	if ctx.Column != "" {
		attrs = append(attrs, slog.String("column", ctx.Column))
	}
	return attrs
}

// =============================================================================
// Human-Readable Log Format Support
// =============================================================================

// OutputFormat represents the log output format
type OutputFormat int

const (
	// FormatJSON is the default machine-readable JSON format
	FormatJSON OutputFormat = iota
	// FormatHuman is a human-readable console format with colors and prefixes
	FormatHuman
)

// ParseFormat maps a configuration format name to an OutputFormat.
// Empty means JSON.
func ParseFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "human", "text":
		return FormatHuman, nil
	}
	return FormatJSON, fmt.Errorf("unknown log format %q", name)
}

// SetFormat sets the log output format at info level.
func SetFormat(format OutputFormat) {
	SetLevelAndFormat(slog.LevelInfo, format)
}

// SetLevelAndFormat sets both the log level and format.
func SetLevelAndFormat(level slog.Level, format OutputFormat) {
	outLevel, outFormat = level, format
	Logger = slog.New(consoleHandler(outWriter, level, format))
}

// SetOutput redirects console logs to w, keeping the current level and format,
// and returns the previous writer. Use it when stdout carries data.
// An open log file is closed.
func SetOutput(w io.Writer) io.Writer {
	CloseLogFile()
	prev := outWriter
	outWriter = w
	Logger = slog.New(consoleHandler(w, outLevel, outFormat))
	return prev
}

func consoleHandler(w io.Writer, level slog.Level, format OutputFormat) slog.Handler {
	if format == FormatHuman {
		return NewHumanHandler(w, &HumanHandlerOptions{
			Level:     level,
			UseColors: isTerminal(w),
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// isTerminal returns true if the writer is a terminal (supports colors)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fi, err := f.Stat()
		if err != nil {
			return false
		}
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// HumanHandlerOptions configures the human-readable log handler.
type HumanHandlerOptions struct {
	// Level is the minimum log level to output
	Level slog.Level
	// UseColors enables ANSI color codes
	UseColors bool
}

// HumanHandler is a slog handler that outputs human-readable log messages.
type HumanHandler struct {
	opts   HumanHandlerOptions
	writer io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewHumanHandler creates a new human-readable log handler.
func NewHumanHandler(w io.Writer, opts *HumanHandlerOptions) *HumanHandler {
	if opts == nil {
		opts = &HumanHandlerOptions{Level: slog.LevelInfo}
	}
	return &HumanHandler{
		opts:   *opts,
		writer: w,
	}
}

// Enabled returns true if the handler is enabled for the given level.
func (h *HumanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// maxInlineAttrs bounds the attributes printed on one line.
const maxInlineAttrs = 6

// Handle outputs a log record in human-readable format.
func (h *HumanHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(h.levelPrefix(r.Level, r.Message))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	keyAttrs := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		keyAttrs = append(keyAttrs, h.formatAttr(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		keyAttrs = append(keyAttrs, h.formatAttr(a))
		return true
	})

	if len(keyAttrs) > 0 {
		sb.WriteString(" ")
		n := min(len(keyAttrs), maxInlineAttrs)
		sb.WriteString(strings.Join(keyAttrs[:n], " "))
		if len(keyAttrs) > maxInlineAttrs {
			fmt.Fprintf(&sb, " (+%d more)", len(keyAttrs)-maxInlineAttrs)
		}
	}

	sb.WriteString("\n")
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandler := &HumanHandler{
		opts:   h.opts,
		writer: h.writer,
		attrs:  make([]slog.Attr, len(h.attrs)+len(attrs)),
		groups: h.groups,
	}
	copy(newHandler.attrs, h.attrs)
	copy(newHandler.attrs[len(h.attrs):], attrs)
	return newHandler
}

// WithGroup returns a new handler with the given group name.
func (h *HumanHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, len(h.groups), len(h.groups)+1)
	copy(groups, h.groups)
	return &HumanHandler{
		opts:   h.opts,
		writer: h.writer,
		attrs:  h.attrs,
		groups: append(groups, name),
	}
}

// levelPrefix returns the symbol for level, using ✓ for completion messages.
func (h *HumanHandler) levelPrefix(level slog.Level, message string) string {
	msg := strings.ToLower(message)
	isSuccess := strings.Contains(msg, "completed") ||
		strings.Contains(msg, "saved") ||
		strings.Contains(msg, "success")

	var prefix string
	var c *color.Color
	switch {
	case level >= slog.LevelError:
		prefix, c = "✗", color.New(color.FgRed)
	case level >= slog.LevelWarn:
		prefix, c = "⚠", color.New(color.FgYellow)
	case level >= slog.LevelInfo && isSuccess:
		prefix, c = "✓", color.New(color.FgGreen)
	case level >= slog.LevelInfo:
		prefix, c = "ℹ", color.New(color.FgCyan)
	default:
		prefix, c = "·", color.New(color.Faint)
	}

	if !h.opts.UseColors {
		return prefix
	}
	c.EnableColor()
	return c.Sprint(prefix)
}

// formatAttr formats a single attribute for display.
func (h *HumanHandler) formatAttr(a slog.Attr) string {
	key := a.Key
	if len(h.groups) > 0 {
		key = strings.Join(h.groups, ".") + "." + key
	}

	switch v := a.Value.Any().(type) {
	case time.Duration:
		return fmt.Sprintf("%s=%s", key, formatDuration(v))
	case float64:
		return fmt.Sprintf("%s=%.4g", key, v)
	default:
		return fmt.Sprintf("%s=%v", key, v)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// FormatMetricsHuman formats run metrics in a human-readable way.
func FormatMetricsHuman(m RunMetrics) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Transformed %d train and %d test rows into %d columns in %s",
		m.TrainRows, m.TestRows, m.OutputColumns, formatDuration(m.TotalDuration))
	if m.FilteredRows > 0 {
		fmt.Fprintf(&sb, ", %d rows filtered out", m.FilteredRows)
	}
	return sb.String()
}

// =============================================================================
// Log File Output Support
// =============================================================================

// logFile holds the currently open log file (if any)
var logFile *os.File

const (
	// maxLogFileSize is the maximum size of a log file before rotation (10MB)
	maxLogFileSize = 10 * 1024 * 1024
)

// rotateLogFile renames the log file with a timestamp suffix once it exceeds maxLogFileSize.
func rotateLogFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking log file size: %w", err)
	}

	if info.Size() >= maxLogFileSize {
		rotatedPath := fmt.Sprintf("%s.%s", path, time.Now().Format("20060102-150405"))
		if err := os.Rename(path, rotatedPath); err != nil {
			return fmt.Errorf("rotating log file: %w", err)
		}
	}
	return nil
}

// SetLogFile configures logging to write to both stdout and the specified file.
// File logs are always JSON. The file is rotated once it exceeds 10MB.
func SetLogFile(path string, level slog.Level, consoleFormat OutputFormat) error {
	CloseLogFile()

	if err := rotateLogFile(path); err != nil {
		Warn("log rotation failed", slog.String("error", err.Error()))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f
	outLevel, outFormat = level, consoleFormat

	Logger = slog.New(&dualHandler{
		console: consoleHandler(outWriter, level, consoleFormat),
		file:    slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}),
	})

	Debug("log file opened",
		slog.String("path", path),
		slog.String("console_format", formatName(consoleFormat)),
	)
	return nil
}

// CloseLogFile closes the current log file if one is open.
func CloseLogFile() {
	if logFile == nil {
		return
	}
	if err := logFile.Sync(); err != nil {
		Warn("failed to sync log file", slog.String("error", err.Error()))
	}
	if err := logFile.Close(); err != nil {
		Warn("failed to close log file", slog.String("error", err.Error()))
	}
	logFile = nil
}

// formatName returns the name of the output format.
func formatName(f OutputFormat) string {
	if f == FormatHuman {
		return "human"
	}
	return "json"
}

// dualHandler writes each record to both a console and a file handler.
type dualHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (d *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.console.Enabled(ctx, level) || d.file.Enabled(ctx, level)
}

func (d *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	if d.console.Enabled(ctx, r.Level) {
		if err := d.console.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	if d.file.Enabled(ctx, r.Level) {
		if err := d.file.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (d *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		console: d.console.WithAttrs(attrs),
		file:    d.file.WithAttrs(attrs),
	}
}

func (d *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		console: d.console.WithGroup(name),
		file:    d.file.WithGroup(name),
	}
}
