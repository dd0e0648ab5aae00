package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/multimediallc/protinfo/internal/config"
	"github.com/multimediallc/protinfo/internal/report"
	"github.com/multimediallc/protinfo/internal/runprm"
	"github.com/multimediallc/protinfo/internal/step1"
	"github.com/multimediallc/protinfo/pkg/steplog"
	"github.com/multimediallc/protinfo/pkg/structure"
)

// OutputData describes the outcome of one report run.
type OutputData struct {
	PDB        string `json:"pdb"`
	ReportPath string `json:"report_path"`
	RunDir     string `json:"run_dir,omitempty"`
	Step1Ran   bool   `json:"step1_ran"`
	Message    string `json:"message"`
}

// Config holds the application configuration
type Config struct {
	PDB       string
	Settings  *config.Config
	Step1     step1.Options
	SkipStep1 bool
	// OutputDir overrides Settings.Report.OutputDir; the structure's
	// directory is used when both are empty.
	OutputDir string
	Logger    *logrus.Entry
}

type stepRunner interface {
	Available() error
	Run(ctx context.Context, runDir string) error
}

// App builds the report of one structure file.
type App struct {
	config *Config
	runner stepRunner
	logger *logrus.Entry
}

// New creates a new App instance with the given configuration
func New(cfg Config) (*App, error) {
	if _, err := os.Stat(cfg.PDB); err != nil {
		return nil, fmt.Errorf("structure file: %w", err)
	}
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	timeout, err := cfg.Settings.Step1.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger.WithField("pdb", filepath.Base(cfg.PDB))
	return &App{
		config: &cfg,
		runner: step1.NewRunner(cfg.Settings.Step1.Executable, timeout, logger),
		logger: logger,
	}, nil
}

func (a *App) outputDir() string {
	if a.config.OutputDir != "" {
		return a.config.OutputDir
	}
	if a.config.Settings.Report.OutputDir != "" {
		return a.config.Settings.Report.OutputDir
	}
	return filepath.Dir(a.config.PDB)
}

// Run reads the structure, runs step1 when possible and writes the report.
func (a *App) Run(ctx context.Context) (*OutputData, error) {
	out := &OutputData{PDB: a.config.PDB}

	s, err := structure.ReadFile(a.config.PDB)
	if err != nil {
		return out, fmt.Errorf("ReadStructure Error: %w", err)
	}
	info := structure.Summarize(s)
	a.logger.WithField("models", info.Models).Debug("Structure parsed")

	rep := &report.Report{Structure: info, Blocker: info.Step1Blocker()}
	if err := a.step1(ctx, rep, out); err != nil {
		return out, err
	}

	dir := a.outputDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return out, err
	}
	path, err := report.Write(dir, rep)
	if err != nil {
		return out, fmt.Errorf("WriteReport Error: %w", err)
	}
	out.ReportPath = path
	if out.Message == "" {
		out.Message = rep.Step1Note
	}
	return out, nil
}

// step1 fills the step1 part of rep. Only a failure to prepare the run
// directory is returned; everything else degrades to a note.
func (a *App) step1(ctx context.Context, rep *report.Report, out *OutputData) error {
	switch {
	case rep.Blocker != nil:
		rep.Step1Note = fmt.Sprintf("step1 not run: %s", rep.Blocker)
		return nil
	case a.config.SkipStep1:
		rep.Step1Note = "step1 disabled"
		return nil
	}
	if err := a.runner.Available(); err != nil {
		a.logger.WithError(err).Warn("Skipping step1")
		rep.Step1Note = fmt.Sprintf("step1 not run: %s", err)
		return nil
	}

	runDir, err := step1.Prepare(a.config.PDB, a.config.Step1)
	if err != nil {
		return fmt.Errorf("PrepareStep1 Error: %w", err)
	}
	out.RunDir = runDir
	if err := a.runner.Run(ctx, runDir); err != nil {
		// a failed run still leaves a useful run.log
		a.logger.WithError(err).Warn("step1 did not complete")
		out.Message = err.Error()
	}
	out.Step1Ran = true

	blocks, err := ParseRunDir(runDir, a.logger)
	if err != nil {
		a.logger.WithError(err).Warn("Could not parse step1 output")
		rep.Step1Note = fmt.Sprintf("step1 output unreadable: %s", err)
		return nil
	}
	rep.Step1 = blocks
	return nil
}

// ParseRunDir extracts the post-processed sections of the step1 run in
// runDir, reading its parameter record, run.log and debug.log.
func ParseRunDir(runDir string, logger logrus.FieldLogger) (steplog.Blocks, error) {
	params, err := runprm.Read(runDir)
	if err != nil {
		return nil, err
	}
	text, err := os.ReadFile(filepath.Join(runDir, step1.LogName))
	if err != nil {
		return nil, err
	}
	return ParseLog(string(text), params, logger, filepath.Join(runDir, steplog.SideLogFile))
}

// ParseLog runs the extraction on an in-memory run.log. sideLogPath may be
// empty when no debug.log is available.
func ParseLog(text string, params map[string]string, logger logrus.FieldLogger, sideLogPath string) (steplog.Blocks, error) {
	specs, err := steplog.BuildSpecs(params)
	if err != nil {
		return nil, fmt.Errorf("run parameters: %w", err)
	}
	opts := []steplog.Option{steplog.WithLogger(logger)}
	if sideLogPath != "" {
		opts = append(opts, steplog.WithSideLog(sideLogPath))
	}
	ex := steplog.ExtractBlocks(text, specs, opts...)
	return steplog.PostProcess(ex, opts...), nil
}
