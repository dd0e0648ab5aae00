// Package step1 prepares and launches MCCE step1.py next to a structure file.
package step1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/multimediallc/protinfo/internal/config"
)

const (
	RunDirName = "step1_run"
	ScriptName = "s1.sh"
	ProtName   = "prot.pdb"
	LogName    = "run.log"
)

var ErrNotAvailable = errors.New("executable not found on PATH")

// Options are the step1.py command line options. Only values that differ
// from DefaultOptions are written to the script, except for the dry flag.
type Options struct {
	Wet   bool
	NoTer bool
	D     float64
	E     string
	U     string
}

func DefaultOptions() Options {
	return Options{Wet: false, NoTer: false, D: 4.0, E: "mcce", U: ""}
}

func OptionsFromConfig(c config.Step1) Options {
	return Options{Wet: c.Wet, NoTer: c.NoTer, D: c.D, E: c.E, U: c.U}
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Script returns the bash script that runs step1.py on prot.pdb.
func Script(o Options) string {
	defaults := DefaultOptions()
	wet := "--dry "
	if o.Wet {
		wet = ""
	}
	noter := ""
	if o.NoTer {
		noter = "--noter "
	}
	d := ""
	if o.D != defaults.D {
		d = fmt.Sprintf("-d %s ", formatFloat(o.D))
	}
	e := ""
	if o.E != defaults.E {
		e = fmt.Sprintf("-e %s ", o.E)
	}
	u := ""
	if o.U != defaults.U {
		u = fmt.Sprintf("-u %s ", o.U)
	}
	return fmt.Sprintf("#!/bin/bash\n\nstep1.py %s %s%s%s%s%s\n", ProtName, wet, noter, d, e, u)
}

// RunDir returns the absolute step1 directory of the structure at pdbPath.
func RunDir(pdbPath string) (string, error) {
	return filepath.Abs(filepath.Join(filepath.Dir(pdbPath), RunDirName))
}

// Prepare recreates the run directory of pdbPath with the step1 script and a
// prot.pdb link to the structure. It returns the run directory.
func Prepare(pdbPath string, o Options) (string, error) {
	runDir, err := RunDir(pdbPath)
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(runDir); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", runDir, err)
	}
	if err := os.Mkdir(runDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, ScriptName), []byte(Script(o)), 0755); err != nil {
		return "", err
	}
	target := filepath.Join("..", filepath.Base(pdbPath))
	if err := os.Symlink(target, filepath.Join(runDir, ProtName)); err != nil {
		return "", err
	}
	return runDir, nil
}

type commandExecutor interface {
	execute(ctx context.Context, dir string, output io.Writer, command string, args ...string) error
}

type realExecutor struct{}

func (realExecutor) execute(ctx context.Context, dir string, output io.Writer, command string, args ...string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	cmd.Stdout = output
	cmd.Stderr = output
	return cmd.Run()
}

type Runner struct {
	executable string
	timeout    time.Duration
	logger     *logrus.Entry
	executor   commandExecutor
	lookPath   func(string) (string, error)
}

// NewRunner returns a Runner that requires executable on PATH. A zero
// timeout means no limit besides the caller's context.
func NewRunner(executable string, timeout time.Duration, logger *logrus.Entry) *Runner {
	return &Runner{
		executable: executable,
		timeout:    timeout,
		logger:     logger.WithField("component", "step1"),
		executor:   realExecutor{},
		lookPath:   exec.LookPath,
	}
}

// Available reports whether the MCCE executable can be found.
func (r *Runner) Available() error {
	if _, err := r.lookPath(r.executable); err != nil {
		return fmt.Errorf("%s: %w", r.executable, ErrNotAvailable)
	}
	return nil
}

// Run executes the script of runDir and waits for it, capturing its output
// in run.log.
func (r *Runner) Run(ctx context.Context, runDir string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	logFile, err := os.Create(filepath.Join(runDir, LogName))
	if err != nil {
		return err
	}
	defer logFile.Close()

	start := time.Now()
	r.logger.WithField("dir", runDir).Info("Running step1")
	err = r.executor.execute(ctx, runDir, logFile, filepath.Join(runDir, ScriptName))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("step1 in %s: %w", runDir, ctxErr)
		}
		return fmt.Errorf("step1 in %s: %w", runDir, err)
	}
	r.logger.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Debug("step1 finished")
	return nil
}
