package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/multimediallc/protinfo/internal/app"
	"github.com/multimediallc/protinfo/internal/config"
	"github.com/multimediallc/protinfo/internal/runprm"
	"github.com/multimediallc/protinfo/internal/step1"
	"github.com/multimediallc/protinfo/pkg/steplog"
	"github.com/multimediallc/protinfo/pkg/structure"
)

// cliState is filled by the Before hook of the app.
type cliState struct {
	settings *config.Config
	logger   *logrus.Logger
}

func step1Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "wet", Usage: "Keep waters and cofactors"},
		&cli.BoolFlag{Name: "noter", Usage: "Do not label terminal residues"},
		&cli.Float64Flag{Name: "d", Usage: "Dielectric constant used for SAS", Value: 4.0},
		&cli.StringFlag{Name: "e", Usage: "MCCE executable passed to step1.py", Value: "mcce"},
		&cli.StringFlag{Name: "u", Usage: "Comma separated KEY=value parameter overrides"},
	}
}

// step1Options starts from the configured options and applies the flags
// given on the command line.
func step1Options(cCtx *cli.Context, base config.Step1) step1.Options {
	o := step1.OptionsFromConfig(base)
	if cCtx.IsSet("wet") {
		o.Wet = cCtx.Bool("wet")
	}
	if cCtx.IsSet("noter") {
		o.NoTer = cCtx.Bool("noter")
	}
	if cCtx.IsSet("d") {
		o.D = cCtx.Float64("d")
	}
	if cCtx.IsSet("e") {
		o.E = cCtx.String("e")
	}
	if cCtx.IsSet("u") {
		o.U = cCtx.String("u")
	}
	return o
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   string(FormatYAML),
		Usage:   "Output format.  Allowed values are: yaml, json, and toml",
	}
}

func newApp(state *cliState, stdout, stderr io.Writer) *cli.App {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "Print version",
	}
	return &cli.App{
		Name:      "protinfo",
		Usage:     "Diagnostic report for a protein structure file before an MCCE run",
		Version:   "v0.1.0",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./",
				Usage:   "Directory holding protinfo.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose output",
			},
		},
		Before: func(cCtx *cli.Context) error {
			state.logger = logrus.New()
			state.logger.SetOutput(stderr)
			state.logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			settings, err := config.ReadConfig(cCtx.String("config"))
			if err != nil {
				state.logger.WithError(err).Warn("Error reading protinfo.toml - using default config")
			}
			state.settings = settings
			state.logger.SetLevel(settings.Level())
			if cCtx.Bool("verbose") {
				state.logger.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:        "report",
				Aliases:     []string{"r"},
				Usage:       "Write the Markdown report of one or more structures",
				UsageText:   "protinfo report [options] <pdb> [pdb]...",
				Description: "Parse each structure, run MCCE step1 next to it when possible and write <pdbid>.info.md. Arguments may be doublestar patterns such as 'data/**/*.pdb'.",
				Flags: append(step1Flags(),
					&cli.BoolFlag{Name: "no-step1", Usage: "Do not run step1"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Directory receiving the reports"},
					&cli.BoolFlag{Name: "preview", Aliases: []string{"p"}, Usage: "Render the reports in the terminal"},
				),
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() == 0 {
						return fmt.Errorf("at least one structure file is required")
					}
					pdbs, err := expandArgs(cCtx.Args().Slice())
					if err != nil {
						return err
					}
					return reportCommand(cCtx, state, pdbs)
				},
			},
			{
				Name:        "sections",
				Aliases:     []string{"s"},
				Usage:       "Print the step1 sections of a run directory",
				UsageText:   "protinfo sections [options] <run_dir|->",
				Description: "Print the post-processed run.log sections of a step1 run directory. With '-', run.log is read from stdin and the parameters from --prm.",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "prm", Usage: "run.prm or run.prm.record file, required when reading stdin"},
					&cli.StringFlag{Name: "debug-log", Usage: "debug.log file used when reading stdin"},
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() == 0 {
						return fmt.Errorf("run directory is required")
					}
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					return sectionsCommand(cCtx, state, cCtx.Args().First(), format)
				},
			},
			{
				Name:      "script",
				Usage:     "Print the step1 script that report would run",
				UsageText: "protinfo script [options]",
				Flags:     step1Flags(),
				Action: func(cCtx *cli.Context) error {
					_, err := fmt.Fprint(cCtx.App.Writer, step1.Script(step1Options(cCtx, state.settings.Step1)))
					return err
				},
			},
			{
				Name:      "structure",
				Usage:     "Print the facts parsed from a structure file",
				UsageText: "protinfo structure [options] <pdb>",
				Flags:     []cli.Flag{formatFlag()},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() == 0 {
						return fmt.Errorf("structure file is required")
					}
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					s, err := structure.ReadFile(cCtx.Args().First())
					if err != nil {
						return err
					}
					return encode(cCtx.App.Writer, format, structure.Summarize(s))
				},
			},
		},
	}
}

func main() {
	state := &cliState{}
	err := newApp(state, os.Stdout, os.Stderr).Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func reportCommand(cCtx *cli.Context, state *cliState, pdbs []string) error {
	opts := step1Options(cCtx, state.settings.Step1)
	showPreview := state.settings.Report.Preview || cCtx.Bool("preview")
	var errs []error
	for _, pdb := range pdbs {
		a, err := app.New(app.Config{
			PDB:       pdb,
			Settings:  state.settings,
			Step1:     opts,
			SkipStep1: cCtx.Bool("no-step1"),
			OutputDir: cCtx.String("output"),
			Logger:    logrus.NewEntry(state.logger),
		})
		if err == nil {
			var out *app.OutputData
			out, err = a.Run(cCtx.Context)
			if err == nil {
				printOutput(cCtx.App.ErrWriter, out)
				if showPreview {
					err = previewFile(cCtx.App.Writer, out.ReportPath)
				}
			}
		}
		if err != nil {
			statusLine(cCtx.App.ErrWriter, failStyle, "FAIL", "%s: %s", pdb, err)
			errs = append(errs, fmt.Errorf("%s: %w", pdb, err))
		}
	}
	return errors.Join(errs...)
}

func printOutput(w io.Writer, out *app.OutputData) {
	if out.Step1Ran && out.Message == "" {
		statusLine(w, okStyle, "OK", "%s", out.ReportPath)
		return
	}
	statusLine(w, warnStyle, "WARN", "%s (%s)", out.ReportPath, out.Message)
}

func previewFile(w io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return preview(w, string(content))
}

type sectionsOutput struct {
	Source   string         `json:"source" yaml:"source" toml:"source"`
	Sections steplog.Blocks `json:"sections" yaml:"sections" toml:"sections"`
}

func sectionsCommand(cCtx *cli.Context, state *cliState, source string, format OutputFormat) error {
	var blocks steplog.Blocks
	var err error
	if source == "-" {
		blocks, err = sectionsFromStdin(cCtx, state)
	} else {
		blocks, err = app.ParseRunDir(source, state.logger)
	}
	if err != nil {
		return err
	}
	return encode(cCtx.App.Writer, format, sectionsOutput{Source: source, Sections: blocks})
}

func sectionsFromStdin(cCtx *cli.Context, state *cliState) (steplog.Blocks, error) {
	if !isStdinPiped() {
		return nil, fmt.Errorf("no input piped to stdin")
	}
	prm := cCtx.String("prm")
	if prm == "" {
		return nil, fmt.Errorf("--prm is required when reading run.log from stdin")
	}
	file, err := os.Open(prm)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	params, err := runprm.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prm, err)
	}
	text, err := scanStdin(os.Stdin)
	if err != nil {
		return nil, err
	}
	return app.ParseLog(text, params, state.logger, cCtx.String("debug-log"))
}
