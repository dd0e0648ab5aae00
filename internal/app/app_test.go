package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/multimediallc/protinfo/internal/config"
	"github.com/multimediallc/protinfo/internal/runprm"
	"github.com/multimediallc/protinfo/internal/step1"
	"github.com/multimediallc/protinfo/pkg/steplog"
)

const singleModelPDB = `TITLE     TEST PROTEIN
ATOM      1  N   MET A   1       1.000   2.000   3.000  1.00 20.00
ATOM      2  CA  MET A   1       1.000   2.000   3.000  1.00 20.00
HETATM    3  O   HOH A 301       1.000   2.000   3.000  1.00 20.00
END
`

const multiModelPDB = `MODEL        1
ATOM      1  N   MET A   1       1.000   2.000   3.000  1.00 20.00
ENDMDL
MODEL        2
ATOM      1  N   MET A   1       1.000   2.000   3.000  1.00 20.00
ENDMDL
`

const runRecord = `0.05     Cutoff of water SAS                 (H2O_SASCUTOFF)
2.000    distance limit of reporting clashes (CLASH_DISTANCE)
`

const runLog = `   Identify NTR and CTR...
      Labeling "MET A   1" as NTR
   Done
   Strip free cofactors with SAS >   5%...
   HOH A 301 was stripped
   Unknown species saved in debug.log.
   Total deleted cofactors = 1.
   Done
`

type mockRunner struct {
	available error
	runErr    error
	files     map[string]string
	calls     int
}

func (m *mockRunner) Available() error {
	return m.available
}

func (m *mockRunner) Run(ctx context.Context, runDir string) error {
	m.calls++
	for name, content := range m.files {
		if err := os.WriteFile(filepath.Join(runDir, name), []byte(content), 0644); err != nil {
			return err
		}
	}
	return m.runErr
}

func writePDB(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1tst.pdb")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write pdb: %v", err)
	}
	return path
}

func newTestApp(t *testing.T, cfg Config, runner stepRunner) *App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg.Logger = logrus.NewEntry(logger)
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.runner = runner
	return a
}

func TestNew_MissingStructure(t *testing.T) {
	_, err := New(Config{PDB: filepath.Join(t.TempDir(), "none.pdb")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestApp_Run(t *testing.T) {
	fullRun := map[string]string{
		runprm.RecordFile:   runRecord,
		step1.LogName:       runLog,
		steplog.SideLogFile: "HOH01W VDW_RAD\n",
	}

	tt := []struct {
		name             string
		pdb              string
		skip             bool
		runner           *mockRunner
		expectedCalls    int
		expectedStep1Ran bool
		expectedContains []string
		expectedMissing  []string
	}{
		{
			name:             "step1 report",
			pdb:              singleModelPDB,
			runner:           &mockRunner{files: fullRun},
			expectedCalls:    1,
			expectedStep1Ran: true,
			expectedContains: []string{
				"# Test Protein\n",
				"## MCCE.Step1\n",
				"  <strong>NTR</strong>: \"MET A   1\"\n",
				"  VDW_RAD: HOH01W\n",
			},
		},
		{
			name:             "failed run is still parsed",
			pdb:              singleModelPDB,
			runner:           &mockRunner{files: fullRun, runErr: errors.New("exit status 1")},
			expectedCalls:    1,
			expectedStep1Ran: true,
			expectedContains: []string{"### Termini:\n"},
		},
		{
			name:             "multi model structure",
			pdb:              multiModelPDB,
			runner:           &mockRunner{files: fullRun},
			expectedContains: []string{"### MultiModels:\n  2\n", "### Invalid:\n", "step1 not run"},
			expectedMissing:  []string{"### Termini:"},
		},
		{
			name:             "mcce unavailable",
			pdb:              singleModelPDB,
			runner:           &mockRunner{available: step1.ErrNotAvailable},
			expectedContains: []string{"### Not run:\n  step1 not run: executable not found on PATH\n"},
		},
		{
			name:             "step1 disabled",
			pdb:              singleModelPDB,
			skip:             true,
			runner:           &mockRunner{files: fullRun},
			expectedContains: []string{"  step1 disabled\n"},
		},
		{
			name:             "missing run record",
			pdb:              singleModelPDB,
			runner:           &mockRunner{files: map[string]string{step1.LogName: runLog}},
			expectedCalls:    1,
			expectedStep1Ran: true,
			expectedContains: []string{"step1 output unreadable"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			pdbPath := writePDB(t, tc.pdb)
			a := newTestApp(t, Config{PDB: pdbPath, Step1: step1.DefaultOptions(), SkipStep1: tc.skip}, tc.runner)

			out, err := a.Run(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.runner.calls != tc.expectedCalls {
				t.Errorf("expected %d step1 runs, got %d", tc.expectedCalls, tc.runner.calls)
			}
			if out.Step1Ran != tc.expectedStep1Ran {
				t.Errorf("expected Step1Ran=%v", tc.expectedStep1Ran)
			}
			if out.ReportPath != filepath.Join(filepath.Dir(pdbPath), "1tst.info.md") {
				t.Errorf("unexpected report path %s", out.ReportPath)
			}
			content, err := os.ReadFile(out.ReportPath)
			if err != nil {
				t.Fatalf("report not written: %v", err)
			}
			for _, s := range tc.expectedContains {
				if !strings.Contains(string(content), s) {
					t.Errorf("report should contain %q:\n%s", s, content)
				}
			}
			for _, s := range tc.expectedMissing {
				if strings.Contains(string(content), s) {
					t.Errorf("report should not contain %q:\n%s", s, content)
				}
			}
		})
	}
}

func TestApp_OutputDir(t *testing.T) {
	pdbPath := writePDB(t, singleModelPDB)
	settings := config.Default()
	settings.Report.OutputDir = filepath.Join(t.TempDir(), "from-config")
	override := filepath.Join(t.TempDir(), "from-flag")

	a := newTestApp(t, Config{PDB: pdbPath, Settings: settings, SkipStep1: true}, &mockRunner{})
	out, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(out.ReportPath) != settings.Report.OutputDir {
		t.Errorf("expected report in config dir, got %s", out.ReportPath)
	}

	a = newTestApp(t, Config{PDB: pdbPath, Settings: settings, SkipStep1: true, OutputDir: override}, &mockRunner{})
	out, err = a.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(out.ReportPath) != override {
		t.Errorf("expected report in flag dir, got %s", out.ReportPath)
	}
}

func TestParseRunDir(t *testing.T) {
	tt := []struct {
		name        string
		files       map[string]string
		expectedErr error
	}{
		{
			name:  "complete run",
			files: map[string]string{runprm.RecordFile: runRecord, step1.LogName: runLog},
		},
		{
			name:        "no parameters",
			files:       map[string]string{step1.LogName: runLog},
			expectedErr: runprm.ErrNotFound,
		},
		{
			name:        "no run log",
			files:       map[string]string{runprm.RecordFile: runRecord},
			expectedErr: os.ErrNotExist,
		},
		{
			name:        "missing marker parameter",
			files:       map[string]string{runprm.RecordFile: "2.0 clash (CLASH_DISTANCE)\n", step1.LogName: runLog},
			expectedErr: steplog.ErrMissingParam,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
					t.Fatalf("failed to write %s: %v", name, err)
				}
			}
			logger, hook := test.NewNullLogger()
			blocks, err := ParseRunDir(dir, logger)
			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !blocks.Has(steplog.HeadingTermini) || !blocks.Has(steplog.HeadingFreeCofactors) {
				t.Errorf("unexpected blocks %v", blocks.Headings())
			}
			// debug.log is announced but absent
			if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.WarnLevel {
				t.Errorf("expected a side log warning, got %v", hook.AllEntries())
			}
		})
	}
}

func TestParseLog_WithoutSideLog(t *testing.T) {
	logger, _ := test.NewNullLogger()
	blocks, err := ParseLog(runLog, map[string]string{
		steplog.ParamSASCutoff:     "0.05",
		steplog.ParamClashDistance: "2.0",
	}, logger, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cofactors := blocks.Get(steplog.HeadingFreeCofactors)
	if cofactors == nil {
		t.Fatal("expected the cofactor block")
	}
	expected := []string{"   HOH A 301 was stripped", "Total deleted cofactors = 1."}
	if strings.Join(cofactors.Lines, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %q, got %q", expected, cofactors.Lines)
	}
}
