// Package report renders the Markdown diagnostic report of a structure.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	f "github.com/multimediallc/protinfo/pkg/functional"
	"github.com/multimediallc/protinfo/pkg/steplog"
	"github.com/multimediallc/protinfo/pkg/structure"
)

const (
	SectionStructure = "ParsedStructure"
	SectionStep1     = "MCCE.Step1"
)

type Report struct {
	Structure *structure.Info
	// Blocker is set when the structure cannot go through step1.
	Blocker error
	// Step1 holds the post-processed run.log sections; nil when step1 was
	// not run, in which case Step1Note may say why.
	Step1     steplog.Blocks
	Step1Note string
}

// FileName returns the report file name for a structure ID.
func FileName(id string) string {
	return id + ".info.md"
}

func highlight(s string) string {
	return fmt.Sprintf("<strong><font color='red'>%s</font></strong>", s)
}

type writer struct {
	strings.Builder
}

func (w *writer) linef(format string, args ...any) {
	fmt.Fprintf(w, format, args...)
	w.WriteByte('\n')
}

func Render(r *Report) string {
	w := &writer{}
	w.linef("---")
	w.linef("# %s", r.Structure.Name)
	renderStructure(w, r)
	if r.Step1 != nil {
		renderStep1(w, r.Step1)
	} else if r.Step1Note != "" {
		w.linef("## %s", SectionStep1)
		w.linef("### Not run:")
		w.linef("  %s", r.Step1Note)
		w.linef("")
	}
	w.linef("---")
	return w.String()
}

func renderStructure(w *writer, r *Report) {
	info := r.Structure
	w.linef("## %s", SectionStructure)
	if info.Truncation != "" {
		w.linef("### Truncation:")
		w.linef("  %s", info.Truncation)
		w.linef("")
	}
	if info.Models > 1 {
		w.linef("### MultiModels:")
		w.linef("  %d", info.Models)
		w.linef("")
	} else {
		w.linef("### Chains: %d: %s", len(info.Chains), strings.Join(info.Chains, ", "))
		w.linef("")
		w.linef("### Residues: %d", info.Residues)
		w.linef("")
		w.linef("### Waters: %d", info.Waters)
		w.linef("")
	}
	if len(info.MultipleAltLocs) > 0 {
		w.linef("### Atoms.MultipleAltLocs:")
		for _, a := range info.MultipleAltLocs {
			w.linef("  - <strong>%s</strong>: %s", a.Chain, a)
		}
		w.linef("")
	}
	if len(info.Warnings) > 0 {
		w.linef("### Warnings:")
		for _, g := range info.Warnings {
			items := f.Map(g.Items, structure.WarningItem.String)
			w.linef("  %s: %s; ", highlight(string(g.Kind)), strings.Join(items, "; "))
		}
		w.linef("")
	}
	if r.Blocker != nil {
		w.linef("### Invalid:")
		w.linef("  %s", r.Blocker)
		w.linef("")
	}
}

func renderStep1(w *writer, blocks steplog.Blocks) {
	w.linef("## %s", SectionStep1)
	for _, b := range blocks {
		if b.Empty() {
			continue
		}
		w.linef("### %s:", b.Heading)
		for _, g := range b.Groups {
			w.linef("  <strong>%s</strong>: %s", g.Category, strings.Join(g.Items, ", "))
		}
		for _, line := range b.Lines {
			switch {
			case strings.HasPrefix(line, "Generic") || strings.HasPrefix(line, "Unloadable"):
				w.linef("  - %s:", highlight(line))
			case b.Heading == steplog.HeadingClashes && line == steplog.ClashesOpen:
				w.linef("<details><summary>%s</summary>", line)
			case b.Heading == steplog.HeadingClashes && line == steplog.ClashesClose:
				w.linef("</details>")
			default:
				w.linef("  %s", line)
			}
		}
		w.linef("")
	}
}

// Write renders r into dir and returns the file path.
func Write(dir string, r *Report) (string, error) {
	path := filepath.Join(dir, FileName(r.Structure.ID))
	if err := os.WriteFile(path, []byte(Render(r)), 0644); err != nil {
		return "", err
	}
	return path, nil
}
