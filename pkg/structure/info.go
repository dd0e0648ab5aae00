package structure

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrMultiModel = errors.New("MCCE cannot handle multi-model proteins")
	ErrTruncated  = errors.New("this pdb was truncated during the .cif to .pdb format conversion because the number of atoms exceeds 99,999")
)

const water = "HOH"

// AltLocAtom is an atom given with more than one alternate location.
type AltLocAtom struct {
	Chain   string `json:"chain" yaml:"chain" toml:"chain"`
	Residue string `json:"residue" yaml:"residue" toml:"residue"`
	Atom    string `json:"atom" yaml:"atom" toml:"atom"`
	Count   int    `json:"count" yaml:"count" toml:"count"`
}

func (a AltLocAtom) String() string {
	return fmt.Sprintf("%s %s (%d)", a.Residue, a.Atom, a.Count)
}

// Info is the summary shown in the ParsedStructure part of a report.
// Chain level facts are only filled for single-model structures.
type Info struct {
	ID              string         `json:"id" yaml:"id" toml:"id"`
	Name            string         `json:"name" yaml:"name" toml:"name"`
	Truncation      string         `json:"truncation,omitempty" yaml:"truncation,omitempty" toml:"truncation,omitempty"`
	Models          int            `json:"models" yaml:"models" toml:"models"`
	Chains          []string       `json:"chains,omitempty" yaml:"chains,omitempty" toml:"chains,omitempty"`
	Residues        int            `json:"residues" yaml:"residues" toml:"residues"`
	Waters          int            `json:"waters" yaml:"waters" toml:"waters"`
	MultipleAltLocs []AltLocAtom   `json:"multiple_altlocs,omitempty" yaml:"multiple_altlocs,omitempty" toml:"multiple_altlocs,omitempty"`
	Warnings        []WarningGroup `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
}

func Summarize(s *Structure) *Info {
	info := &Info{
		ID:       s.ID,
		Name:     strings.ToUpper(s.ID),
		Models:   len(s.Models),
		Warnings: Collapse(s.Warnings),
	}
	if s.Header.Title != "" {
		info.Name = cases.Title(language.English).String(s.Header.Title)
	}
	if head := s.Header.Classification; strings.Contains(head, "truncated") && strings.HasSuffix(head, "true") {
		info.Truncation = "WARNING: " + head
	}
	if len(s.Models) != 1 {
		return info
	}

	for _, c := range s.Models[0].Chains {
		info.Chains = append(info.Chains, c.ID)
		info.Residues += len(c.Residues)
		for _, r := range c.Residues {
			if r.Name == water {
				info.Waters++
			}
			info.MultipleAltLocs = append(info.MultipleAltLocs, altLocAtoms(c.ID, r)...)
		}
	}
	return info
}

func altLocAtoms(chain string, r *Residue) []AltLocAtom {
	var names []string
	counts := map[string]int{}
	for _, a := range r.Atoms {
		if a.AltLoc == ' ' {
			continue
		}
		if counts[a.Name] == 0 {
			names = append(names, a.Name)
		}
		counts[a.Name]++
	}
	var out []AltLocAtom
	for _, name := range names {
		if counts[name] > 1 {
			out = append(out, AltLocAtom{Chain: chain, Residue: r.Locator(), Atom: name, Count: counts[name]})
		}
	}
	return out
}

// Step1Blocker returns why step1 must not run on this structure, or nil.
func (i *Info) Step1Blocker() error {
	if i.Models > 1 {
		return fmt.Errorf("%d models: %w", i.Models, ErrMultiModel)
	}
	if i.Truncation != "" {
		return ErrTruncated
	}
	return nil
}
