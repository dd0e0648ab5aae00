package steplog

import (
	"strings"

	f "github.com/multimediallc/protinfo/pkg/functional"
)

// Sentinel lines around the clash block; the renderer turns them into a
// collapsible region.
const (
	ClashesOpen  = "Clashes found"
	ClashesClose = "end_clash"
)

// PostProcess applies the edits that need the final content of more than one
// block: termini grouping, filtering of expected missing atoms at termini,
// clash wrapping and, when WithSideLog is given, the debug.log summary.
// Missing upstream blocks turn the matching step into a no-op. The
// extraction itself is left untouched.
func PostProcess(ex *Extraction, opts ...Option) Blocks {
	o := newOptions(opts)
	blocks := ex.Blocks.clone()

	groupTermini(blocks, o)
	filterHeavyAtoms(blocks)
	wrapClashes(blocks)
	if ex.SideLog {
		addSideLog(blocks, o)
	}
	return blocks
}

// terminusLocator returns the quoted residue locator leading line, i.e. the
// text up to the first double quote found from the fourth character on.
func terminusLocator(line string) (string, bool) {
	if len(line) < 4 {
		return "", false
	}
	end := strings.IndexByte(line[3:], '"')
	if end == -1 {
		return "", false
	}
	return line[:3+end+1], true
}

// groupTermini replaces the termini lines, which end with their 3-letter
// category, by the locators grouped per category.
func groupTermini(blocks Blocks, o *options) {
	termini := blocks.Get(HeadingTermini)
	if termini == nil || len(termini.Lines) == 0 {
		return
	}
	groups := f.NewGrouped[string, string]()
	for _, line := range termini.Lines {
		locator, ok := terminusLocator(line)
		if !ok {
			o.logger.WithField("line", line).Warn("Termini line without residue locator")
			continue
		}
		groups.Add(line[len(line)-3:], locator)
	}
	termini.Lines = nil
	termini.Groups = make([]Group, 0, groups.Len())
	for _, category := range groups.Keys() {
		termini.Groups = append(termini.Groups, Group{Category: category, Items: groups.Get(category)})
	}
}

// residueLocator returns the quoted residue of a missing heavy atom entry.
func residueLocator(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		if end := strings.IndexByte(s[1:], '"'); end != -1 {
			return s[:end+2]
		}
	}
	return strings.TrimSuffix(s, ".")
}

// isTerminalBackbone reports whether a missing heavy atom entry, shaped as
// "<atom> ... <conformer> in <residue>", concerns a backbone conformer of one
// of the terminal residues.
func isTerminalBackbone(line string, termini f.Set[string]) bool {
	atom, residue, found := strings.Cut(line, " in ")
	if !found {
		return false
	}
	fields := strings.Fields(atom)
	if len(fields) == 0 || !strings.HasSuffix(fields[len(fields)-1], "BK") {
		return false
	}
	return termini.Contains(residueLocator(residue))
}

func filterHeavyAtoms(blocks Blocks) {
	termini := blocks.Get(HeadingTermini)
	heavy := blocks.Get(HeadingHeavyAtoms)
	if termini == nil || heavy == nil {
		return
	}
	locators := f.NewSet[string]()
	for _, g := range termini.Groups {
		for _, item := range g.Items {
			locators.Add(item)
		}
	}

	kept := f.Filtered(heavy.Lines, func(line string) bool {
		return !isTerminalBackbone(line, locators)
	})
	// the count line closing the block goes after filtering, and only when
	// another entry is left
	if len(kept) > 1 {
		kept = kept[:len(kept)-1]
	}
	heavy.Lines = kept
}

func wrapClashes(blocks Blocks) {
	clashes := blocks.Get(HeadingClashes)
	if clashes == nil || len(clashes.Lines) == 0 {
		return
	}
	wrapped := make([]string, 0, len(clashes.Lines)+2)
	wrapped = append(wrapped, ClashesOpen)
	for _, line := range clashes.Lines {
		wrapped = append(wrapped, strings.TrimSpace(line))
	}
	clashes.Lines = append(wrapped, ClashesClose)
}

func addSideLog(blocks Blocks, o *options) {
	cofactors := blocks.Get(HeadingFreeCofactors)
	if cofactors == nil {
		return
	}
	if o.sideLogPath == "" {
		o.logger.Warn("Cofactor block mentions debug.log but no side log location was given")
		return
	}
	entries, err := ReadSideLogFile(o.sideLogPath)
	if err != nil {
		o.logger.WithError(err).WithField("file", o.sideLogPath).Warn("Skipping debug.log summary")
		return
	}
	cofactors.Lines = append(cofactors.Lines, SideLogHeader)
	for _, e := range entries {
		cofactors.Lines = append(cofactors.Lines, e.String())
	}
}
