// Package steplog extracts report sections from the run.log written by MCCE step1.
//
// The log is a fixed sequence of processing blocks. Each block opens with a known
// header line and closes with the shared "   Done" line. BuildSpecs returns the
// catalog of known blocks for one run, ExtractBlocks carves the log into cleaned
// per-block lines and PostProcess applies the edits that need several blocks at once.
//
// Matching is literal: when the tool changes its wording a block simply goes
// missing from the output.
package steplog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// EndMarker closes every processing block.
const EndMarker = "   Done"

// Run parameters read from the run record.
const (
	ParamSASCutoff     = "H2O_SASCUTOFF"
	ParamClashDistance = "CLASH_DISTANCE"
	ParamRenameRules   = "RENAME_RULES"
	ParamMCCEHome      = "MCCE_HOME"
)

// dryCutoff is the H2O_SASCUTOFF value step1 records when waters are stripped.
const dryCutoff = -0.01

// Report headings.
const (
	HeadingRenamed       = "Renamed"
	HeadingTermini       = "Termini"
	HeadingLabeling      = "Labeling"
	HeadingLoad          = "Load Structure"
	HeadingFreeCofactors = "Free Cofactors"
	HeadingHeavyAtoms    = "Missing Heavy Atoms"
	HeadingClashes       = "Distance Clashes"
	HeadingConnectivity  = "Connectivity"
	HeadingOther         = "Other"
)

// Transform selects the per-block cleanup applied by ExtractBlocks.
type Transform int

const (
	TransformNone Transform = iota
	TransformRename
	TransformTermini
	TransformLabeling
	TransformCofactors
	TransformHeavyAtoms
	TransformClashes
)

func (t Transform) String() string {
	switch t {
	case TransformRename:
		return "rename"
	case TransformTermini:
		return "termini"
	case TransformLabeling:
		return "labeling"
	case TransformCofactors:
		return "cofactors"
	case TransformHeavyAtoms:
		return "heavy-atoms"
	case TransformClashes:
		return "clashes"
	default:
		return "none"
	}
}

// SkipMode tells how BlockSpec.SkipLines is applied.
type SkipMode int

const (
	SkipNone SkipMode = iota
	// SkipExact drops lines equal to one of SkipLines.
	SkipExact
	// SkipSubstring drops lines containing any of SkipLines.
	SkipSubstring
)

// BlockSpec describes one processing block of the log. Specs are values and
// are never modified after BuildSpecs returns them.
type BlockSpec struct {
	Index       int
	StartMarker string
	Heading     string
	LinePrefix  string
	SkipLines   []string
	SkipMode    SkipMode
	Kind        Transform
}

func (bs BlockSpec) skip(line string) bool {
	switch bs.SkipMode {
	case SkipExact:
		for _, s := range bs.SkipLines {
			if line == s {
				return true
			}
		}
	case SkipSubstring:
		for _, s := range bs.SkipLines {
			if strings.Contains(line, s) {
				return true
			}
		}
	}
	return false
}

// Specs is the block catalog for a single run, together with the run
// settings some transforms depend on.
type Specs struct {
	blocks       []BlockSpec
	dry          bool
	renamingFile string
	topologyDir  string
}

// All returns the block specs in ascending index order.
func (s *Specs) All() []BlockSpec {
	out := make([]BlockSpec, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Get returns the spec with the given index.
func (s *Specs) Get(index int) (BlockSpec, bool) {
	for _, bs := range s.blocks {
		if bs.Index == index {
			return bs, true
		}
	}
	return BlockSpec{}, false
}

// Dry reports whether the run stripped all waters and cofactors.
func (s *Specs) Dry() bool {
	return s.dry
}

var (
	ErrMissingParam = errors.New("missing run parameter")
	ErrInvalidParam = errors.New("invalid run parameter")
)

// ParamError is returned by BuildSpecs when a parameter needed to render a
// block header is absent or unusable.
type ParamError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	if errors.Is(e.Err, ErrMissingParam) {
		return fmt.Sprintf("%v: %s", e.Err, e.Key)
	}
	return fmt.Sprintf("%v: %s=%q", e.Err, e.Key, e.Value)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

func floatParam(params map[string]string, key string) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return 0, &ParamError{Key: key, Err: ErrMissingParam}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParamError{Key: key, Value: raw, Err: ErrInvalidParam}
	}
	return v, nil
}

// cofactorMarker renders the header the way step1 prints it, i.e. python's
// "{: .0%}" format: a sign column, no decimals.
func cofactorMarker(cutoff float64) string {
	return "   Strip free cofactors with SAS >  " + fmt.Sprintf("% .0f%%", cutoff*100) + "..."
}

func clashMarker(distance float64) string {
	return fmt.Sprintf("   Find distance clash (<%.3f)...", distance)
}

// BuildSpecs returns the block catalog for a run described by params.
// H2O_SASCUTOFF and CLASH_DISTANCE are required; a *ParamError names the
// offending key otherwise. Extra markers are appended after the known blocks
// and reported under HeadingOther.
func BuildSpecs(params map[string]string, extra ...string) (*Specs, error) {
	cutoff, err := floatParam(params, ParamSASCutoff)
	if err != nil {
		return nil, err
	}
	distance, err := floatParam(params, ParamClashDistance)
	if err != nil {
		return nil, err
	}

	blocks := []BlockSpec{
		{
			Index:       1,
			StartMarker: "   Rename residue and atom names...",
			Heading:     HeadingRenamed,
			LinePrefix:  "   Renaming ",
			Kind:        TransformRename,
		},
		{
			Index:       2,
			StartMarker: "   Identify NTR and CTR...",
			Heading:     HeadingTermini,
			LinePrefix:  "      Labeling ",
			Kind:        TransformTermini,
		},
		{
			Index:       3,
			StartMarker: "   Label backbone, sidechain and altLoc conformers...",
			Heading:     HeadingLabeling,
			LinePrefix:  "      Labeling ",
			SkipLines: []string{
				"Creating temporary parameter file for unrecognized",
				"Trying labeling again",
				"Try delete this entry and run MCCE again",
				"Error! premcce_confname()",
				"STOP",
				"is already loaded somewhere else.",
			},
			SkipMode: SkipSubstring,
			Kind:     TransformLabeling,
		},
		{
			Index:       4,
			StartMarker: "   Load pdb lines into data structure...",
			Heading:     HeadingLoad,
		},
		{
			Index:       5,
			StartMarker: cofactorMarker(cutoff),
			Heading:     HeadingFreeCofactors,
			SkipLines: []string{
				"free cofactors were stripped off in this round",
				SideLogPhrase,
			},
			SkipMode: SkipSubstring,
			Kind:     TransformCofactors,
		},
		{
			Index:       6,
			StartMarker: "   Check missing heavy atoms and complete altLoc conformers...",
			Heading:     HeadingHeavyAtoms,
			LinePrefix:  "   Missing heavy atom  ",
			SkipLines:   []string{"   Missing heavy atoms detected."},
			SkipMode:    SkipExact,
			Kind:        TransformHeavyAtoms,
		},
		{
			Index:       7,
			StartMarker: clashMarker(distance),
			Heading:     HeadingClashes,
			Kind:        TransformClashes,
		},
		{
			Index:       8,
			StartMarker: "   Make connectivity network ...",
			Heading:     HeadingConnectivity,
		},
	}
	for _, marker := range extra {
		blocks = append(blocks, BlockSpec{
			Index:       len(blocks) + 1,
			StartMarker: marker,
			Heading:     HeadingOther,
		})
	}

	specs := &Specs{
		blocks:       blocks,
		dry:          cutoff == dryCutoff,
		renamingFile: params[ParamRenameRules],
	}
	if home := params[ParamMCCEHome]; home != "" {
		specs.topologyDir = filepath.Join(home, "param")
	}
	return specs, nil
}
