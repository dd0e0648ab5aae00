package report

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multimediallc/protinfo/pkg/steplog"
	"github.com/multimediallc/protinfo/pkg/structure"
)

func sampleInfo() *structure.Info {
	return &structure.Info{
		ID:       "1fat",
		Name:     "Phytohemagglutinin-L",
		Models:   1,
		Chains:   []string{"A", "B"},
		Residues: 464,
		Waters:   12,
		MultipleAltLocs: []structure.AltLocAtom{
			{Chain: "A", Residue: "SER 2", Atom: "CA", Count: 2},
		},
		Warnings: []structure.WarningGroup{
			{Kind: structure.WarnDiscontinuity, Items: []structure.WarningItem{
				{Subject: "Chain A", Details: []string{"Line 10", "Line 40"}},
				{Subject: "Chain B", Details: []string{"Line 12"}},
			}},
		},
	}
}

func TestRender_Full(t *testing.T) {
	r := &Report{
		Structure: sampleInfo(),
		Step1: steplog.Blocks{
			{Index: 1, Heading: steplog.HeadingRenamed, Lines: []string{`" O   HOH A 201" to " O   HOH W 201"`}},
			{Index: 2, Heading: steplog.HeadingTermini, Groups: []steplog.Group{
				{Category: "NTR", Items: []string{`"MET A   1"`, `"GLY B   1"`}},
			}},
			{Index: 3, Heading: steplog.HeadingLabeling, Lines: []string{
				steplog.EntryGenericTopology,
				"_ABC:  https://pubchem.ncbi.nlm.nih.gov/#query=ABC&tab=substance; ",
			}},
			{Index: 4, Heading: steplog.HeadingLoad, Lines: []string{}},
			{Index: 7, Heading: steplog.HeadingClashes, Lines: []string{
				steplog.ClashesOpen,
				`d= 1.70: " N   SER A  12" to " O   HOH A 301"`,
				steplog.ClashesClose,
			}},
		},
	}

	expected := `---
# Phytohemagglutinin-L
## ParsedStructure
### Chains: 2: A, B

### Residues: 464

### Waters: 12

### Atoms.MultipleAltLocs:
  - <strong>A</strong>: SER 2 CA (2)

### Warnings:
  <strong><font color='red'>Discontinuity</font></strong>: Chain A (Line 10, Line 40); Chain B (Line 12); 

## MCCE.Step1
### Renamed:
  " O   HOH A 201" to " O   HOH W 201"

### Termini:
  <strong>NTR</strong>: "MET A   1", "GLY B   1"

### Labeling:
  - <strong><font color='red'>Generic topology file created for</font></strong>:
  _ABC:  https://pubchem.ncbi.nlm.nih.gov/#query=ABC&tab=substance; 

### Distance Clashes:
<details><summary>Clashes found</summary>
  d= 1.70: " N   SER A  12" to " O   HOH A 301"
</details>

---
`
	assert.Equal(t, expected, Render(r))
}

func TestRender_Blocked(t *testing.T) {
	info := &structure.Info{ID: "2nmr", Name: "2NMR", Models: 20}
	r := &Report{
		Structure: info,
		Blocker:   fmt.Errorf("20 models: %w", structure.ErrMultiModel),
		Step1Note: "step1 skipped",
	}

	expected := `---
# 2NMR
## ParsedStructure
### MultiModels:
  20

### Invalid:
  20 models: MCCE cannot handle multi-model proteins

## MCCE.Step1
### Not run:
  step1 skipped

---
`
	assert.Equal(t, expected, Render(r))
}

func TestRender_UnloadableIsHighlighted(t *testing.T) {
	r := &Report{
		Structure: sampleInfo(),
		Step1: steplog.Blocks{
			{Index: 3, Heading: steplog.HeadingLabeling, Lines: []string{steplog.EntryUnloadableTopology, "Atoms of residue CYS (A 22), do not match the topology conformer CYS01."}},
		},
	}
	assert.Contains(t, Render(r), "  - <strong><font color='red'>Unloadable topology</font></strong>:\n  Atoms of residue CYS")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	r := &Report{Structure: sampleInfo()}

	path, err := Write(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "1fat.info.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(r), string(content))

	_, err = Write(filepath.Join(dir, "missing"), r)
	assert.Error(t, err)
}
