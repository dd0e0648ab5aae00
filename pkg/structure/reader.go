// Package structure reads the coordinate section of PDB files and
// summarizes what matters before running MCCE on them.
package structure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrNoAtoms   = errors.New("no ATOM or HETATM records")
	ErrMalformed = errors.New("malformed coordinate record")
)

type Atom struct {
	Serial    int
	Name      string
	AltLoc    byte
	Occupancy float64
	Line      int
}

type Residue struct {
	Name   string
	Seq    int
	ICode  byte
	Hetero bool
	Atoms  []Atom
}

// Locator is the residue as printed in reports, e.g. "HIS 64A".
func (r *Residue) Locator() string {
	s := fmt.Sprintf("%s %d", r.Name, r.Seq)
	if r.ICode != ' ' && r.ICode != 0 {
		s += string(r.ICode)
	}
	return s
}

type Chain struct {
	ID       string
	Residues []*Residue
}

type Model struct {
	Serial int
	Chains []*Chain
}

func (m *Model) chain(id string) *Chain {
	for _, c := range m.Chains {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Header holds the HEADER and TITLE records, lower-cased.
type Header struct {
	Classification string
	Title          string
}

type Structure struct {
	ID       string
	Header   Header
	Models   []*Model
	Warnings []Warning
}

var knownRecords = map[string]bool{
	"HEADER": true, "OBSLTE": true, "TITLE": true, "SPLIT": true, "CAVEAT": true,
	"COMPND": true, "SOURCE": true, "KEYWDS": true, "EXPDTA": true, "NUMMDL": true,
	"MDLTYP": true, "AUTHOR": true, "REVDAT": true, "SPRSDE": true, "JRNL": true,
	"REMARK": true, "DBREF": true, "DBREF1": true, "DBREF2": true, "SEQADV": true,
	"SEQRES": true, "MODRES": true, "HET": true, "HETNAM": true, "HETSYN": true,
	"FORMUL": true, "HELIX": true, "SHEET": true, "SSBOND": true, "LINK": true,
	"CISPEP": true, "SITE": true, "CRYST1": true, "ORIGX1": true, "ORIGX2": true,
	"ORIGX3": true, "SCALE1": true, "SCALE2": true, "SCALE3": true, "MTRIX1": true,
	"MTRIX2": true, "MTRIX3": true, "MODEL": true, "ATOM": true, "ANISOU": true,
	"TER": true, "HETATM": true, "ENDMDL": true, "CONECT": true, "MASTER": true,
	"END": true, "SIGATM": true, "SIGUIJ": true,
}

// column returns the 1-based inclusive column range of line, padded.
func column(line string, from, to int) string {
	if len(line) < from {
		return ""
	}
	if len(line) < to {
		to = len(line)
	}
	return line[from-1 : to]
}

// ReadFile parses the PDB file at path; the structure ID is the file stem.
func ReadFile(path string) (*Structure, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := Read(id, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

type reader struct {
	s         *Structure
	model     *Model
	chain     *Chain
	residue   *Residue
	seenChain map[string]bool
	negOcc    bool
}

// Read parses PDB records from r. Anomalies the file can live with are
// collected as warnings; unparsable coordinates are an error.
func Read(id string, r io.Reader) (*Structure, error) {
	rd := &reader{s: &Structure{ID: id}}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		record := strings.TrimSpace(column(line, 1, 6))
		switch record {
		case "HEADER":
			rd.s.Header.Classification = strings.ToLower(strings.TrimSpace(column(line, 11, 50)))
		case "TITLE":
			part := strings.ToLower(strings.TrimSpace(column(line, 11, 80)))
			if rd.s.Header.Title == "" {
				rd.s.Header.Title = part
			} else {
				rd.s.Header.Title += " " + part
			}
		case "MODEL":
			rd.startModel()
		case "ENDMDL":
			rd.model, rd.chain, rd.residue = nil, nil, nil
		case "ATOM", "HETATM":
			if err := rd.atom(line, lineNo, record == "HETATM"); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		default:
			if !knownRecords[record] {
				rd.warn(Warning{Kind: WarnUnrecognized, Subject: record, Detail: fmt.Sprintf("Line %d", lineNo)})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rd.s.Models) == 0 {
		return nil, ErrNoAtoms
	}
	if rd.negOcc {
		rd.warn(Warning{Kind: WarnNegativeOccupancy, Detail: "Negative occupancy in one or more atoms"})
	}
	return rd.s, nil
}

func (rd *reader) warn(w Warning) {
	rd.s.Warnings = append(rd.s.Warnings, w)
}

func (rd *reader) startModel() {
	serial := len(rd.s.Models) + 1
	rd.model = &Model{Serial: serial}
	rd.s.Models = append(rd.s.Models, rd.model)
	rd.chain, rd.residue = nil, nil
	rd.seenChain = map[string]bool{}
}

func (rd *reader) atom(line string, lineNo int, hetero bool) error {
	if rd.model == nil {
		rd.startModel()
	}
	serial, err := strconv.Atoi(strings.TrimSpace(column(line, 7, 11)))
	if err != nil {
		return fmt.Errorf("%w: serial %q", ErrMalformed, column(line, 7, 11))
	}
	for _, cols := range [][2]int{{31, 38}, {39, 46}, {47, 54}} {
		if _, err := strconv.ParseFloat(strings.TrimSpace(column(line, cols[0], cols[1])), 64); err != nil {
			return fmt.Errorf("%w: coordinate %q", ErrMalformed, column(line, cols[0], cols[1]))
		}
	}
	occupancy := 1.0
	if occ := strings.TrimSpace(column(line, 55, 60)); occ != "" {
		occupancy, err = strconv.ParseFloat(occ, 64)
		if err != nil {
			return fmt.Errorf("%w: occupancy %q", ErrMalformed, occ)
		}
	}
	if occupancy < 0 {
		rd.negOcc = true
	}
	resSeq, err := strconv.Atoi(strings.TrimSpace(column(line, 23, 26)))
	if err != nil {
		return fmt.Errorf("%w: residue number %q", ErrMalformed, column(line, 23, 26))
	}

	chainID := strings.TrimSpace(column(line, 22, 22))
	if rd.chain == nil || rd.chain.ID != chainID {
		rd.chain = rd.model.chain(chainID)
		if rd.chain == nil {
			rd.chain = &Chain{ID: chainID}
			rd.model.Chains = append(rd.model.Chains, rd.chain)
		} else if rd.seenChain[chainID] {
			rd.warn(Warning{Kind: WarnDiscontinuity, Subject: "Chain " + chainID, Detail: fmt.Sprintf("Line %d", lineNo)})
		}
		rd.seenChain[chainID] = true
		rd.residue = nil
	}

	resName := strings.TrimSpace(column(line, 18, 20))
	iCode := altByte(column(line, 27, 27))
	if rd.residue == nil || rd.residue.Seq != resSeq || rd.residue.ICode != iCode || rd.residue.Name != resName {
		rd.residue = &Residue{Name: resName, Seq: resSeq, ICode: iCode, Hetero: hetero}
		rd.chain.Residues = append(rd.chain.Residues, rd.residue)
	}

	a := Atom{
		Serial:    serial,
		Name:      strings.TrimSpace(column(line, 13, 16)),
		AltLoc:    altByte(column(line, 17, 17)),
		Occupancy: occupancy,
		Line:      lineNo,
	}
	for _, other := range rd.residue.Atoms {
		if other.Name == a.Name && other.AltLoc == a.AltLoc {
			rd.warn(Warning{
				Kind:   WarnMissing,
				Detail: fmt.Sprintf("Atom %s defined twice in residue %s at line %d.", a.Name, rd.residue.Locator(), lineNo),
			})
			return nil
		}
	}
	rd.residue.Atoms = append(rd.residue.Atoms, a)
	return nil
}

func altByte(s string) byte {
	if s == "" {
		return ' '
	}
	return s[0]
}
