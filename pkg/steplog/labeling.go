package steplog

import (
	"fmt"
	"strings"

	f "github.com/multimediallc/protinfo/pkg/functional"
	"github.com/sirupsen/logrus"
)

const (
	confnameError     = "   Error! premcce_confname()"
	mismatchError     = "   Error! The following atoms of residue "
	mismatchSeparator = " can not be loaded to conformer type "
	// mismatch messages wrap onto lines indented with at least this prefix
	continuationIndent = "           "

	// EntryGenericTopology and EntryUnloadableTopology open the entries
	// synthesized at the end of the labeling block.
	EntryGenericTopology    = "Generic topology file created for"
	EntryUnloadableTopology = "Unloadable topology"

	pubchemURL = "https://pubchem.ncbi.nlm.nih.gov/#query=%s&tab=substance"
)

// CompoundLink returns the PubChem substance search link for a residue name,
// prefixed with ":  " so it can follow the name directly.
func CompoundLink(compoundID string) string {
	if compoundID == "" {
		return ""
	}
	return ":  " + fmt.Sprintf(pubchemURL, strings.TrimPrefix(compoundID, "_"))
}

type mismatchKey struct {
	residue   string
	conformer string
}

// labeling collects the two message shapes of the labeling block that are
// summarized rather than listed.
type labeling struct {
	generic    []string
	mismatches *f.Grouped[mismatchKey, string]
}

func newLabeling() *labeling {
	return &labeling{mismatches: f.NewGrouped[mismatchKey, string]()}
}

// consume records line when it carries a new topology or a load mismatch.
// It returns true when the line must not be processed further.
func (l *labeling) consume(line string) bool {
	switch {
	case strings.HasPrefix(line, confnameError):
		fields := strings.Fields(line)
		l.generic = append(l.generic, fields[len(fields)-1])
		// the line itself is dropped by the skip rules
		return false
	case strings.HasPrefix(line, mismatchError):
		resInfo, conformer, ok := strings.Cut(strings.TrimPrefix(line, mismatchError), mismatchSeparator)
		if !ok {
			return false
		}
		res, loc, ok := strings.Cut(strings.TrimSpace(resInfo), " ")
		if !ok {
			return false
		}
		l.mismatches.Add(mismatchKey{residue: res, conformer: strings.TrimSpace(conformer)}, strings.TrimSpace(loc))
		return true
	case strings.HasPrefix(line, continuationIndent) && l.mismatches.Len() > 0:
		return true
	}
	return false
}

func (l *labeling) entries(renamingFile, topologyDir string, logger logrus.FieldLogger) []string {
	var out []string
	if len(l.generic) > 0 {
		var sb strings.Builder
		for _, conf := range l.generic {
			sb.WriteString(conf + CompoundLink(conf) + "; ")
		}
		out = append(out, EntryGenericTopology, sb.String())
	}

	if l.mismatches.Len() == 0 {
		return out
	}
	var msg strings.Builder
	for _, k := range l.mismatches.Keys() {
		fmt.Fprintf(&msg, "Atoms of residue %s (%s), do not match the topology conformer %s.\n",
			k.residue, strings.Join(l.mismatches.Get(k), ", "), k.conformer)
	}
	if renamingFile == "" || topologyDir == "" {
		logger.WithFields(logrus.Fields{
			ParamRenameRules: renamingFile,
			ParamMCCEHome:    topologyDir,
		}).Warn("Run record lacks topology paths; omitting likely cause of unloadable topology")
		return append(out, EntryUnloadableTopology, strings.TrimSuffix(msg.String(), "\n"))
	}
	fmt.Fprintf(&msg, " Likely cause: the renaming file (path: %s) is missing entries for these species,"+
		" resulting in unloadable topology files (path: %s/).", renamingFile, topologyDir)
	return append(out, EntryUnloadableTopology, msg.String())
}
