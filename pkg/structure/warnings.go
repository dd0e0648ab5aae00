package structure

import (
	"fmt"
	"strings"

	f "github.com/multimediallc/protinfo/pkg/functional"
)

type WarningKind string

const (
	WarnDiscontinuity     WarningKind = "Discontinuity"
	WarnUnrecognized      WarningKind = "Unrecognized records"
	WarnNegativeOccupancy WarningKind = "Negative occupancy"
	WarnMissing           WarningKind = "Missing"
)

var warningOrder = []WarningKind{WarnDiscontinuity, WarnUnrecognized, WarnNegativeOccupancy, WarnMissing}

// Warning is a parser anomaly. Subject names what it is about (a chain, a
// record name) and may be empty.
type Warning struct {
	Kind    WarningKind
	Subject string
	Detail  string
}

func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
	return fmt.Sprintf("%s: %s %s", w.Kind, w.Subject, w.Detail)
}

// WarningItem is a subject with all its details, or a lone detail.
type WarningItem struct {
	Subject string   `json:"subject" yaml:"subject" toml:"subject"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty" toml:"details,omitempty"`
}

func (i WarningItem) String() string {
	if len(i.Details) == 0 {
		return i.Subject
	}
	return fmt.Sprintf("%s (%s)", i.Subject, strings.Join(i.Details, ", "))
}

type WarningGroup struct {
	Kind  WarningKind   `json:"kind" yaml:"kind" toml:"kind"`
	Items []WarningItem `json:"items" yaml:"items" toml:"items"`
}

// Collapse groups warnings per kind, then per subject, in first-seen order.
func Collapse(warnings []Warning) []WarningGroup {
	groups := []WarningGroup{}
	for _, kind := range warningOrder {
		ofKind := f.Filtered(warnings, func(w Warning) bool { return w.Kind == kind })
		if len(ofKind) == 0 {
			continue
		}
		bySubject := f.NewGrouped[string, string]()
		for _, w := range ofKind {
			if w.Subject == "" {
				bySubject.Add(w.Detail, "")
				continue
			}
			bySubject.Add(w.Subject, w.Detail)
		}
		group := WarningGroup{Kind: kind}
		for _, subject := range bySubject.Keys() {
			details := f.Filtered(f.Unique(bySubject.Get(subject)), func(d string) bool { return d != "" })
			if len(details) == 0 {
				details = nil
			}
			group.Items = append(group.Items, WarningItem{Subject: subject, Details: details})
		}
		groups = append(groups, group)
	}
	return groups
}
