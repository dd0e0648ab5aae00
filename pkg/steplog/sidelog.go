package steplog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	f "github.com/multimediallc/protinfo/pkg/functional"
)

// SideLogFile is written by step1 next to run.log when it assigns default
// values to unknown species during cofactor stripping.
const SideLogFile = "debug.log"

// SideLogHeader opens the summary appended to the cofactor block.
const SideLogHeader = "Species and properties with assigned default values in debug.log:"

// SideLogEntry is one category of debug.log with the distinct identifiers
// listed under it, in first-seen order.
type SideLogEntry struct {
	Category string
	IDs      []string
}

func (e SideLogEntry) String() string {
	return fmt.Sprintf("%s: %s", e.Category, strings.Join(e.IDs, ", "))
}

// ReadSideLog parses a whitespace separated table without header: column 0
// holds an identifier, column 1 its category. Every non-blank row must have at
// least two columns.
func ReadSideLog(r io.Reader) ([]SideLogEntry, error) {
	groups := f.NewGrouped[string, string]()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 columns, got %d", lineNo, len(fields))
		}
		groups.Add(fields[1], fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading side log: %w", err)
	}

	entries := make([]SideLogEntry, 0, groups.Len())
	for _, category := range groups.Keys() {
		entries = append(entries, SideLogEntry{Category: category, IDs: f.Unique(groups.Get(category))})
	}
	return entries, nil
}

// ReadSideLogFile is ReadSideLog on the file at path.
func ReadSideLogFile(path string) ([]SideLogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entries, err := ReadSideLog(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
