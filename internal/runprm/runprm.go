// Package runprm reads the MCCE run parameter record left in a step1 run
// directory.
package runprm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RecordFile holds the parameters step1 actually used.
	RecordFile = "run.prm.record"
	// File is the user supplied parameter file, read when no record exists.
	File = "run.prm"
)

var ErrNotFound = errors.New("no run.prm.record or run.prm in run directory")

// Params maps a parameter key to its raw value.
type Params map[string]string

// Read the parameter record of runDir, preferring RecordFile over File.
func Read(runDir string) (Params, error) {
	for _, name := range []string{RecordFile, File} {
		file, err := os.Open(filepath.Join(runDir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		defer file.Close()

		params, err := Parse(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return params, nil
	}
	return nil, fmt.Errorf("%s: %w", runDir, ErrNotFound)
}

// Parse reads lines shaped as "<value> <description> (<KEY>)". The value is
// the first field and the key sits in the last parenthesis pair. Comments
// and lines without a key are ignored; a later line overrides an earlier one.
func Parse(r io.Reader) (Params, error) {
	params := Params{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		open := strings.LastIndexByte(line, '(')
		end := strings.LastIndexByte(line, ')')
		if open == -1 || end < open {
			continue
		}
		key := strings.TrimSpace(line[open+1 : end])
		fields := strings.Fields(line[:open])
		if key == "" || len(fields) == 0 {
			continue
		}
		params[key] = fields[0]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return params, nil
}
