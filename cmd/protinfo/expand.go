package main

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	f "github.com/multimediallc/protinfo/pkg/functional"
)

// expandArgs resolves doublestar patterns among the structure arguments.
// Plain paths are passed through so that a missing file is reported by the
// command itself.
func expandArgs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no structure file matches %s", arg)
		}
		paths = append(paths, matches...)
	}
	return f.Unique(paths), nil
}
