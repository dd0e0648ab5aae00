package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
	FormatTOML OutputFormat = "toml"
)

var allowedFormats = []string{string(FormatYAML), string(FormatJSON), string(FormatTOML)}

func validateFormat(format string) (OutputFormat, error) {
	if !slices.Contains(allowedFormats, format) {
		return "", fmt.Errorf("invalid format %s. Must be one of %s", format, strings.Join(allowedFormats, ", "))
	}
	return OutputFormat(format), nil
}

// encode writes v to w in the given format. TOML needs v to be a table.
func encode(w io.Writer, format OutputFormat, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}
