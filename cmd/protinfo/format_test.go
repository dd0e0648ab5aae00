package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{
			name:    "valid yaml format",
			input:   "yaml",
			want:    FormatYAML,
			wantErr: false,
		},
		{
			name:    "valid json format",
			input:   "json",
			want:    FormatJSON,
			wantErr: false,
		},
		{
			name:    "valid toml format",
			input:   "toml",
			want:    FormatTOML,
			wantErr: false,
		},
		{
			name:    "invalid format",
			input:   "xml",
			want:    "",
			wantErr: true,
		},
		{
			name:    "empty format",
			input:   "",
			want:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFormat() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("validateFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	type doc struct {
		Name  string   `json:"name" yaml:"name" toml:"name"`
		Items []string `json:"items" yaml:"items" toml:"items"`
	}
	v := doc{Name: "Termini", Items: []string{"NTR", "CTR"}}

	tests := []struct {
		format OutputFormat
		want   []string
	}{
		{FormatYAML, []string{"name: Termini\n", "items:\n", "- NTR\n", "- CTR\n"}},
		{FormatJSON, []string{"{\n  \"name\": \"Termini\",\n  \"items\": [\n    \"NTR\",\n    \"CTR\"\n  ]\n}\n"}},
		{FormatTOML, []string{"name = ", "Termini", "items = [", "NTR", "CTR"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := encode(&buf, tt.format, v); err != nil {
				t.Fatalf("encode() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("encode() = %q, want it to contain %q", buf.String(), want)
				}
			}
		})
	}
}
