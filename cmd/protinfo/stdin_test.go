package main

import (
	"strings"
	"testing"
)

func TestIsStdinPiped(t *testing.T) {
	if isStdinPiped() {
		t.Skip("stdin is piped in this environment")
	}
}

func TestScanStdin(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "indentation kept",
			input:    "   Identify NTR and CTR...\n      Labeling \"MET A   1\" as NTR\n   Done\n",
			expected: "   Identify NTR and CTR...\n      Labeling \"MET A   1\" as NTR\n   Done",
		},
		{
			name:     "windows line endings",
			input:    "line1\r\nline2\r\n",
			expected: "line1\nline2",
		},
		{
			name:     "blank lines kept",
			input:    "line1\n\nline2",
			expected: "line1\n\nline2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanStdin(strings.NewReader(tt.input))
			if err != nil {
				t.Errorf("scanStdin() error = %v", err)
				return
			}
			if got != tt.expected {
				t.Errorf("scanStdin() = %q, want %q", got, tt.expected)
			}
		})
	}
}
