package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// isStdinPiped checks if stdin is being piped to the program
func isStdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// scanStdin reads a whole log from r. Leading indentation is significant
// in run.log, so lines are kept as they are apart from line endings.
func scanStdin(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}
