package config

//go:generate go run ../../tools/schema-generator

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// FileName is looked up in the directory given to ReadConfig.
const FileName = "protinfo.toml"

type Config struct {
	// LogLevel is any level name understood by logrus.
	LogLevel string `toml:"log_level" jsonschema:"enum=panic,enum=fatal,enum=error,enum=warn,enum=warning,enum=info,enum=debug,enum=trace"`
	Step1    Step1  `toml:"step1"`
	Report   Report `toml:"report"`
}

// Step1 holds the options of the step1.py command line.
type Step1 struct {
	// Wet keeps waters and cofactors; the default is a dry run.
	Wet bool `toml:"wet"`
	// NoTer disables terminal residue labeling.
	NoTer bool `toml:"noter"`
	// D is the dielectric constant used to compute SAS.
	D float64 `toml:"d" jsonschema:"exclusiveMinimum=0"`
	// E is the MCCE executable name passed with -e.
	E string `toml:"e"`
	// U holds comma separated KEY=value overrides passed with -u.
	U string `toml:"u"`
	// Executable must be on PATH for step1 to be launched.
	Executable string `toml:"executable"`
	// Timeout is a Go duration string, e.g. "10m".
	Timeout string `toml:"timeout"`
}

type Report struct {
	// OutputDir receives the report; empty means next to the structure file.
	OutputDir string `toml:"output_dir"`
	Preview   bool   `toml:"preview"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Step1: Step1{
			Wet:        false,
			NoTer:      false,
			D:          4.0,
			E:          "mcce",
			U:          "",
			Executable: "mcce",
			Timeout:    "30m",
		},
		Report: Report{
			OutputDir: "",
			Preview:   false,
		},
	}
}

// ReadConfig reads protinfo.toml from the directory path. The defaults are
// returned when the file does not exist, and alongside any read error.
func ReadConfig(path string) (*Config, error) {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	defaultConfig := Default()

	fileName := path + FileName
	if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
		return defaultConfig, nil
	}
	file, err := os.ReadFile(fileName)
	if err != nil {
		return defaultConfig, err
	}
	config := Default()
	err = toml.Unmarshal(file, config)
	if err != nil {
		return defaultConfig, err
	}
	if err := config.Validate(); err != nil {
		return defaultConfig, fmt.Errorf("%s: %w", fileName, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Step1.D <= 0 {
		return fmt.Errorf("step1.d must be positive, got %g", c.Step1.D)
	}
	if _, err := c.Step1.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level, info when it does not parse.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// TimeoutDuration parses Timeout; an empty value means no timeout.
func (s Step1) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("step1.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("step1.timeout must not be negative, got %s", s.Timeout)
	}
	return d, nil
}
