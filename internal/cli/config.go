package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds defaults read from a YAML config file. Zero fields are
// unset. A flag given on the command line always wins over the file.
type Config struct {
	OutDir  string `yaml:"out_dir"`
	Jobs    int    `yaml:"jobs"`
	Format  string `yaml:"format"`
	Verbose bool   `yaml:"verbose"`
}

// LoadConfig reads the config file at path. Unknown keys are rejected so
// that a misspelt setting does not silently fall back to a default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErr(ErrCodeConfigInvalid, err, "reading config: %v", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, loadErr(ErrCodeConfigInvalid, err, "parsing config %s: %v", path, err)
	}
	if cfg.Jobs < 0 {
		return nil, loadErr(ErrCodeConfigInvalid, nil, "config %s: jobs must not be negative", path)
	}
	return &cfg, nil
}

// apply copies config values into opts for every flag the user did not set.
func (c *Config) apply(cmd *cobra.Command, opts *RootOptions) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if c.Format != "" && !changed("format") {
		opts.Format = c.Format
	}
	if c.Verbose && !changed("verbose") {
		opts.Verbose = true
	}
	if c.OutDir != "" && !changed("out-dir") {
		opts.OutDir = c.OutDir
	}
	if c.Jobs > 0 && !changed("jobs") {
		opts.Jobs = c.Jobs
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("out_dir=%q jobs=%d format=%q verbose=%t", c.OutDir, c.Jobs, c.Format, c.Verbose)
}
