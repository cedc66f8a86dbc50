// Package config holds the settings for one concatenation run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Paths used when nothing else is configured.
const (
	DefaultInput1 = "fits_file/selected_images-part1.fits"
	DefaultInput2 = "fits_file/selected_images-part2.fits"
	DefaultInput3 = "fits_file/selected_images-part3.fits"
	DefaultOutput = "selected_image.fits"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config names the three input files and the output file.
type Config struct {
	Input1    string `yaml:"input1"`
	Input2    string `yaml:"input2"`
	Input3    string `yaml:"input3"`
	Output    string `yaml:"output"`
	Overwrite bool   `yaml:"overwrite"`
}

// Default returns the configuration with the default paths.
func Default() Config {
	return Config{
		Input1: DefaultInput1,
		Input2: DefaultInput2,
		Input3: DefaultInput3,
		Output: DefaultOutput,
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Inputs returns the input paths in concatenation order.
func (c Config) Inputs() []string {
	return []string{c.Input1, c.Input2, c.Input3}
}

// Validate checks that every path is set and that the output is not one
// of the inputs.
func (c Config) Validate() error {
	for i, in := range c.Inputs() {
		if in == "" {
			return fmt.Errorf("%w: input%d is empty", ErrInvalid, i+1)
		}
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output is empty", ErrInvalid)
	}

	out := filepath.Clean(c.Output)
	for i, in := range c.Inputs() {
		if filepath.Clean(in) == out {
			return fmt.Errorf("%w: output %s is also input%d", ErrInvalid, c.Output, i+1)
		}
	}

	return nil
}
