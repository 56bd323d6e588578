// SPDX-License-Identifier: Apache-2.0

// Package config loads the formatter configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// DefaultContextWindowSize matches the window downstream UIs were designed
// around.
const DefaultContextWindowSize = 150

// Config controls how raw predictions are formatted.
type Config struct {
	// ContextWindowSize is the requested display window, in characters. The
	// effective window grows when an answer is longer than this.
	ContextWindowSize int `yaml:"context_window_size"`
	// AnswerTypes declares the answer types the task supports.
	AnswerTypes []string `yaml:"answer_types"`
	// SQuADFormat selects the SQuAD-compatible output schema.
	SQuADFormat bool `yaml:"squad_format"`
	// ValidateOutput runs the CUE schema check on every emitted document.
	ValidateOutput bool   `yaml:"validate_output"`
	LogLevel       string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ContextWindowSize: DefaultContextWindowSize,
		AnswerTypes:       []string{"span", "yes_no", "no_answer"},
		LogLevel:          "info",
	}
}

// Load reads a YAML config file and fills unset fields with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the formatter cannot work with.
func (c Config) Validate() error {
	if c.ContextWindowSize <= 0 {
		return fmt.Errorf("context_window_size must be positive, got %d", c.ContextWindowSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
