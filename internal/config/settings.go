package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the top-level exprjit.yaml configuration.
type Settings struct {
	// Backend selects how top-level expressions run: "jit" or "tree-walk".
	Backend string `yaml:"backend"`

	// Optimize runs the peephole pass over every lowered function.
	Optimize bool `yaml:"optimize"`

	// DumpIR prints the IR of each compiled unit before it is added to the engine.
	DumpIR bool `yaml:"dump_ir"`

	// Artifacts is the path of a SQLite database receiving the IR of every
	// compiled unit. Empty disables the store.
	Artifacts string `yaml:"artifacts,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Color is auto, always or never.
	Color string `yaml:"color"`

	// MaxSteps bounds the instructions executed by one invocation. Zero means DefaultMaxSteps.
	MaxSteps int64 `yaml:"max_steps,omitempty"`
}

// Default returns the settings used when no configuration file exists.
func Default() *Settings {
	return &Settings{
		Backend:  BackendJIT,
		Optimize: true,
		LogLevel: "warn",
		Color:    "auto",
		MaxSteps: DefaultMaxSteps,
	}
}

// Load reads settings from path. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML settings on top of the defaults.
func Parse(data []byte, source string) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return s, nil
}

// Validate checks the enumerated fields.
func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendJIT, BackendTreeWalk:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", s.Backend, BackendJIT, BackendTreeWalk)
	}
	if _, err := s.SlogLevel(); err != nil {
		return err
	}
	switch s.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unknown color mode %q", s.Color)
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}
	if s.MaxSteps == 0 {
		s.MaxSteps = DefaultMaxSteps
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (s *Settings) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", s.LogLevel)
}

// NewLogger builds the stderr text logger used for engine tracing.
func (s *Settings) NewLogger() *slog.Logger {
	level, _ := s.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
