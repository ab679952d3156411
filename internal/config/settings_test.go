package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Backend != BackendJIT || !s.Optimize || s.MaxSteps != DefaultMaxSteps {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	data := "backend: tree-walk\noptimize: false\ndump_ir: true\nartifacts: units.db\nlog_level: debug\ncolor: never\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Backend != BackendTreeWalk || s.Optimize || !s.DumpIR || s.Artifacts != "units.db" || s.Color != "never" {
		t.Errorf("unexpected settings: %+v", s)
	}
	level, err := s.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v (%v)", level, err)
	}
	if s.MaxSteps != DefaultMaxSteps {
		t.Errorf("expected default max steps, got %d", s.MaxSteps)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []string{
		"backend: llvm\n",
		"log_level: loud\n",
		"color: sometimes\n",
		"max_steps: -1\n",
		"backend: [\n",
	}
	for _, input := range tests {
		if _, err := Parse([]byte(input), "test.yaml"); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}
