package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "inkgraph")
	target := &sample{Count: 7}
	if err := Load(writeConfig(t, "name: ${SAMPLE_NAME}\n"), target); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if target.Name != "inkgraph" || target.Count != 7 {
		t.Errorf("target = %+v", target)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	err := Load(writeConfig(t, "count: -1\n"), &sample{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadOptional_MissingFileUsesDefaults(t *testing.T) {
	target := &sample{Name: "default"}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), target)
	if err != nil || found {
		t.Fatalf("LoadOptional = %v, %v", found, err)
	}
	if target.Name != "default" {
		t.Errorf("defaults overwritten: %+v", target)
	}

	if _, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &sample{Count: -2}); err == nil {
		t.Error("defaults should still be validated")
	}
}

func TestLoadOptional_ParseError(t *testing.T) {
	found, err := LoadOptional(writeConfig(t, "name: [unclosed\n"), &sample{})
	if err == nil || found {
		t.Errorf("LoadOptional = %v, %v", found, err)
	}
}
