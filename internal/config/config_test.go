package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-project" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.World.Domain != "lists" || len(cfg.World.Values) != 4 {
			t.Fatalf("unexpected world %+v", cfg.World)
		}
		if cfg.Probe.Concurrency != 2 {
			t.Fatalf("expected concurrency 2, got %d", cfg.Probe.Concurrency)
		}
		if got := cfg.Path(cfg.KB.Rules); got != filepath.Join("testdata", "rules.mg") {
			t.Fatalf("rules path = %q", got)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nworld:\n  domain: lists\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
			t.Fatalf("unexpected log defaults %+v", cfg.Log)
		}
		if cfg.Probe.Concurrency != DefaultProbeConcurrency || cfg.Probe.Limit != DefaultProbeLimit {
			t.Fatalf("unexpected probe defaults %+v", cfg.Probe)
		}
		if cfg.Path(cfg.DomainFile) != filepath.Join(filepath.Dir(path), DefaultDomainFile) {
			t.Fatalf("unexpected domain file %q", cfg.Path(cfg.DomainFile))
		}
		if cfg.Path("") != "" {
			t.Fatalf("empty path should stay empty")
		}
	})

	t.Run("missing project name", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nworld:\n  domain: lists\n")
		_, err := LoadProjectConfig(path)
		if err == nil || !strings.Contains(err.Error(), "project is required") {
			t.Fatalf("expected project error, got %v", err)
		}
	})

	t.Run("blank project name", func(t *testing.T) {
		path := writeTempConfig(t, "project: \"  \"\nversion: 1\nworld:\n  domain: lists\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 2\nworld:\n  domain: lists\n")
		_, err := LoadProjectConfig(path)
		if err == nil || !strings.Contains(err.Error(), "unsupported version") {
			t.Fatalf("expected version error, got %v", err)
		}
	})

	t.Run("missing world domain", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\n")
		_, err := LoadProjectConfig(path)
		if err == nil || !strings.Contains(err.Error(), "world.domain is required") {
			t.Fatalf("expected domain error, got %v", err)
		}
	})

	t.Run("bad log format", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nlog:\n  format: xml\nworld:\n  domain: lists\n")
		_, err := LoadProjectConfig(path)
		if err == nil || !strings.Contains(err.Error(), "log.format must be one of") {
			t.Fatalf("expected format error, got %v", err)
		}
	})

	t.Run("negative concurrency", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nworld:\n  domain: lists\nprobe:\n  concurrency: -1\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "project: [\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "worldgraph.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
