package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dysgair/capteval/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Analysis.Band != nil || cfg.Names() != model.DefaultNames {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := writeConfig(t, `
[analysis]
system-a = "Whisper large"
band = 2.5
top-n = 5
curve-window = 10

[language]
clusters = ["ll", "ch"]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	names := cfg.Names()
	if names.A != "Whisper large" || names.B != model.DefaultNames.B {
		t.Fatalf("unexpected names: %+v", names)
	}
	if cfg.Analysis.Band == nil || *cfg.Analysis.Band != 2.5 {
		t.Fatalf("unexpected band: %v", cfg.Analysis.Band)
	}
	if cfg.Analysis.TopN == nil || *cfg.Analysis.TopN != 5 {
		t.Fatalf("unexpected top-n: %v", cfg.Analysis.TopN)
	}
	if cfg.Analysis.Threshold != nil {
		t.Fatalf("expected unset threshold")
	}
	if len(cfg.Language.Clusters) != 2 {
		t.Fatalf("unexpected clusters: %v", cfg.Language.Clusters)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[analysis]\nbnad = 1.0\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "bnad") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestResolveProfile(t *testing.T) {
	base, err := ResolveProfile("cy", LanguageConfig{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(base.Clusters()) != 8 {
		t.Fatalf("expected built-in Welsh clusters, got %v", base.Clusters())
	}

	name := "cy-north"
	custom, err := ResolveProfile("cy", LanguageConfig{Name: &name, Clusters: []string{"ll"}})
	if err != nil {
		t.Fatalf("resolve custom: %v", err)
	}
	if custom.Name() != "cy-north" || len(custom.Clusters()) != 1 {
		t.Fatalf("unexpected custom profile: %s %v", custom.Name(), custom.Clusters())
	}
	if custom.Vowels() != base.Vowels() {
		t.Fatalf("expected vowels to be inherited")
	}

	if _, err := ResolveProfile("xx", LanguageConfig{}); err == nil {
		t.Fatalf("expected error for unknown language")
	}
	if _, err := ResolveProfile("cy", LanguageConfig{Clusters: []string{"llw"}}); err == nil {
		t.Fatalf("expected error for invalid cluster")
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "capteval", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := (FileConfig{}).DBPath(); got != filepath.Join("/tmp/data", "capteval", "capteval.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	custom := "/srv/capteval.db"
	cfg := FileConfig{Analysis: AnalysisConfig{DBPath: &custom}}
	if got := cfg.DBPath(); got != custom {
		t.Fatalf("unexpected custom db path: %s", got)
	}
}
