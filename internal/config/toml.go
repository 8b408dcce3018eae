// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/textproc"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Language LanguageConfig `toml:"language"`
}

// AnalysisConfig maps analysis-related settings.
type AnalysisConfig struct {
	SystemA     *string  `toml:"system-a"`
	SystemB     *string  `toml:"system-b"`
	Lang        *string  `toml:"lang"`
	Band        *float64 `toml:"band"`
	TopN        *int     `toml:"top-n"`
	Threshold   *float64 `toml:"over-transcription"`
	CurveWindow *int     `toml:"curve-window"`
	DBPath      *string  `toml:"db"`
}

// LanguageConfig overrides parts of the selected language profile.
type LanguageConfig struct {
	Name       *string  `toml:"name"`
	Clusters   []string `toml:"clusters"`
	Vowels     *string  `toml:"vowels"`
	Consonants *string  `toml:"consonants"`
}

func (l LanguageConfig) empty() bool {
	return l.Name == nil && l.Clusters == nil && l.Vowels == nil && l.Consonants == nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Names returns the configured system names, falling back to defaults.
func (c FileConfig) Names() model.Names {
	names := model.DefaultNames
	if v := c.Analysis.SystemA; v != nil && strings.TrimSpace(*v) != "" {
		names.A = strings.TrimSpace(*v)
	}
	if v := c.Analysis.SystemB; v != nil && strings.TrimSpace(*v) != "" {
		names.B = strings.TrimSpace(*v)
	}
	return names
}

// ResolveProfile looks up the built-in profile lang and applies the
// [language] overrides on top of it.
func ResolveProfile(lang string, overrides LanguageConfig) (textproc.Profile, error) {
	base, err := textproc.Lookup(lang)
	if err != nil {
		return textproc.Profile{}, err
	}
	if overrides.empty() {
		return base, nil
	}
	name := base.Name()
	if overrides.Name != nil && strings.TrimSpace(*overrides.Name) != "" {
		name = strings.TrimSpace(*overrides.Name)
	}
	clusters := base.Clusters()
	if overrides.Clusters != nil {
		clusters = overrides.Clusters
	}
	vowels := base.Vowels()
	if overrides.Vowels != nil {
		vowels = *overrides.Vowels
	}
	consonants := base.Consonants()
	if overrides.Consonants != nil {
		consonants = *overrides.Consonants
	}
	profile, err := textproc.NewProfile(name, clusters, vowels, consonants)
	if err != nil {
		return textproc.Profile{}, fmt.Errorf("invalid [language] section: %w", err)
	}
	return profile, nil
}
