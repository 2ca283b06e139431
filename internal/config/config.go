// Package config loads the tool configuration: an optional nscast.yaml
// file with NSCAST_-prefixed environment overrides, plus the standalone
// camera tuning file consumed by the Smart Camera Engine.
package config

import (
	"fmt"
	"os"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/neurochelplus/NeuroScreenCaster/internal/engine"
)

// Config is the tool-level configuration. Per-project options live in
// project.json; this only covers machine/workflow concerns.
type Config struct {
	ProjectsRoot string `koanf:"projects_root"`
	Export       struct {
		Workers int  `koanf:"workers"`
		Debug   bool `koanf:"debug"`
	} `koanf:"export"`
	Engine struct {
		TuningPath string `koanf:"tuning_path"`
	} `koanf:"engine"`
}

// Load reads the configuration: defaults, then the yaml file at path (if
// it exists), then NSCAST_ environment variables. NSCAST_EXPORT_WORKERS=4
// maps to export.workers.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	k.Set("projects_root", defaultProjectsRoot())
	k.Set("export.workers", 0) // 0 = auto
	k.Set("export.debug", false)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("NSCAST_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "NSCAST_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultProjectsRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/Videos/NeuroScreenCaster"
}

// LoadEngineTuning reads a camera tuning file over the stock defaults.
// A missing path keeps the defaults; a malformed file is an error rather
// than a silent fallback.
func LoadEngineTuning(path string) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read engine tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse engine tuning: %w", err)
	}
	return cfg, nil
}

// SaveEngineTuning writes the current tuning, for bootstrapping a file to
// edit.
func SaveEngineTuning(path string, cfg engine.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
