package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/chazu/sprout/pkg/recipe"
	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags. An
// empty f.Config searches the standard locations; no file there is fine.
func Load(f *Flags) (*Config, error) {
	return load(f, nil)
}

// LoadRecipe is Load with r layered between the file and the flags: the
// recipe replaces the seed, growth and step settings, and any flag given
// still wins over it.
func LoadRecipe(f *Flags, r *recipe.Recipe) (*Config, error) {
	return load(f, func(cfg *Config) {
		cfg.Seed = r.Seed
		cfg.Growth = r.Config
		cfg.Run.Steps = r.Steps
		cfg.Run.SnapshotEvery = r.SnapshotEvery
	})
}

func load(f *Flags, overlay func(*Config)) (*Config, error) {
	cfg := Default()

	configPath := ""
	if f != nil {
		configPath = f.Config
	}
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	if overlay != nil {
		overlay(cfg)
	}

	if f != nil {
		if err := f.Apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./sprout.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Sprout")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Sprout")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "sprout")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "sprout")
	}
}

// loadFromFile merges a YAML file over the values already in cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
