// Package config handles loading and validation of sprout run settings.
package config

import (
	"fmt"

	"github.com/chazu/sprout/internal/logger"
	"github.com/chazu/sprout/pkg/export"
	"github.com/chazu/sprout/pkg/growth"
	"github.com/chazu/sprout/pkg/seed"
)

// Config holds all run settings.
type Config struct {
	Seed    seed.Spec     `yaml:"seed"`
	Growth  growth.Config `yaml:"growth"`
	Run     RunConfig     `yaml:"run"`
	Logging LoggingConfig `yaml:"logging"`
}

// RunConfig holds how long to grow and where snapshots go.
type RunConfig struct {
	Steps         int      `yaml:"steps"`
	SnapshotEvery int      `yaml:"snapshot_every"` // 0 = final mesh only
	OutputDir     string   `yaml:"output_dir"`
	Name          string   `yaml:"name"` // snapshot file prefix
	Formats       []string `yaml:"formats"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Seed:   seed.DefaultSpec(),
		Growth: growth.Default(),
		Run: RunConfig{
			Steps:         100,
			SnapshotEvery: 0,
			OutputDir:     "out",
			Name:          "sprout",
			Formats:       []string{"stl"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if err := c.Growth.Validate(); err != nil {
		return err
	}
	if c.Run.Steps < 0 {
		return fmt.Errorf("config: run.steps must not be negative, got %d", c.Run.Steps)
	}
	if c.Run.SnapshotEvery < 0 {
		return fmt.Errorf("config: run.snapshot_every must not be negative, got %d", c.Run.SnapshotEvery)
	}
	if c.Run.Name == "" {
		return fmt.Errorf("config: run.name is empty")
	}
	if len(c.Run.Formats) == 0 {
		return fmt.Errorf("config: run.formats is empty")
	}
	for _, f := range c.Run.Formats {
		if !contains(export.Formats, f) {
			return fmt.Errorf("config: unknown format %q (expected one of %v)", f, export.Formats)
		}
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
