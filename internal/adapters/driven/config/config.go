// Package config loads optional analyzer settings from a TOML file.
// Settings cover the filtering limits and priority weights; both are
// policy knobs, so a config file can tune them without a rebuild. Flags
// still override file values.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/filter"
)

// FileName is the per-user config file under the config directory.
const FileName = "config.toml"

// LimitsSection holds filtering limit overrides.
type LimitsSection struct {
	MaxFiles      int   `toml:"max_files"`
	MaxTotalBytes int64 `toml:"max_total_bytes"`
	MaxFileBytes  int64 `toml:"max_file_bytes"`
}

// PrioritySection holds priority weight overrides.
type PrioritySection struct {
	Default          int   `toml:"default"`
	DepthPenalty     int   `toml:"depth_penalty"`
	LargeFileBytes   int64 `toml:"large_file_bytes"`
	LargeFilePenalty int   `toml:"large_file_penalty"`
}

// Config mirrors the TOML file layout. Zero values mean "use the default".
type Config struct {
	Limits   LimitsSection   `toml:"limits"`
	Priority PrioritySection `toml:"priority"`
}

// DefaultPath returns ~/.repolens/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".repolens", FileName), nil
}

// Load reads the config file at path. A missing file is not an error; it
// yields the zero Config.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MergedLimits overlays the file's limit overrides onto the defaults.
func (c Config) MergedLimits() domain.Limits {
	limits := domain.DefaultLimits()
	if c.Limits.MaxFiles > 0 {
		limits.MaxFiles = c.Limits.MaxFiles
	}
	if c.Limits.MaxTotalBytes > 0 {
		limits.MaxTotalBytes = c.Limits.MaxTotalBytes
	}
	if c.Limits.MaxFileBytes > 0 {
		limits.MaxFileBytes = c.Limits.MaxFileBytes
	}
	return limits
}

// MergedWeights overlays the file's priority overrides onto the defaults.
func (c Config) MergedWeights() filter.Weights {
	w := filter.DefaultWeights()
	if c.Priority.Default > 0 {
		w.Default = c.Priority.Default
	}
	if c.Priority.DepthPenalty > 0 {
		w.DepthPenalty = c.Priority.DepthPenalty
	}
	if c.Priority.LargeFileBytes > 0 {
		w.LargeFileBytes = c.Priority.LargeFileBytes
	}
	if c.Priority.LargeFilePenalty > 0 {
		w.LargeFilePenalty = c.Priority.LargeFilePenalty
	}
	return w
}
