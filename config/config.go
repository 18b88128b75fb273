// Package config loads adapter-layer configuration from YAML and supplies
// defaults. Mode switches are explicit values threaded through the
// components at construction; core logic never reads environment state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/recordflow/core"
)

// Duration wraps time.Duration with YAML support for values like "5m".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the adapter-layer configuration.
type Config struct {
	// Mode selects warn-and-correct or strict validation.
	Mode core.ValidationMode `yaml:"validation_mode"`

	// VerifyWrites enables post-write field persistence verification.
	VerifyWrites bool `yaml:"verify_writes"`

	// CacheTTL bounds positive-result cache entries (record reads, full
	// collections).
	CacheTTL Duration `yaml:"cache_ttl"`

	// NegativeTTL bounds the not-found cache.
	NegativeTTL Duration `yaml:"negative_ttl"`

	// OptionsTTL bounds cached select-attribute option sets.
	OptionsTTL Duration `yaml:"options_ttl"`

	// SweepSchedule is a UTC cron expression for the background cache
	// sweep; empty disables the sweeper.
	SweepSchedule string `yaml:"sweep_schedule"`

	// VolumeWarnThreshold triggers a performance warning when a fresh
	// full-collection load exceeds this many records.
	VolumeWarnThreshold int `yaml:"volume_warn_threshold"`

	// DefaultLimit applies to searches that carry no limit.
	DefaultLimit int `yaml:"default_limit"`

	// DefaultStage is substituted for unmatched stage values in warn
	// mode; defaults to the first fallback stage.
	DefaultStage string `yaml:"default_stage"`

	// FallbackStages is used when the option API is unreachable.
	FallbackStages []string `yaml:"fallback_stages"`

	// MaxSuggestions caps ranked suggestion lists.
	MaxSuggestions int `yaml:"max_suggestions"`

	// MaxEditDistance is the acceptance threshold for fuzzy stage
	// correction.
	MaxEditDistance int `yaml:"max_edit_distance"`

	// MappingStorePath points at the SQLite store of workspace-defined
	// field aliases; empty skips custom aliases.
	MappingStorePath string `yaml:"mapping_store_path"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Mode:                core.ModeWarn,
		VerifyWrites:        true,
		CacheTTL:            Duration(5 * time.Minute),
		NegativeTTL:         Duration(60 * time.Second),
		OptionsTTL:          Duration(5 * time.Minute),
		VolumeWarnThreshold: 500,
		DefaultLimit:        20,
		MaxSuggestions:      3,
		MaxEditDistance:     3,
	}
}

// Load reads a YAML configuration file, layering it over Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 -- path from caller
	if err != nil {
		return Config{}, fmt.Errorf("config: reading file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unusable configurations.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return core.NewAdapterError(core.ErrCodeInvalidConfig,
			"validation_mode must be %q or %q, got %q", core.ModeWarn, core.ModeStrict, c.Mode)
	}
	if c.CacheTTL < 0 || c.NegativeTTL < 0 || c.OptionsTTL < 0 {
		return core.NewAdapterError(core.ErrCodeInvalidConfig, "TTLs must not be negative")
	}
	if c.DefaultLimit < 0 {
		return core.NewAdapterError(core.ErrCodeInvalidConfig, "default_limit must not be negative")
	}
	return nil
}
