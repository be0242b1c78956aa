// Package config defines the runtime configuration surface and its loading
// rules. Configuration is read once per process from a JSON file in the data
// directory, with environment and flag overrides layered on top via viper.
package config

import (
	"fmt"
	"strings"
)

// LogConfig controls log output destinations and rotation.
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log-dir"`
	MaxSize       int    `json:"max_size" mapstructure:"max-size"`
	MaxBackups    int    `json:"max_backups" mapstructure:"max-backups"`
	MaxAge        int    `json:"max_age" mapstructure:"max-age"`
	Compress      bool   `json:"compress" mapstructure:"compress"`
}

// Config is the full runtime configuration.
type Config struct {
	// DataDir holds the bbolt database, the config file, and log files.
	DataDir string `json:"data_dir,omitempty" mapstructure:"data-dir"`
	// SkillsDir is the directory `scan --skills` walks.
	SkillsDir string `json:"skills_dir,omitempty" mapstructure:"skills-dir"`
	// ScanExtensions lists the file extensions treated as prose when
	// walking directories and changesets.
	ScanExtensions []string `json:"scan_extensions,omitempty" mapstructure:"scan-extensions"`
	// EntropyThreshold is the bits-per-symbol cutoff for fenced code
	// blocks in skill files.
	EntropyThreshold float64 `json:"entropy_threshold,omitempty" mapstructure:"entropy-threshold"`
	// AuditDetailBudget caps the detail field of stored audit events,
	// in bytes.
	AuditDetailBudget int `json:"audit_detail_budget,omitempty" mapstructure:"audit-detail-budget"`

	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`
}

// DefaultConfig returns the configuration used when no file or override is
// present.
func DefaultConfig() *Config {
	return &Config{
		ScanExtensions:    []string{".md", ".markdown", ".mdc"},
		EntropyThreshold:  4.5,
		AuditDetailBudget: 1024,
		Logging: &LogConfig{
			Level:         "warn",
			EnableFile:    false,
			EnableConsole: true,
			Filename:      "hookguard.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
		},
	}
}

// Validate checks invariants that would make later behavior silently wrong.
func (c *Config) Validate() error {
	if c.EntropyThreshold <= 0 || c.EntropyThreshold > 8 {
		return fmt.Errorf("entropy_threshold must be in (0, 8], got %v", c.EntropyThreshold)
	}
	if c.AuditDetailBudget <= 0 {
		return fmt.Errorf("audit_detail_budget must be positive, got %d", c.AuditDetailBudget)
	}
	if len(c.ScanExtensions) == 0 {
		return fmt.Errorf("scan_extensions must not be empty")
	}
	for _, ext := range c.ScanExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("scan extension %q must start with a dot", ext)
		}
	}
	if c.Logging != nil {
		switch c.Logging.Level {
		case "", "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("unknown log level %q", c.Logging.Level)
		}
	}
	return nil
}
