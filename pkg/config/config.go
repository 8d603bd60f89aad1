package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for termtrace
type Config struct {
	// LogDir is the per-user directory both log files are written to.
	LogDir string `yaml:"log_dir" env:"TERMTRACE_LOG_DIR"`

	// Shell is the command spawned inside the PTY.
	Shell string `yaml:"shell" env:"TERMTRACE_SHELL"`

	// NoRename skips the interactive rename prompt at session end.
	NoRename bool `yaml:"no_rename" env:"TERMTRACE_NO_RENAME"`

	// Redact patterns are applied to reconstructed lines before they are
	// written to the clean log. The raw log is never redacted.
	Redact []Pattern `yaml:"redact"`
}

// Pattern represents a configurable redaction pattern.
type Pattern struct {
	Name        string         `yaml:"name"`
	Regex       string         `yaml:"regex"`
	Description string         `yaml:"description"`
	Enabled     bool           `yaml:"enabled"`
	compiled    *regexp.Regexp `yaml:"-"`
}

// CompiledRegex returns the compiled regular expression
func (p *Pattern) CompiledRegex() *regexp.Regexp {
	return p.compiled
}

// SetCompiledRegex sets the compiled regular expression
func (p *Pattern) SetCompiledRegex(re *regexp.Regexp) {
	p.compiled = re
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		Shell: "/bin/bash",
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		cfg.Shell = shell
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.LogDir = filepath.Join(home, ".termtrace")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Compile redaction patterns
	if err := compilePatterns(cfg); err != nil {
		return nil, fmt.Errorf("failed to compile patterns: %w", err)
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check for explicit config path
	if path := os.Getenv("TERMTRACE_CONFIG"); path != "" {
		return path
	}

	// Check XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "termtrace", "config.yaml")
	}

	// Fall back to home directory
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "termtrace", "config.yaml")
	}

	return ""
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if dir := os.Getenv("TERMTRACE_LOG_DIR"); dir != "" {
		cfg.LogDir = dir
	}

	if shell := os.Getenv("TERMTRACE_SHELL"); shell != "" {
		cfg.Shell = shell
	}

	if noRename := os.Getenv("TERMTRACE_NO_RENAME"); noRename != "" {
		switch noRename {
		case "true", "1", "yes":
			cfg.NoRename = true
		case "false", "0", "no":
			cfg.NoRename = false
		default:
			return fmt.Errorf("invalid TERMTRACE_NO_RENAME value: %q (use true/false)", noRename)
		}
	}

	return nil
}

// compilePatterns compiles all enabled redaction patterns
func compilePatterns(cfg *Config) error {
	for i := range cfg.Redact {
		pattern := &cfg.Redact[i]
		if pattern.Enabled && pattern.Regex != "" {
			re, err := regexp.Compile(pattern.Regex)
			if err != nil {
				return fmt.Errorf("failed to compile pattern %q: %w", pattern.Name, err)
			}
			pattern.SetCompiledRegex(re)
		}
	}
	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.LogDir == "" {
		return fmt.Errorf("log_dir is required (no home directory found)")
	}

	if cfg.Shell == "" {
		return fmt.Errorf("shell is required")
	}

	return nil
}
