// Package config contains the sigtool configuration types and YAML loader.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/remiblancher/signature/internal/digest"
	"github.com/remiblancher/signature/internal/fixtures"
)

// Environment overrides, applied after the file is read.
const (
	EnvFixtures = fixtures.EnvDir
	EnvAuditLog = "SIGNATURE_AUDIT_LOG"
	EnvLogLevel = "SIGNATURE_LOG_LEVEL"
)

// Config represents the sigtool YAML configuration.
type Config struct {
	// FixturesDir holds the <name>.pem key files used by test vectors
	FixturesDir string `yaml:"fixtures_dir"`

	// AuditLog is the path of the hash-chained audit log (empty disables it)
	AuditLog string `yaml:"audit_log"`

	// LogLevel is a zerolog level name: trace, debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// DefaultAlgorithm is used when --algorithm is not given
	DefaultAlgorithm string `yaml:"default_algorithm"`

	// PassphraseEnv names the environment variable holding the key passphrase
	PassphraseEnv string `yaml:"passphrase_env"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FixturesDir:      fixtures.DefaultDir(),
		LogLevel:         "warn",
		DefaultAlgorithm: digest.SHA256.String(),
	}
}

// Load reads the configuration at path on top of Default. An empty path
// yields the defaults. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-chosen config file
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SIGNATURE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvFixtures); v != "" {
		c.FixturesDir = v
	}
	if v := os.Getenv(EnvAuditLog); v != "" {
		c.AuditLog = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Algorithm(); err != nil {
		return err
	}
	if c.FixturesDir == "" {
		return fmt.Errorf("fixtures_dir is required")
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.WarnLevel, nil
	}
	return lvl, nil
}

// Algorithm returns the parsed default digest algorithm.
func (c *Config) Algorithm() (digest.Algorithm, error) {
	alg, err := digest.Parse(c.DefaultAlgorithm)
	if err != nil {
		return 0, fmt.Errorf("default_algorithm: %w", err)
	}
	return alg, nil
}

// Passphrase returns the passphrase named by PassphraseEnv, or nil when no
// variable is configured.
func (c *Config) Passphrase() (*string, error) {
	return PassphraseFromEnv(c.PassphraseEnv)
}

// PassphraseFromEnv reads a passphrase from the named variable. An empty
// name means no passphrase.
func PassphraseFromEnv(name string) (*string, error) {
	if name == "" {
		return nil, nil
	}
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil, fmt.Errorf("environment variable %s is not set or empty", name)
	}
	return &v, nil
}
