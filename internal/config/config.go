// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the converter.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultMaxMessageSize is 25 MB in bytes.
const defaultMaxMessageSize = 26214400

// Config holds the complete application configuration.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds conversion settings.
type ConvertConfig struct {
	Format string `yaml:"format"`
	// MaxMessageSize bounds the input size in bytes. Zero or less disables
	// the limit.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// OutputConfig holds where rendered documents are written. An empty path
// or "-" means standard output.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Convert.Format = strings.ToLower(cfg.Convert.Format)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// SizeLimited returns true if input messages are bounded in size.
func (c *Config) SizeLimited() bool {
	return c.Convert.MaxMessageSize > 0
}

// WritesToStdout returns true if rendered output goes to standard output.
func (c *Config) WritesToStdout() bool {
	return c.Output.Path == "" || c.Output.Path == "-"
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Convert.Format = "simple"
	c.Convert.MaxMessageSize = defaultMaxMessageSize
	c.Logging.Level = "info"
	c.Logging.Format = "text"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("EML2MD_FORMAT"); v != "" {
		c.Convert.Format = strings.ToLower(v)
	}
	if v := os.Getenv("EML2MD_MAX_MESSAGE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Convert.MaxMessageSize = size
		}
	}

	if v := os.Getenv("EML2MD_OUTPUT"); v != "" {
		c.Output.Path = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}
