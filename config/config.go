// Package config loads and validates the service configuration from a
// YAML file, a .env file, and CHATKIT_-prefixed environment variables,
// in increasing order of precedence.
package config

import (
	"fmt"

	"github.com/kbukum/chatkit/backend"
	"github.com/kbukum/chatkit/docconvert"
	"github.com/kbukum/chatkit/gateway"
	"github.com/kbukum/chatkit/logger"
	"github.com/kbukum/chatkit/observability"
	"github.com/kbukum/chatkit/session"
	"github.com/kbukum/chatkit/transcribe"
)

// Config is the root service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging    logger.Config        `yaml:"logging" mapstructure:"logging"`
	Backend    backend.Config       `yaml:"backend" mapstructure:"backend"`
	Retry      session.Config       `yaml:"retry" mapstructure:"retry"`
	Gateway    gateway.Config       `yaml:"gateway" mapstructure:"gateway"`
	DocConvert docconvert.Config    `yaml:"docconvert" mapstructure:"docconvert"`
	Transcribe transcribe.Config    `yaml:"transcribe" mapstructure:"transcribe"`
	Telemetry  observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults applies default values to the whole tree.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "chatkit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}

	c.Logging.ApplyDefaults()
	c.Backend.ApplyDefaults()
	c.Gateway.ApplyDefaults()
	c.DocConvert.ApplyDefaults()
	c.Transcribe.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate validates the whole tree.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	return nil
}
