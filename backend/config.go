package backend

import (
	"fmt"
	"time"
)

// Default endpoint paths on the chat backend.
const (
	defaultChatPath        = "/api/chat"
	defaultPersistTurnPath = "/persist-turn"
	defaultPersistUserPath = "/persist-user-message"
	defaultMessagesPath    = "/messages"
	defaultTitlePath       = "/generate-title"
	defaultTokenCountPath  = "/count-tokens"
	defaultSpeechPath      = "/synthesize"
	defaultUploadPath      = "/upload"
)

// Config configures the backend client.
type Config struct {
	// BaseURL is the chat backend's base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds non-streaming collaborator calls. Defaults to 30s.
	// The streaming turn call is unbounded; its lifetime is governed by
	// the request context and IdleReadTimeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// IdleReadTimeout converts a stream that stops producing bytes into a
	// retryable failure. Zero disables the watchdog and relies on
	// transport-level timeouts alone.
	IdleReadTimeout time.Duration `yaml:"idle_read_timeout" mapstructure:"idle_read_timeout"`

	// AuthToken, when set, is sent as a bearer token on every request.
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// BreakerMaxFailures opens the collaborator breaker after this many
	// consecutive failures. Defaults to 5.
	BreakerMaxFailures int `yaml:"breaker_max_failures" mapstructure:"breaker_max_failures"`

	// BreakerCooldown is the rejection window once the breaker opens.
	// Defaults to 30s.
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BreakerMaxFailures == 0 {
		c.BreakerMaxFailures = 5
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Timeout < 0 || c.IdleReadTimeout < 0 {
		return fmt.Errorf("backend timeouts must not be negative")
	}
	return nil
}
