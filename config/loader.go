package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables the loader honors:
// CHATKIT_BACKEND_BASE_URL maps onto the backend.base_url key.
const envPrefix = "CHATKIT_"

// FileSystem abstracts the file probes for tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFileSystem struct{}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderOption customizes a Load call.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	fs         FileSystem
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path, skipping the search.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path, skipping the search.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// WithFileSystem substitutes the file probes, for tests.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *loaderConfig) { lc.fs = fs }
}

// Load builds the configuration: YAML file first, then the .env file,
// then CHATKIT_-prefixed environment variables, then defaults for
// whatever remains unset. A missing config file is not an error; the
// environment plus defaults may be a complete configuration.
func Load(opts ...LoaderOption) (*Config, error) {
	lc := loaderConfig{fs: osFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.configFile == "" {
		lc.configFile = findFirst(lc.fs, "./config.yml", "./config/config.yml", "../config/config.yml")
	}
	if lc.envFile == "" {
		lc.envFile = findFirst(lc.fs, "./.env", "../.env")
	}

	if lc.envFile != "" {
		if err := lc.fs.LoadEnv(lc.envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", lc.envFile, err)
		}
	}

	v := viper.New()
	if lc.configFile != "" && lc.fs.Exists(lc.configFile) {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", lc.configFile, err)
		}
	}

	// Viper's AutomaticEnv does not surface env-only keys through
	// Unmarshal, so prefixed variables are set explicitly.
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findFirst(fs FileSystem, paths ...string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// bindEnv maps CHATKIT_SECTION_SOME_KEY onto viper's section.some_key.
// Section names are single path elements, so only the first underscore
// splits the path; the rest stays part of the key name.
func bindEnv(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], envPrefix))
		if key == "" {
			continue
		}
		// Top-level scalars (name, debug, ...) have no section part.
		if section, rest, ok := strings.Cut(key, "_"); ok && isSection(section) {
			v.Set(section+"."+rest, pair[1])
			continue
		}
		v.Set(key, pair[1])
	}
}

func isSection(name string) bool {
	switch name {
	case "logging", "backend", "retry", "gateway", "docconvert", "transcribe", "telemetry":
		return true
	}
	return false
}
