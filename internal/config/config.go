// Package config loads runtime configuration from the environment and an
// optional testsmith.yaml file next to the scanned sources. Environment
// variables win over the file, the file wins over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the optional per-project configuration file.
const FileName = "testsmith.yaml"

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultFramework = "junit"

	defaultGenerationTimeoutSec = 120
	defaultValidationTimeoutSec = 10
)

// Config is the resolved runtime configuration.
type Config struct {
	// APIKey comes from OPENAI_API_KEY only, never from the yaml file.
	APIKey  string `yaml:"-"`
	BaseURL string `yaml:"apiBase"`
	Model   string `yaml:"model"`

	Framework string   `yaml:"framework"`
	TestDir   string   `yaml:"testDir"`
	Excludes  []string `yaml:"exclude"`

	GenerationTimeoutSec int `yaml:"generationTimeoutSeconds"`
	ValidationTimeoutSec int `yaml:"validationTimeoutSeconds"`
}

// GenerationTimeout bounds one external generation call.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSec) * time.Second
}

// ValidationTimeout bounds one native toolchain invocation.
func (c *Config) ValidationTimeout() time.Duration {
	return time.Duration(c.ValidationTimeoutSec) * time.Second
}

// Load resolves configuration for a run rooted at dir. A missing .env or
// testsmith.yaml is not an error; a malformed testsmith.yaml is.
func Load(dir string) (*Config, error) {
	// .env is optional and only affects the process environment.
	_ = godotenv.Load()

	cfg := &Config{
		Model:                DefaultModel,
		Framework:            DefaultFramework,
		GenerationTimeoutSec: defaultGenerationTimeoutSec,
		ValidationTimeoutSec: defaultValidationTimeoutSec,
	}

	path := filepath.Join(dir, FileName)
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("OPENAI_API_BASE"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Model = v
	}
	if cfg.GenerationTimeoutSec <= 0 {
		cfg.GenerationTimeoutSec = defaultGenerationTimeoutSec
	}
	if cfg.ValidationTimeoutSec <= 0 {
		cfg.ValidationTimeoutSec = defaultValidationTimeoutSec
	}
	return cfg, nil
}
