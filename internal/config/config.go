package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	APIKeys            []string      `env:"GEMINI_API_KEY" envSeparator:","`
	Model              string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	BaseURL            string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	MaxOutputTokens    int           `env:"MAX_OUTPUT_TOKENS" envDefault:"2048"`
	DefaultImagePrompt string        `env:"DEFAULT_IMAGE_PROMPT" envDefault:"Describe this image."`
	MaxImageBytes      int64         `env:"MAX_IMAGE_BYTES" envDefault:"5242880"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`
	ClientProfile      string        `env:"CLIENT_PROFILE" envDefault:"chrome_133"`
	Port               string        `env:"PORT" envDefault:"8007"`
	ProxyAPIKey        string        `env:"PROXY_API_KEY"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	ModelMapping       string        `env:"MODEL_MAPPING"`
	Debug              bool          `env:"DEBUG"`

	modelMapping map[string]string
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	keys := c.APIKeys[:0]
	for _, k := range c.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.APIKeys = keys
	c.Model = strings.TrimSpace(c.Model)
	c.modelMapping = parseModelMapping(c.ModelMapping)
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.APIKeys) == 0 {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("GEMINI_MODEL must not be empty"))
	}
	if c.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("MAX_OUTPUT_TOKENS must be positive, got %d", c.MaxOutputTokens))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_IMAGE_BYTES must be positive, got %d", c.MaxImageBytes))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	return errors.Join(errs...)
}
