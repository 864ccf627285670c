package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultNetwork     = api.NetworkMainnet
	DefaultTimeout     = 30 * time.Second
	DefaultRetryWait   = 500 * time.Millisecond
	DefaultGapLimit    = 20
	DefaultConcurrency = 5

	envPrefix = "mempool"
)

var ErrInvalidConfig = errors.New("invalid config")

type ctxKey string

const configContextKey ctxKey = "mempool.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	Network     string        `yaml:"network"`
	BaseURL     string        `yaml:"baseUrl"     split_words:"true"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	RetryWait   time.Duration `yaml:"retryWait"   split_words:"true"`
	UserAgent   string        `yaml:"userAgent"   split_words:"true"`
	MetricsAddr string        `yaml:"metricsAddr" split_words:"true"`
	Trace       bool          `yaml:"trace"`
	// send spans to an OTLP collector configured through OTEL_EXPORTER_OTLP_* instead of stdout
	TraceOTLP   bool          `yaml:"traceOtlp"   envconfig:"TRACE_OTLP"`
	GapLimit    uint32        `yaml:"gapLimit"    split_words:"true"`
	Concurrency int           `yaml:"concurrency"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Network:     DefaultNetwork,
		Timeout:     DefaultTimeout,
		RetryWait:   DefaultRetryWait,
		GapLimit:    DefaultGapLimit,
		Concurrency: DefaultConcurrency,
	}
}

// DefaultConfigPath returns ~/.mempool/mempool.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".mempool", "mempool.yaml")
}

// LoadConfig overlays the YAML file at configFile, then MEMPOOL_* environment
// variables, onto the defaults. An empty configFile falls back to the
// default path when that file exists.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	if configFile == "" {
		if userPath := DefaultConfigPath(); userPath != "" {
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Process environment variables
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be corrected later
func (c *Config) Validate() error {
	c.Network = strings.ToLower(strings.TrimSpace(c.Network))
	if c.Network == "" {
		c.Network = DefaultNetwork
	}
	if _, err := bitcoin.ParamsForNetwork(c.Network); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.BaseURL == "" {
		if _, err := api.BaseURLForNetwork(c.Network); err != nil {
			return fmt.Errorf("%w: %v, set baseUrl", ErrInvalidConfig, err)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative, got %d", ErrInvalidConfig, c.Retries)
	}
	if c.RetryWait < 0 {
		return fmt.Errorf("%w: retryWait must not be negative, got %s", ErrInvalidConfig, c.RetryWait)
	}
	if c.GapLimit < 1 {
		return fmt.Errorf("%w: gapLimit must be at least 1", ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency)
	}
	return nil
}

// ResolvedBaseURL returns BaseURL, or the public endpoint of Network when unset
func (c *Config) ResolvedBaseURL() (string, error) {
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	return api.BaseURLForNetwork(c.Network)
}
