package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/getmockd/mockd-contract/pkg/broker"
	"github.com/getmockd/mockd-contract/pkg/compare"
	"github.com/getmockd/mockd-contract/pkg/identity"
	"github.com/getmockd/mockd-contract/pkg/verify"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = identity.DefaultEnvPrefix + "_"

// DefaultFile is the project file read when no path is given.
const DefaultFile = identity.ProjectFile

// Config is the complete settings tree.
type Config struct {
	Name        string        `koanf:"name"`
	Version     string        `koanf:"version"`
	Environment string        `koanf:"environment"`
	Broker      BrokerConfig  `koanf:"broker"`
	Mock        MockConfig    `koanf:"mock"`
	Verify      VerifyConfig  `koanf:"verify"`
	Compare     CompareConfig `koanf:"compare"`
	Log         LogConfig     `koanf:"log"`
	Tracing     TracingConfig `koanf:"tracing"`
}

// BrokerConfig locates the contract broker.
type BrokerConfig struct {
	URL       string        `koanf:"url"`
	Token     string        `koanf:"token"`
	Timeout   time.Duration `koanf:"timeout"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size"`
}

// MockConfig drives the consumer mock.
type MockConfig struct {
	Addr             string `koanf:"addr"`
	SpecsDir         string `koanf:"specs_dir"`
	FixturesDir      string `koanf:"fixtures_dir"`
	FixturePattern   string `koanf:"fixture_pattern"`
	ValidateRequest  bool   `koanf:"validate_request"`
	ValidateResponse bool   `koanf:"validate_response"`
	Strict           bool   `koanf:"strict"`
	Record           bool   `koanf:"record"`
	ProposeFixtures  bool   `koanf:"propose_fixtures"`
	FlushThreshold   int    `koanf:"flush_threshold"`
}

// VerifyConfig drives provider verification.
type VerifyConfig struct {
	BaseURL string        `koanf:"base_url"`
	GitSHA  string        `koanf:"git_sha"`
	Timeout time.Duration `koanf:"timeout"`
}

// CompareConfig tunes response comparison.
type CompareConfig struct {
	// Arrays is "first" or "all".
	Arrays      string   `koanf:"arrays"`
	IgnorePaths []string `koanf:"ignore_paths"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File, when set, additionally receives JSON logs.
	File   string `koanf:"file"`
}

// TracingConfig enables span export.
type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
	Pretty  bool `koanf:"pretty"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"broker.timeout":       broker.DefaultTimeout,
		"broker.cache_ttl":     broker.DefaultCacheTTL,
		"broker.cache_size":    broker.DefaultCacheSize,
		"mock.addr":            "127.0.0.1:0",
		"mock.record":          true,
		"mock.flush_threshold": 10,
		"verify.timeout":       verify.DefaultTimeout,
		"compare.arrays":       "first",
		"log.level":            "info",
		"log.format":           "text",
	}
}

// Load reads path (or DefaultFile when path is empty and it exists), applies
// environment overrides and defaults, then validates the result. A missing
// DefaultFile is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, v := range Defaults() {
		if !k.Exists(key) {
			if err := k.Set(key, v); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps MOCKD_CONTRACT_BROKER__CACHE_TTL to broker.cache_ttl.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// ValidationError reports one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate range-checks the settings. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Broker.URL != "" {
		if u, err := url.Parse(c.Broker.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("broker.url", "must be an absolute http(s) URL, got %q", c.Broker.URL)
		}
	}
	if c.Verify.BaseURL != "" {
		if u, err := url.Parse(c.Verify.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("verify.base_url", "must be an absolute URL, got %q", c.Verify.BaseURL)
		}
	}
	if c.Broker.Timeout <= 0 {
		add("broker.timeout", "must be positive")
	}
	if c.Broker.CacheTTL < 0 {
		add("broker.cache_ttl", "must not be negative")
	}
	if c.Broker.CacheSize < 1 {
		add("broker.cache_size", "must be at least 1")
	}
	if c.Verify.Timeout <= 0 {
		add("verify.timeout", "must be positive")
	}
	if c.Mock.FlushThreshold < 0 {
		add("mock.flush_threshold", "must not be negative")
	}
	if _, err := compare.ParseArrayMode(c.Compare.Arrays); err != nil {
		add("compare.arrays", "%v", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format", "must be text or json; got %q", c.Log.Format)
	}
	return errors.Join(errs...)
}

// IdentityOptions returns identity lookup options seeded from the config.
func (c *Config) IdentityOptions() identity.Options {
	return identity.Options{Name: c.Name, Version: c.Version}
}

// BrokerOptions returns broker client options for the config.
func (c *Config) BrokerOptions() []broker.Option {
	opts := []broker.Option{
		broker.WithTimeout(c.Broker.Timeout),
		broker.WithCacheTTL(c.Broker.CacheTTL),
		broker.WithCacheSize(c.Broker.CacheSize),
	}
	if c.Broker.Token != "" {
		opts = append(opts, broker.WithToken(c.Broker.Token))
	}
	return opts
}

// CompareOptions returns comparator options for the config.
func (c *Config) CompareOptions() compare.Options {
	mode, _ := compare.ParseArrayMode(c.Compare.Arrays)
	return compare.Options{ArrayMode: mode, IgnorePaths: c.Compare.IgnorePaths}
}
