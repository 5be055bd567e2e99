// ABOUTME: Configuration loading and defaults for sigscan
// ABOUTME: Decodes the TOML config file, rejects unknown keys, and validates values

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Location of the config file relative to the home directory.
const defaultConfigRelPath = ".config/sig-scan/config.toml"

// ErrNoHomeDir is returned when HOME is not set.
var ErrNoHomeDir = errors.New("unable to get home directory")

// Config holds the complete configuration for sigscan.
type Config struct {
	// Directories searched for signature tables, in load order.
	DatabaseDir []string `toml:"database_dir"`

	// Logging configuration.
	Log LogConfig `toml:"log"`

	// Tracing configuration.
	Tracing TracingConfig `toml:"tracing"`

	// Verdict cache configuration.
	Cache CacheConfig `toml:"cache"`

	// NATS result publishing configuration.
	NATS NATSConfig `toml:"nats"`

	// Bloom prefilter configuration.
	Bloom BloomConfig `toml:"bloom"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	Enabled       bool    `toml:"enabled"`
	Endpoint      string  `toml:"endpoint"`
	Insecure      bool    `toml:"insecure"`
	SamplingRatio float64 `toml:"sampling_ratio"`
}

// CacheConfig holds verdict cache settings.
type CacheConfig struct {
	// Badger directory. Empty disables the cache.
	Dir string `toml:"dir"`

	// Entry lifetime as a Go duration string.
	TTL string `toml:"ttl"`
}

// NATSConfig holds NATS settings.
type NATSConfig struct {
	// Empty disables publishing.
	URL     string `toml:"url"`
	Subject string `toml:"subject"`
	Name    string `toml:"name"`
}

// BloomConfig holds prefilter settings.
type BloomConfig struct {
	Disabled          bool    `toml:"disabled"`
	FalsePositiveRate float64 `toml:"false_positive_rate"`
}

// DefaultConfig returns a Config with default values.
// The cache, NATS, and tracing are disabled by default.
func DefaultConfig() *Config {
	return &Config{
		DatabaseDir: []string{},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled:       false,
			Endpoint:      "localhost:4317",
			Insecure:      true,
			SamplingRatio: 1.0,
		},
		Cache: CacheConfig{
			Dir: "",
			TTL: "24h",
		},
		NATS: NATSConfig{
			URL:     "",
			Subject: "sigscan",
			Name:    "sigscan",
		},
		Bloom: BloomConfig{
			FalsePositiveRate: 0.001,
		},
	}
}

// homeDir returns $HOME.
func homeDir() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", ErrNoHomeDir
	}
	return home, nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() (string, error) {
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, defaultConfigRelPath), nil
}

// Load reads, decodes, expands, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file %s", path)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
// database_dir must be present; unknown keys are rejected.
func Parse(data string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	if !md.IsDefined("database_dir") {
		return nil, errors.New("missing field database_dir")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}

	if c.Tracing.SamplingRatio < 0 || c.Tracing.SamplingRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sampling_ratio %v is outside [0, 1]", c.Tracing.SamplingRatio))
	}

	if c.Bloom.FalsePositiveRate <= 0 || c.Bloom.FalsePositiveRate >= 1 {
		errs = append(errs, fmt.Errorf("bloom.false_positive_rate %v is outside (0, 1)", c.Bloom.FalsePositiveRate))
	}

	if _, err := c.CacheTTL(); err != nil {
		errs = append(errs, err)
	}

	if c.NATS.URL != "" && c.NATS.Subject == "" {
		errs = append(errs, errors.New("nats.subject is required when nats.url is set"))
	}

	return errors.Join(errs...)
}

// CacheTTL parses the cache TTL. An empty value means no expiry.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}

	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache.ttl: %w", err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("cache.ttl %s is negative", c.Cache.TTL)
	}
	return ttl, nil
}

// expandPaths resolves a leading ~ in every configured path.
func (c *Config) expandPaths() error {
	needsHome := strings.HasPrefix(c.Cache.Dir, "~")
	for _, dir := range c.DatabaseDir {
		if strings.HasPrefix(dir, "~") {
			needsHome = true
		}
	}
	if !needsHome {
		return nil
	}

	home, err := homeDir()
	if err != nil {
		return err
	}

	for i, dir := range c.DatabaseDir {
		c.DatabaseDir[i] = ExpandHome(dir, home)
	}
	c.Cache.Dir = ExpandHome(c.Cache.Dir, home)

	return nil
}

// ExpandHome replaces a leading "~" or "~/" with home.
func ExpandHome(path, home string) string {
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:])
	default:
		return path
	}
}
