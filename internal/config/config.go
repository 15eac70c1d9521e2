package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"urlguard/internal/domain"
)

const envPrefix = "URLGUARD"

type Config struct {
	HTTPAddr       string          `mapstructure:"http_addr"`
	GRPCAddr       string          `mapstructure:"grpc_addr"`
	UpdateInterval time.Duration   `mapstructure:"update_interval"`
	Feed           FeedConfig      `mapstructure:"feed"`
	Blocklist      BlocklistConfig `mapstructure:"blocklist"`
	Allowlist      []string        `mapstructure:"allowlist"`
	Canonical      CanonicalConfig `mapstructure:"canonical"`
	NATS           NATSConfig      `mapstructure:"nats"`
	Log            LogConfig       `mapstructure:"log"`
}

// FeedConfig points at a URLhaus-style CSV dump.
type FeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// BlocklistConfig describes the local list file (csv, json or yaml).
type BlocklistConfig struct {
	File  string `mapstructure:"file"`
	Watch bool   `mapstructure:"watch"`
}

type CanonicalConfig struct {
	StrictIPv6      bool `mapstructure:"strict_ipv6"`
	StrictIDNA      bool `mapstructure:"strict_idna"`
	MaxDecodePasses int  `mapstructure:"max_decode_passes"`
}

// NATSConfig enables verdict publishing when URL is set.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c CanonicalConfig) Options() domain.Options {
	return domain.Options{
		StrictIPv6:      c.StrictIPv6,
		StrictIDNA:      c.StrictIDNA,
		MaxDecodePasses: c.MaxDecodePasses,
	}
}

// HasSource reports whether at least one blocklist source is configured.
func (c Config) HasSource() bool {
	return (c.Feed.Enabled && c.Feed.URL != "") || c.Blocklist.File != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("update_interval", "1h")
	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.url", "https://urlhaus.abuse.ch/downloads/csv_online/")
	v.SetDefault("blocklist.file", "")
	v.SetDefault("blocklist.watch", true)
	v.SetDefault("allowlist", []string{})
	v.SetDefault("canonical.strict_ipv6", false)
	v.SetDefault("canonical.strict_idna", false)
	v.SetDefault("canonical.max_decode_passes", domain.DefaultMaxDecodePasses)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "urlguard.verdicts")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads defaults, then the optional config file, then URLGUARD_* env vars.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr must not be empty"))
	}
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr must not be empty"))
	}
	if c.UpdateInterval < time.Minute {
		errs = append(errs, fmt.Errorf("update_interval too small (%s), must be >=1m", c.UpdateInterval))
	}
	if c.UpdateInterval > 48*time.Hour {
		errs = append(errs, fmt.Errorf("update_interval too large (%s), must be <=48h", c.UpdateInterval))
	}
	if c.Feed.Enabled && c.Feed.URL == "" {
		errs = append(errs, errors.New("feed.url must not be empty when the feed is enabled"))
	}
	if n := c.Canonical.MaxDecodePasses; n < 1 || n > 64 {
		errs = append(errs, fmt.Errorf("canonical.max_decode_passes=%d, must be in 1..64", n))
	}
	for _, p := range c.Allowlist {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("allowlist: invalid pattern %q", p))
		}
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		errs = append(errs, errors.New("nats.subject must not be empty when nats.url is set"))
	}

	return errors.Join(errs...)
}
