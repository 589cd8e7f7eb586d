// Package config loads the daemon configuration from a TOML file with
// environment overrides under the ENSCTX_ prefix, e.g. ENSCTX_API_KEY.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the full daemon configuration.
type Config struct {
	API        API        `toml:"api" mapstructure:"api"`
	Sync       Sync       `toml:"sync" mapstructure:"sync"`
	Postgres   Postgres   `toml:"postgres" mapstructure:"postgres"`
	Clickhouse Clickhouse `toml:"clickhouse" mapstructure:"clickhouse"`
	Redis      Redis      `toml:"redis" mapstructure:"redis"`
	Names      Names      `toml:"names" mapstructure:"names"`
	Serve      Serve      `toml:"serve" mapstructure:"serve"`
	Log        Log        `toml:"log" mapstructure:"log"`
	Metrics    Metrics    `toml:"metrics" mapstructure:"metrics"`
}

// API configures the marketplace aggregator client.
type API struct {
	BaseURL string        `toml:"base_url" mapstructure:"base_url"`
	Key     string        `toml:"key" mapstructure:"key"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Sync configures the incremental activity walker.
type Sync struct {
	Contract  string        `toml:"contract" mapstructure:"contract"`
	Interval  time.Duration `toml:"interval" mapstructure:"interval"`
	PageSize  int           `toml:"page_size" mapstructure:"page_size"`
	MaxPages  int           `toml:"max_pages" mapstructure:"max_pages"`
	BidMargin time.Duration `toml:"bid_margin" mapstructure:"bid_margin"`
}

// Postgres configures the bookmark store.
type Postgres struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// Clickhouse configures the optional activity archive.
type Clickhouse struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	DSN     string `toml:"dsn" mapstructure:"dsn"`
}

// Redis configures the optional shared name cache. When disabled the daemon
// falls back to an in-process cache.
type Redis struct {
	Enabled  bool   `toml:"enabled" mapstructure:"enabled"`
	Addr     string `toml:"addr" mapstructure:"addr"`
	Password string `toml:"password" mapstructure:"password"`
	DB       int    `toml:"db" mapstructure:"db"`
}

// Names configures the reverse name lookup service.
type Names struct {
	BaseURL string        `toml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Serve configures the enrichment HTTP endpoint. Empty Addr disables it and
// the daemon runs sync-only.
type Serve struct {
	Addr string `toml:"addr" mapstructure:"addr"`
}

// Log configures structured logging.
type Log struct {
	Level    string `toml:"level" mapstructure:"level"`
	Encoding string `toml:"encoding" mapstructure:"encoding"`
}

// Metrics configures the Prometheus endpoint. Empty Addr disables it.
type Metrics struct {
	Addr string `toml:"addr" mapstructure:"addr"`
}

// Load reads the config file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("ENSCTX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("sync.interval", time.Minute)
	v.SetDefault("sync.page_size", 20)
	v.SetDefault("sync.max_pages", 20)
	v.SetDefault("sync.bid_margin", 20*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("names.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("metrics.addr", ":9090")
}

// Validate checks the fields without usable defaults.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url is required")
	}
	if c.Sync.Contract == "" {
		return errors.New("config: sync.contract is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("config: postgres.dsn is required")
	}
	if c.Clickhouse.Enabled && c.Clickhouse.DSN == "" {
		return errors.New("config: clickhouse.dsn is required when enabled")
	}
	if c.Serve.Addr != "" && c.Names.BaseURL == "" {
		return errors.New("config: names.base_url is required when serving")
	}
	return nil
}
