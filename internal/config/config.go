// Package config loads the static OrgRoute configuration from a YAML file.
//
// The tenant set is fixed for the process lifetime: pools are provisioned
// once at startup from the entries listed here, and changing the set
// requires a restart.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/OrgRoute/internal/errs"
)

// EnvConfigPath is the environment variable that overrides the config file location.
const EnvConfigPath = "ORGROUTE_CONFIG"

const defaultConfigPath = "config.yaml"

// Fallback policies for requests that carry no tenant selector header.
const (
	// FallbackDefault routes selector-less requests to the default tenant.
	FallbackDefault = "default"

	// FallbackReject refuses selector-less requests with an unknown-tenant error.
	FallbackReject = "reject"
)

// Driver names accepted in TenantConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Duration wraps time.Duration so YAML values can be written as "5s" / "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full static configuration loaded once at startup.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Tenancy  TenancyConfig  `yaml:"tenancy"`
	Executor ExecutorConfig `yaml:"executor"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Tenants  []TenantConfig `yaml:"tenants"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// LogConfig tunes structured logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TenancyConfig controls how a request is mapped to a tenant.
type TenancyConfig struct {
	// Header is the request header carrying the tenant selector.
	Header string `yaml:"header"`

	// DefaultTenant receives requests without a selector header when
	// Fallback is FallbackDefault.
	DefaultTenant string `yaml:"default_tenant"`

	// Fallback is the policy for requests without a selector header:
	// FallbackDefault or FallbackReject.
	Fallback string `yaml:"fallback"`
}

// ExecutorConfig tunes per-query resource limits.
type ExecutorConfig struct {
	// AcquireTimeout bounds the wait for a pool connection. Zero means
	// block until the request context expires.
	AcquireTimeout Duration `yaml:"acquire_timeout"`

	// QueryTimeout is the per-statement execution deadline.
	QueryTimeout Duration `yaml:"query_timeout"`
}

// BridgeConfig tunes the worker pool that runs blocking database calls.
type BridgeConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// TenantConfig describes one tenant database. One bounded pool is
// provisioned per entry at startup.
type TenantConfig struct {
	ID       string `yaml:"id"`
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MinConns int32  `yaml:"min_conns"`
	MaxConns int32  `yaml:"max_conns"`
}

// Default returns the configuration defaults applied before the YAML
// file is decoded over them.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tenancy: TenancyConfig{
			Header:        "x-org",
			DefaultTenant: "tenant1",
			Fallback:      FallbackDefault,
		},
		Executor: ExecutorConfig{
			AcquireTimeout: Duration(5 * time.Second),
			QueryTimeout:   Duration(30 * time.Second),
		},
		Bridge: BridgeConfig{
			Workers:   10,
			QueueSize: 100,
		},
	}
}

// Load reads the config file at path. An empty path falls back to the
// ORGROUTE_CONFIG environment variable, then to ./config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = defaultConfigPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("cannot read config file %s", path), err)
	}
	return Parse(raw)
}

// Parse decodes and validates a raw YAML document.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid config file", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Tenants) == 0 {
		return errs.New(errs.ErrKindInvalidInput, "no tenants configured")
	}

	switch c.Tenancy.Fallback {
	case FallbackDefault, FallbackReject:
	default:
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("unknown tenancy fallback policy %q", c.Tenancy.Fallback))
	}

	seen := make(map[string]bool, len(c.Tenants))
	for _, t := range c.Tenants {
		if t.ID == "" {
			return errs.New(errs.ErrKindInvalidInput, "tenant with empty id")
		}
		if seen[t.ID] {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("duplicate tenant id %q", t.ID))
		}
		seen[t.ID] = true

		switch t.Driver {
		case DriverPostgres, DriverMySQL:
		default:
			return errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("tenant %s: unknown driver %q", t.ID, t.Driver))
		}

		if t.MaxConns > 0 && t.MinConns > t.MaxConns {
			return errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("tenant %s: min_conns %d exceeds max_conns %d", t.ID, t.MinConns, t.MaxConns))
		}
	}

	if c.Tenancy.Fallback == FallbackDefault && !seen[c.Tenancy.DefaultTenant] {
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("default tenant %q is not configured", c.Tenancy.DefaultTenant))
	}

	if c.Bridge.Workers <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "bridge workers must be positive")
	}
	if c.Bridge.QueueSize < 0 {
		return errs.New(errs.ErrKindInvalidInput, "bridge queue_size must not be negative")
	}

	return nil
}
