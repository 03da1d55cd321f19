package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable, e.g. DBSERVICE_ADDR.
const EnvPrefix = "DBSERVICE"

// Server captures process level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	BlockCrawlers bool
	Registry      RegistryConfig
	CallerID      CallerIDConfig
	Cache         CacheConfig
	Redis         RedisConfig
	Tracing       TracingConfig
}

// RegistryConfig points at the upstream SIM/CNIC registry.
type RegistryConfig struct {
	URL     string
	Timeout time.Duration
}

// CallerIDConfig points at the primary and backup caller-ID APIs.
type CallerIDConfig struct {
	PrimaryURL         string
	PrimaryTimeout     time.Duration
	BackupURL          string
	BackupTimeout      time.Duration
	APIKey             string
	APIKeyHeader       string
	CountryCode        string
	BreakerFailures    int
	BreakerSuccesses   int
	BreakerOpenTimeout time.Duration
}

// CacheConfig controls the lookup result cache.
type CacheConfig struct {
	TTL time.Duration
}

// RedisConfig is optional; an empty URL keeps the cache in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// TracingConfig is optional; an empty endpoint disables span export.
type TracingConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// Defaults for the upstreams the service was built against.
const (
	DefaultRegistryURL        = "https://hs-sim-database-api.vercel.app/api/lookup"
	DefaultCallerIDPrimaryURL = "https://truecalleranshapi.vercel.app/truecaller"
)

// NewViper returns a viper instance bound to the DBSERVICE_* environment
// with every default registered, so flags can be layered on top by callers.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("block_crawlers", true)

	v.SetDefault("registry.url", DefaultRegistryURL)
	v.SetDefault("registry.timeout", 15*time.Second)

	v.SetDefault("callerid.primary_url", DefaultCallerIDPrimaryURL)
	v.SetDefault("callerid.primary_timeout", 10*time.Second)
	v.SetDefault("callerid.backup_url", "")
	v.SetDefault("callerid.backup_timeout", 8*time.Second)
	v.SetDefault("callerid.api_key", "")
	v.SetDefault("callerid.api_key_header", "X-API-Key")
	v.SetDefault("callerid.country_code", "92")
	v.SetDefault("callerid.breaker_failures", 5)
	v.SetDefault("callerid.breaker_successes", 2)
	v.SetDefault("callerid.breaker_open_timeout", 30*time.Second)

	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 2*time.Second)
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)

	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.service_name", "dbservice")
	return v
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	return FromViper(NewViper())
}

// FromViper reads and validates a Server config. An optional config file is
// read when the "config" key is set.
func FromViper(v *viper.Viper) (Server, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Server{
		Addr:          v.GetString("addr"),
		LogLevel:      v.GetString("log_level"),
		BlockCrawlers: v.GetBool("block_crawlers"),
		Registry: RegistryConfig{
			URL:     v.GetString("registry.url"),
			Timeout: v.GetDuration("registry.timeout"),
		},
		CallerID: CallerIDConfig{
			PrimaryURL:         v.GetString("callerid.primary_url"),
			PrimaryTimeout:     v.GetDuration("callerid.primary_timeout"),
			BackupURL:          v.GetString("callerid.backup_url"),
			BackupTimeout:      v.GetDuration("callerid.backup_timeout"),
			APIKey:             v.GetString("callerid.api_key"),
			APIKeyHeader:       v.GetString("callerid.api_key_header"),
			CountryCode:        v.GetString("callerid.country_code"),
			BreakerFailures:    v.GetInt("callerid.breaker_failures"),
			BreakerSuccesses:   v.GetInt("callerid.breaker_successes"),
			BreakerOpenTimeout: v.GetDuration("callerid.breaker_open_timeout"),
		},
		Cache: CacheConfig{
			TTL: v.GetDuration("cache.ttl"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: v.GetString("tracing.otlp_endpoint"),
			ServiceName:  v.GetString("tracing.service_name"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Server) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if err := validateURL("registry.url", c.Registry.URL, true); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("callerid.primary_url", c.CallerID.PrimaryURL, true); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("callerid.backup_url", c.CallerID.BackupURL, false); err != nil {
		errs = append(errs, err)
	}
	if c.Registry.Timeout <= 0 {
		errs = append(errs, errors.New("registry.timeout must be positive"))
	}
	if c.CallerID.PrimaryTimeout <= 0 || c.CallerID.BackupTimeout <= 0 {
		errs = append(errs, errors.New("callerid timeouts must be positive"))
	}
	if c.CallerID.CountryCode == "" || strings.Trim(c.CallerID.CountryCode, "0123456789") != "" {
		errs = append(errs, fmt.Errorf("callerid.country_code must be digits, got %q", c.CallerID.CountryCode))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	return errors.Join(errs...)
}

func validateURL(key, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is required", key)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	return nil
}
