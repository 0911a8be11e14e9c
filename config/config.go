// Package config loads dobhasi settings from a YAML file, a .env file and
// DOBHASI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. DOBHASI_PROVIDER_NAME.
const EnvPrefix = "DOBHASI"

// Config holds all application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Language    string         `mapstructure:"language"`
	Provider    ProviderConfig `mapstructure:"provider"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Gateway     GatewayConfig  `mapstructure:"gateway"`
	Server      ServerConfig   `mapstructure:"server"`
}

// ProviderConfig selects and configures the translation backend.
type ProviderConfig struct {
	Name        string  `mapstructure:"name"` // openai, gemini, function or mock
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	FunctionURL string  `mapstructure:"function_url"`
	Temperature float32 `mapstructure:"temperature"`
}

// CacheConfig selects where translations and the language preference are stored.
type CacheConfig struct {
	Store     string        `mapstructure:"store"` // memory, file, redis, sqlite or postgres
	Path      string        `mapstructure:"path"`  // Directory for file, database file for sqlite
	RedisURL  string        `mapstructure:"redis_url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	DSN       string        `mapstructure:"dsn"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// GatewayConfig tunes outbound calls.
type GatewayConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	Breaker     bool          `mapstructure:"breaker"`
}

// ServerConfig holds settings of the hosted translate function.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	APIKey          string        `mapstructure:"api_key"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("language", "")

	v.SetDefault("provider.name", "openai")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.function_url", "")
	v.SetDefault("provider.temperature", 0.3)

	v.SetDefault("cache.store", "file")
	v.SetDefault("cache.path", defaultCacheDir())
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.key_prefix", "dobhasi:")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("gateway.min_interval", time.Second)
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.retries", 2)
	v.SetDefault("gateway.breaker", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "dobhasi")
	}
	return ".dobhasi"
}

// Load reads configuration. A .env file in the working directory is loaded
// first if present. When path is empty, .dobhasi.yaml is looked up in the
// home directory and the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so flags bound to it
// take precedence.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".dobhasi")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = providerKeyFromEnv(cfg.Provider.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// providerKeyFromEnv falls back to the vendor's conventional variable.
func providerKeyFromEnv(name string) string {
	switch name {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

// Validate checks enumerated values and required settings.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "openai", "gemini", "mock":
	case "function":
		if c.Provider.FunctionURL == "" {
			return errors.New("provider.function_url is required for the function provider")
		}
	default:
		return fmt.Errorf("unknown provider %q (want openai, gemini, function or mock)", c.Provider.Name)
	}

	switch c.Cache.Store {
	case "memory", "file", "redis", "sqlite":
	case "postgres":
		if c.Cache.DSN == "" {
			return errors.New("cache.dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown cache store %q (want memory, file, redis, sqlite or postgres)", c.Cache.Store)
	}

	if c.Gateway.Retries < 0 {
		return fmt.Errorf("gateway.retries must not be negative, got %d", c.Gateway.Retries)
	}
	return nil
}

// IsProduction reports whether the production environment is configured.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
