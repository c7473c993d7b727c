// internal/config/config.go
//
// Server configuration.
// Sources, lowest precedence first:
//   - built-in defaults (Defaults)
//   - optional YAML file passed with --config
//   - .env file in the working directory (godotenv, never overrides real env)
//   - process environment (PORT, LOG_LEVEL, DATABASE_PATH, TRACING_ENABLED, ...)

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/robalobadob/numberhero/internal/catalog"
	"github.com/robalobadob/numberhero/internal/tracing"
)

// Session store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port            string         `mapstructure:"port"`
	LogLevel        string         `mapstructure:"log_level"`
	DatabasePath    string         `mapstructure:"database_path"`
	ClientOrigin    string         `mapstructure:"client_origin"`
	JWTSecret       string         `mapstructure:"jwt_secret"`
	CatalogFile     string         `mapstructure:"catalog_file"`
	SessionStore    string         `mapstructure:"session_store"`
	CatalogCacheTTL time.Duration  `mapstructure:"catalog_cache_ttl"`
	Tracing         tracing.Config `mapstructure:"tracing"`
}

// Defaults returns the development configuration.
func Defaults() Config {
	return Config{
		Port:            "5175",
		LogLevel:        "info",
		DatabasePath:    "./data/numberhero.db",
		ClientOrigin:    "http://localhost:5173",
		JWTSecret:       "dev_secret_change_me",
		SessionStore:    StoreSQLite,
		CatalogCacheTTL: catalog.DefaultCacheTTL,
		Tracing:         tracing.DefaultConfig(),
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("database_path", d.DatabasePath)
	v.SetDefault("client_origin", d.ClientOrigin)
	v.SetDefault("jwt_secret", d.JWTSecret)
	v.SetDefault("catalog_file", d.CatalogFile)
	v.SetDefault("session_store", d.SessionStore)
	v.SetDefault("catalog_cache_ttl", d.CatalogCacheTTL)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load reads configuration into v. file may be empty.
func Load(v *viper.Viper, file string) (Config, error) {
	_ = godotenv.Load()

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.SessionStore {
	case StoreSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("database_path is required for the sqlite session store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("session_store: unknown backend %q", c.SessionStore))
	}
	return errors.Join(errs...)
}

// Level returns the zerolog level, falling back to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
