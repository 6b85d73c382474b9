// Package config layers configuration from defaults, an optional TOML file,
// and environment variables, in that order. Environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DataConfig struct {
	OrdersCSV string
	CitiesCSV string
	CacheDB   string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// fileConfig mirrors the TOML file. Pointer fields distinguish "absent" from
// a zero value, so the file only overrides what it actually sets.
type fileConfig struct {
	Server struct {
		Host            *string `toml:"host"`
		Port            *int    `toml:"port"`
		ReadTimeout     *string `toml:"read_timeout"`
		WriteTimeout    *string `toml:"write_timeout"`
		IdleTimeout     *string `toml:"idle_timeout"`
		ShutdownTimeout *string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Data struct {
		OrdersCSV *string `toml:"orders_csv"`
		CitiesCSV *string `toml:"cities_csv"`
		CacheDB   *string `toml:"cache_db"`
	} `toml:"data"`
	Logger struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"logger"`
	Security struct {
		EnableRateLimit *bool    `toml:"rate_limit_enabled"`
		RateLimitRPS    *int     `toml:"rate_limit_rps"`
		RateLimitBurst  *int     `toml:"rate_limit_burst"`
		AllowedOrigins  []string `toml:"allowed_origins"`
		TrustedProxies  []string `toml:"trusted_proxies"`
	} `toml:"security"`
}

// Load builds the configuration. The TOML path comes from CONFIG_FILE and
// defaults to config.toml; a missing file is not an error.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			OrdersCSV: "data/superstore.csv",
			CitiesCSV: "data/worldcities.csv",
			CacheDB:   "data/orders.db",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}

	if err := cfg.applyFile(getEnvString("CONFIG_FILE", "config.toml")); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat config file: %w", err)
	}

	var file fileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&c.Server.Host, file.Server.Host)
	setInt(&c.Server.Port, file.Server.Port)
	setDuration(&c.Server.ReadTimeout, file.Server.ReadTimeout)
	setDuration(&c.Server.WriteTimeout, file.Server.WriteTimeout)
	setDuration(&c.Server.IdleTimeout, file.Server.IdleTimeout)
	setDuration(&c.Server.ShutdownTimeout, file.Server.ShutdownTimeout)

	setString(&c.Data.OrdersCSV, file.Data.OrdersCSV)
	setString(&c.Data.CitiesCSV, file.Data.CitiesCSV)
	setString(&c.Data.CacheDB, file.Data.CacheDB)

	setString(&c.Logger.Level, file.Logger.Level)
	setString(&c.Logger.Format, file.Logger.Format)

	if file.Security.EnableRateLimit != nil {
		c.Security.EnableRateLimit = *file.Security.EnableRateLimit
	}
	setInt(&c.Security.RateLimitRPS, file.Security.RateLimitRPS)
	setInt(&c.Security.RateLimitBurst, file.Security.RateLimitBurst)
	if file.Security.AllowedOrigins != nil {
		c.Security.AllowedOrigins = file.Security.AllowedOrigins
	}
	if file.Security.TrustedProxies != nil {
		c.Security.TrustedProxies = file.Security.TrustedProxies
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvString("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Data.OrdersCSV = getEnvString("ORDERS_CSV", c.Data.OrdersCSV)
	c.Data.CitiesCSV = getEnvString("CITIES_CSV", c.Data.CitiesCSV)
	c.Data.CacheDB = getEnvString("CACHE_DB", c.Data.CacheDB)

	c.Logger.Level = getEnvString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnvString("LOG_FORMAT", c.Logger.Format)

	c.Security.EnableRateLimit = getEnvBool("SECURITY_RATE_LIMIT_ENABLED", c.Security.EnableRateLimit)
	c.Security.RateLimitRPS = getEnvInt("SECURITY_RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("SECURITY_RATE_LIMIT_BURST", c.Security.RateLimitBurst)
	c.Security.AllowedOrigins = getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", c.Security.AllowedOrigins)
	c.Security.TrustedProxies = getEnvStringSlice("SECURITY_TRUSTED_PROXIES", c.Security.TrustedProxies)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.OrdersCSV == "" {
		return fmt.Errorf("orders CSV path cannot be empty")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) {
	if src == nil {
		return
	}
	if d, err := time.ParseDuration(*src); err == nil {
		*dst = d
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
