package config

import (
	"fmt"
	"os"
	"strings"

	httpapi "github.com/jekabolt/grbpwr-catalog/internal/api/http"
	"github.com/jekabolt/grbpwr-catalog/internal/auth/jwt"
	"github.com/jekabolt/grbpwr-catalog/internal/ratelimit"
	"github.com/jekabolt/grbpwr-catalog/internal/search"
	"github.com/jekabolt/grbpwr-catalog/internal/store"
	"github.com/jekabolt/grbpwr-catalog/log"
	"github.com/spf13/viper"
)

// CacheConfig controls the filter registry cache. An empty RedisURL keeps it in memory.
type CacheConfig struct {
	TTL        string `mapstructure:"ttl"`
	MaxEntries int    `mapstructure:"max_entries"`
	RedisURL   string `mapstructure:"redis_url"`
	Prefix     string `mapstructure:"prefix"`
}

// Config represents the global configuration for the service.
type Config struct {
	DB        store.Config     `mapstructure:"mysql"`
	Logger    log.Config       `mapstructure:"logger"`
	HTTP      httpapi.Config   `mapstructure:"http"`
	Auth      jwt.Config       `mapstructure:"auth"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Search    search.Config    `mapstructure:"search"`
	RateLimit ratelimit.Config `mapstructure:"rate_limit"`
}

// LoadConfig loads the configuration from a file and/or environment variables.
// Environment variables take precedence over config file values.
// Nested config keys use double underscore, e.g., MYSQL__DSN for mysql.dsn
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))
	bindEnvVars(v)
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %v", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/config/grbpwr-catalog")
		v.AddConfigPath("/etc/grbpwr-catalog")
		// config file is optional
		_ = v.ReadInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config into struct: %v", err)
	}

	if config.DB.DSN == "" {
		config.DB.DSN = dsnFromEnv()
	}

	return &config, nil
}

// dsnFromEnv builds a DSN from MYSQL_HOST and friends when MYSQL_DSN is not set.
func dsnFromEnv() string {
	host := os.Getenv("MYSQL_HOST")
	user := os.Getenv("MYSQL_USER")
	password := os.Getenv("MYSQL_PASSWORD")
	database := os.Getenv("MYSQL_DATABASE")
	if host == "" || user == "" || database == "" {
		return ""
	}
	port := os.Getenv("MYSQL_PORT")
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true",
		user, password, host, port, database)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8081")
	v.SetDefault("http.request_timeout", "30s")
	v.SetDefault("logger.level", 0)
	v.SetDefault("auth.jwt_ttl", "24h")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.prefix", "catalog:registry:")
	v.SetDefault("search.max_candidates", 1000)
	v.SetDefault("search.facet_concurrency", 4)
	v.SetDefault("search.default_per_page", 20)
	v.SetDefault("search.max_per_page", 100)
	v.SetDefault("mysql.max_distinct_values", 500)
}

// bindEnvVars binds environment variables to config keys
// This allows using both nested keys (MYSQL__DSN) and flat keys (MYSQL_DSN)
func bindEnvVars(v *viper.Viper) {
	// MySQL
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("mysql.automigrate", "MYSQL_AUTOMIGRATE")
	v.BindEnv("mysql.max_open_connections", "MYSQL_MAX_OPEN_CONNECTIONS")
	v.BindEnv("mysql.max_idle_connections", "MYSQL_MAX_IDLE_CONNECTIONS")
	v.BindEnv("mysql.tls_ca_path", "MYSQL_TLS_CA_PATH")
	v.BindEnv("mysql.max_distinct_values", "MYSQL_MAX_DISTINCT_VALUES")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.add_source", "LOG_ADD_SOURCE")
	v.BindEnv("logger.file", "LOG_FILE")

	// HTTP
	v.BindEnv("http.port", "HTTP_PORT")
	v.BindEnv("http.address", "HTTP_ADDRESS")
	v.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")
	v.BindEnv("http.request_timeout", "HTTP_REQUEST_TIMEOUT")

	// Auth
	v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	v.BindEnv("auth.jwt_ttl", "AUTH_JWT_TTL")

	// Registry cache
	v.BindEnv("cache.ttl", "CACHE_TTL")
	v.BindEnv("cache.max_entries", "CACHE_MAX_ENTRIES")
	v.BindEnv("cache.redis_url", "CACHE_REDIS_URL")
	v.BindEnv("cache.prefix", "CACHE_PREFIX")

	// Search
	v.BindEnv("search.max_candidates", "SEARCH_MAX_CANDIDATES")
	v.BindEnv("search.facet_concurrency", "SEARCH_FACET_CONCURRENCY")
	v.BindEnv("search.default_per_page", "SEARCH_DEFAULT_PER_PAGE")
	v.BindEnv("search.max_per_page", "SEARCH_MAX_PER_PAGE")

	// Rate limits
	v.BindEnv("rate_limit.requests_per_minute", "RATE_LIMIT_REQUESTS_PER_MINUTE")
	v.BindEnv("rate_limit.search_per_minute", "RATE_LIMIT_SEARCH_PER_MINUTE")
	v.BindEnv("rate_limit.facets_per_minute", "RATE_LIMIT_FACETS_PER_MINUTE")
}
