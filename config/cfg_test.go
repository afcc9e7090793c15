package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[mysql]
dsn = "user:pass@tcp(localhost:3306)/catalog?parseTime=true"
automigrate = true
max_distinct_values = 200

[http]
port = "9000"
allowed_origins = ["https://shop.example"]

[cache]
ttl = "1m"

[search]
max_candidates = 50

[rate_limit]
facets_per_minute = 30
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)

	assert.True(t, cfg.DB.Automigrate)
	assert.Equal(t, 200, cfg.DB.MaxDistinctValues)
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, []string{"https://shop.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "1m", cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Search.MaxCandidates)
	assert.Equal(t, 30, cfg.RateLimit.FacetsPerMinute)

	// defaults
	assert.Equal(t, 100, cfg.Search.MaxPerPage)
	assert.Equal(t, "catalog:registry:", cfg.Cache.Prefix)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Equal(t, "24h", cfg.Auth.JWTTTL)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CACHE_REDIS_URL", "redis://localhost:6379/1")

	cfg, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.HTTP.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Cache.RedisURL)
}

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("MYSQL_HOST", "db")
	t.Setenv("MYSQL_USER", "catalog")
	t.Setenv("MYSQL_PASSWORD", "pw")
	t.Setenv("MYSQL_DATABASE", "shop")
	t.Setenv("MYSQL_PORT", "")

	assert.Equal(t, "catalog:pw@tcp(db:3306)/shop?charset=utf8mb4&parseTime=true", dsnFromEnv())

	t.Setenv("MYSQL_HOST", "")
	assert.Empty(t, dsnFromEnv())
}
