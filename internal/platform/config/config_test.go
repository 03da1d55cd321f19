package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultRegistryURL, cfg.Registry.URL)
	assert.Equal(t, 15*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, DefaultCallerIDPrimaryURL, cfg.CallerID.PrimaryURL)
	assert.Equal(t, 10*time.Second, cfg.CallerID.PrimaryTimeout)
	assert.Equal(t, 8*time.Second, cfg.CallerID.BackupTimeout)
	assert.Empty(t, cfg.CallerID.BackupURL)
	assert.Equal(t, "92", cfg.CallerID.CountryCode)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.True(t, cfg.BlockCrawlers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DBSERVICE_ADDR", ":9090")
	t.Setenv("DBSERVICE_REGISTRY_TIMEOUT", "3s")
	t.Setenv("DBSERVICE_CALLERID_BACKUP_URL", "https://backup.example.com/lookup")
	t.Setenv("DBSERVICE_CALLERID_BREAKER_FAILURES", "7")
	t.Setenv("DBSERVICE_BLOCK_CRAWLERS", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, "https://backup.example.com/lookup", cfg.CallerID.BackupURL)
	assert.Equal(t, 7, cfg.CallerID.BreakerFailures)
	assert.False(t, cfg.BlockCrawlers)
}

func TestValidate(t *testing.T) {
	valid := func() Server {
		cfg, err := FromEnv()
		require.NoError(t, err)
		return cfg
	}

	t.Run("rejects non-http registry url", func(t *testing.T) {
		cfg := valid()
		cfg.Registry.URL = "ftp://registry"
		assert.ErrorContains(t, cfg.Validate(), "registry.url")
	})

	t.Run("rejects missing primary url", func(t *testing.T) {
		cfg := valid()
		cfg.CallerID.PrimaryURL = ""
		assert.ErrorContains(t, cfg.Validate(), "callerid.primary_url is required")
	})

	t.Run("rejects non-digit country code", func(t *testing.T) {
		cfg := valid()
		cfg.CallerID.CountryCode = "+92"
		assert.ErrorContains(t, cfg.Validate(), "country_code")
	})

	t.Run("rejects zero timeouts", func(t *testing.T) {
		cfg := valid()
		cfg.Registry.Timeout = 0
		assert.ErrorContains(t, cfg.Validate(), "registry.timeout")
	})

	t.Run("empty backup url is allowed", func(t *testing.T) {
		cfg := valid()
		cfg.CallerID.BackupURL = ""
		assert.NoError(t, cfg.Validate())
	})
}
